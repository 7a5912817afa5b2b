package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/linemk/luxe-market/internal/app/handlers"
	"github.com/linemk/luxe-market/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/luxe-market/internal/lib/logger/handlers/urllog"
)

// NewRouter собирает HTTP API. Всё, кроме регистрации, входа и каталога, требует JWT.
func NewRouter(log *slog.Logger, svcs *Services) http.Handler {
	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// регистрация и вход
	router.Post("/api/register", handlers.RegisterHandler(log, svcs.Auth))
	router.Post("/api/auth", handlers.AuthHandler(log, svcs.Auth))

	// каталог открыт без токена
	router.Get("/api/products", handlers.ListProductsHandler(log, svcs.Catalog))
	router.Get("/api/products/{id}", handlers.GetProductHandler(log, svcs.Catalog))

	router.Group(func(r chi.Router) {
		jwtMW := jwtmiddleware.NewJWTMiddleware()
		r.Use(jwtMW)

		r.Get("/api/info", handlers.InfoHandler(log, svcs.Info))

		r.Post("/api/stores", handlers.CreateStoreHandler(log, svcs.Catalog))
		r.Put("/api/stores/{id}", handlers.UpdateStoreHandler(log, svcs.Catalog))
		r.Post("/api/products", handlers.CreateProductHandler(log, svcs.Catalog))
		r.Put("/api/products/{id}", handlers.UpdateProductHandler(log, svcs.Catalog))
		r.Delete("/api/products/{id}", handlers.DeleteProductHandler(log, svcs.Catalog))
		r.Get("/api/stores/{id}/orders", handlers.StoreOrdersHandler(log, svcs.Order))

		r.Route("/api/cart", func(r chi.Router) {
			r.Get("/", handlers.GetCartHandler(log, svcs.Cart))
			r.Delete("/", handlers.ClearCartHandler(log, svcs.Cart))
			r.Post("/items", handlers.AddCartLineHandler(log, svcs.Cart))
			r.Put("/items/{productID}", handlers.SetCartQuantityHandler(log, svcs.Cart))
			r.Delete("/items/{productID}", handlers.RemoveCartLineHandler(log, svcs.Cart))
			r.Post("/coupon", handlers.ApplyCouponHandler(log, svcs.Cart))
			r.Delete("/coupon", handlers.RemoveCouponHandler(log, svcs.Cart))
		})

		// оформление заказа: по одному заказу на магазин
		r.Post("/api/checkout", handlers.CheckoutHandler(log, svcs.Checkout))

		r.Route("/api/orders", func(r chi.Router) {
			r.Get("/", handlers.ListOrdersHandler(log, svcs.Order))
			r.Get("/{id}", handlers.GetOrderHandler(log, svcs.Order))
			r.Post("/{id}/cancel", handlers.CancelOrderHandler(log, svcs.Order))
			r.Patch("/{id}/status", handlers.UpdateOrderStatusHandler(log, svcs.Order))
		})

		r.Post("/api/wallet/topup", handlers.TopUpHandler(log, svcs.Wallet))

		// роль администратора проверяется в сервисах
		r.Route("/api/admin", func(r chi.Router) {
			r.Get("/coupons", handlers.ListCouponsHandler(log, svcs.Coupon))
			r.Post("/coupons", handlers.CreateCouponHandler(log, svcs.Coupon))
			r.Put("/coupons/{id}", handlers.UpdateCouponHandler(log, svcs.Coupon))
			r.Delete("/coupons/{id}", handlers.DeleteCouponHandler(log, svcs.Coupon))
			r.Post("/wallet/{id}/approve", handlers.ApproveTopUpHandler(log, svcs.Wallet))
			r.Post("/wallet/{id}/reject", handlers.RejectTopUpHandler(log, svcs.Wallet))
		})
	})

	return router
}
