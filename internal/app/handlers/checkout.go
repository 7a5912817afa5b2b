package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/service"
)

// CheckoutRequest - данные доставки и способ оплаты
type CheckoutRequest struct {
	Shipping      models.ShippingInfo `json:"shippingInfo"`
	PaymentMethod string              `json:"paymentMethod" validate:"required,oneof=COD Online Bank Wallet"`
	SaveShipping  bool                `json:"saveShipping"`
}

// CheckoutHandler обрабатывает POST /api/checkout. Корзина делится по магазинам,
// на каждый магазин создаётся отдельный заказ.
func CheckoutHandler(log *slog.Logger, checkoutService service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}
		var req CheckoutRequest
		if !decodeRequest(w, r, logger, &req) {
			return
		}

		result, err := checkoutService.PlaceOrder(r.Context(), actor, service.PlaceOrderRequest{
			Shipping:      req.Shipping,
			PaymentMethod: models.PaymentMethod(req.PaymentMethod),
			SaveShipping:  req.SaveShipping,
		})
		if err != nil {
			logger.Error("checkout failed", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}
