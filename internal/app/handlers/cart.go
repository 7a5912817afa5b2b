package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/luxe-market/internal/service"
)

type AddLineRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0,max=999"`
}

// SetQuantityRequest - количество 0 удаляет строку
type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=999"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

// GetCartHandler обрабатывает GET /api/cart: строки корзины и расчёт итогов
func GetCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCartHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}

		view, err := cartService.GetCart(r.Context(), actor)
		if err != nil {
			logger.Error("failed to get cart", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// AddCartLineHandler обрабатывает POST /api/cart/items
func AddCartLineHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddCartLineHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}
		var req AddLineRequest
		if !decodeRequest(w, r, logger, &req) {
			return
		}

		view, err := cartService.AddLine(r.Context(), actor, req.ProductID, req.Quantity)
		if err != nil {
			logger.Error("failed to add cart line", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// SetCartQuantityHandler обрабатывает PUT /api/cart/items/{productID}
func SetCartQuantityHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SetCartQuantityHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}
		productID, ok := idParam(w, r, "productID")
		if !ok {
			return
		}
		var req SetQuantityRequest
		if !decodeRequest(w, r, logger, &req) {
			return
		}

		view, err := cartService.SetQuantity(r.Context(), actor, productID, req.Quantity)
		if err != nil {
			logger.Error("failed to set quantity", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// RemoveCartLineHandler обрабатывает DELETE /api/cart/items/{productID}
func RemoveCartLineHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveCartLineHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}
		productID, ok := idParam(w, r, "productID")
		if !ok {
			return
		}

		view, err := cartService.RemoveLine(r.Context(), actor, productID)
		if err != nil {
			logger.Error("failed to remove cart line", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func ClearCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ClearCartHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}

		if err := cartService.ClearCart(r.Context(), actor); err != nil {
			logger.Error("failed to clear cart", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Cart cleared"})
	}
}

// ApplyCouponHandler обрабатывает POST /api/cart/coupon
func ApplyCouponHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ApplyCouponHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}
		var req ApplyCouponRequest
		if !decodeRequest(w, r, logger, &req) {
			return
		}

		view, err := cartService.ApplyCoupon(r.Context(), actor, req.Code)
		if err != nil {
			logger.Warn("coupon not applied", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func RemoveCouponHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveCouponHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}

		view, err := cartService.RemoveCoupon(r.Context(), actor)
		if err != nil {
			logger.Error("failed to remove coupon", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
