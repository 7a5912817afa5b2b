package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/service"
)

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func ListOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}

		orders, err := orderService.ListMine(r.Context(), actor)
		if err != nil {
			logger.Error("failed to list orders", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, orders)
	}
}

// GetOrderHandler обрабатывает GET /api/orders/{id}
func GetOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}

		order, err := orderService.Get(r.Context(), actor, chi.URLParam(r, "id"))
		if err != nil {
			logger.Error("failed to get order", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

// CancelOrderHandler обрабатывает POST /api/orders/{id}/cancel
func CancelOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CancelOrderHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}

		order, err := orderService.Cancel(r.Context(), actor, chi.URLParam(r, "id"))
		if err != nil {
			logger.Warn("order not cancelled", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

// UpdateOrderStatusHandler обрабатывает PATCH /api/orders/{id}/status
func UpdateOrderStatusHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateOrderStatusHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}
		var req UpdateStatusRequest
		if !decodeRequest(w, r, logger, &req) {
			return
		}

		order, err := orderService.UpdateStatus(r.Context(), actor, chi.URLParam(r, "id"), models.OrderStatus(req.Status))
		if err != nil {
			logger.Warn("order status not updated", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

// StoreOrdersHandler обрабатывает GET /api/stores/{id}/orders
func StoreOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.StoreOrdersHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}
		storeID, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		orders, err := orderService.ListForStore(r.Context(), actor, storeID)
		if err != nil {
			logger.Error("failed to list store orders", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, orders)
	}
}
