package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/linemk/luxe-market/internal/authz"
	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/service"
)

// TopUpRequest представляет входной JSON для заявки на пополнение кошелька.
type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// TopUpHandler обрабатывает запрос POST /api/wallet/topup.
// Деньги зачисляются только после одобрения администратором.
func TopUpHandler(log *slog.Logger, walletService service.WalletService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.TopUpHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}
		var req TopUpRequest
		if !decodeRequest(w, r, logger, &req) {
			return
		}

		wt, err := walletService.RequestFunds(r.Context(), actor, req.Amount)
		if err != nil {
			logger.Error("failed to request funds", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, wt)
	}
}

// ApproveTopUpHandler обрабатывает POST /api/admin/wallet/{id}/approve
func ApproveTopUpHandler(log *slog.Logger, walletService service.WalletService) http.HandlerFunc {
	return resolveTopUpHandler(log, "handlers.ApproveTopUpHandler", walletService.Approve)
}

// RejectTopUpHandler обрабатывает POST /api/admin/wallet/{id}/reject
func RejectTopUpHandler(log *slog.Logger, walletService service.WalletService) http.HandlerFunc {
	return resolveTopUpHandler(log, "handlers.RejectTopUpHandler", walletService.Reject)
}

type resolveFunc func(ctx context.Context, actor authz.Actor, txID int64) (*models.WalletTransaction, error)

func resolveTopUpHandler(log *slog.Logger, op string, resolve resolveFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}
		txID, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		wt, err := resolve(r.Context(), actor, txID)
		if err != nil {
			logger.Error("failed to resolve top-up", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wt)
	}
}
