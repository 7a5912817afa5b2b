package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/luxe-market/internal/service"
)

// InfoHandler обрабатывает запрос GET /api/info.
// Он извлекает пользователя из контекста (установленного JWT‑middleware),
// затем вызывает InfoService: баланс, сохранённый адрес, заказы и история кошелька
func InfoHandler(log *slog.Logger, infoService service.InfoService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.InfoHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}

		info, err := infoService.GetInfo(r.Context(), actor)
		if err != nil {
			logger.Error("failed to get info", slog.Any("error", err))
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, info)
	}
}
