package urllog

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// CustomLoggerMiddleware пишет строку на каждый запрос: метод, URL, статус и длительность.
// request_id берётся из middleware.RequestID, поэтому его нужно подключать раньше.
func CustomLoggerMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	log = log.With(slog.String("component", "middleware/urllog"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := log.With(
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			start := time.Now()
			defer func() {
				attrs := []any{
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					slog.String("duration", time.Since(start).String()),
				}
				// ошибки сервера отдельно, чтобы их было видно в проде
				if ww.Status() >= http.StatusInternalServerError {
					entry.Error("request completed", attrs...)
					return
				}
				entry.Info("request completed", attrs...)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
