package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/luxe-market/internal/service"
)

// AuthRequest представляет структуру запроса для аутентификации с тегами валидации
type AuthRequest struct {
	Username string `json:"username" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// AuthResponse представляет структуру ответа с JWT-токеном
type AuthResponse struct {
	Token string `json:"token"`
}

// AuthHandler – HTTP-обработчик для аутентификации, принимает логгер и экземпляр AuthService
func AuthHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AuthHandler"
		logger := log.With(slog.String("op", op))

		var req AuthRequest
		if !decodeRequest(w, r, logger, &req) {
			return
		}

		token, err := authService.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			logger.Error("login failed", slog.Any("error", err))
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AuthResponse{Token: token})
	}
}

// RegisterHandler создаёт покупателя и сразу возвращает токен
func RegisterHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterHandler"
		logger := log.With(slog.String("op", op))

		var req AuthRequest
		if !decodeRequest(w, r, logger, &req) {
			return
		}

		token, err := authService.Register(r.Context(), req.Username, req.Password)
		if err != nil {
			logger.Error("registration failed", slog.Any("error", err))
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, AuthResponse{Token: token})
	}
}
