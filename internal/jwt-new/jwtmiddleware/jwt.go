package jwtmiddleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/linemk/luxe-market/internal/authz"
	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
)

// NewJWTMiddleware создаёт middleware для проверки JWT, секрет берётся из переменной окружения.
// Из токена собирается authz.Actor и кладётся в контекст запроса.
func NewJWTMiddleware() func(http.Handler) http.Handler {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET is not set")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// формат: "Bearer <token>"
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "missing token")
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w, "invalid token format")
				return
			}

			token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				unauthorized(w, "invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				unauthorized(w, "invalid token claims")
				return
			}

			sub, ok := claims["sub"].(string)
			if !ok {
				unauthorized(w, "invalid token claims: sub not found")
				return
			}
			userID, err := strconv.ParseInt(sub, 10, 64)
			if err != nil || userID <= 0 {
				unauthorized(w, "invalid token claims: invalid user id")
				return
			}

			// токен без роли считаем покупательским
			role := models.RoleCustomer
			if raw, ok := claims["role"].(string); ok && raw != "" {
				role = models.Role(raw)
				if !role.IsValid() {
					unauthorized(w, "invalid token claims: unknown role")
					return
				}
			}

			ctx := authz.WithActor(r.Context(), authz.Actor{UserID: userID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext извлекает актора, установленного middleware.
func FromContext(ctx context.Context) (authz.Actor, bool) {
	return authz.FromContext(ctx)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": msg,
		"kind":  shoperr.KindNotAuthenticated,
	})
}
