package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/linemk/luxe-market/internal/authz"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
	"github.com/linemk/luxe-market/internal/jwt-new/jwtmiddleware"
)

var validate = validator.New()

// ErrorResponse - тело ответа при ошибке
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// MessageResponse - ответ без данных
type MessageResponse struct {
	Message string `json:"message"`
}

var statusByKind = map[string]int{
	shoperr.KindInvalidCode:       http.StatusNotFound,
	shoperr.KindCouponInactive:    http.StatusUnprocessableEntity,
	shoperr.KindEmptyCart:         http.StatusUnprocessableEntity,
	shoperr.KindNotAuthenticated:  http.StatusUnauthorized,
	shoperr.KindInsufficientFunds: http.StatusPaymentRequired,
	shoperr.KindInvalidTransition: http.StatusConflict,
	shoperr.KindPermissionDenied:  http.StatusForbidden,
	shoperr.KindNotFound:          http.StatusNotFound,
	shoperr.KindValidation:        http.StatusBadRequest,
	shoperr.KindUnavailable:       http.StatusServiceUnavailable,
}

// writeError переводит ошибку сервиса в HTTP-статус по её виду.
// Текст внутренних ошибок и сбоев хранилищ наружу не отдаём.
func writeError(w http.ResponseWriter, err error) {
	kind := shoperr.Kind(err)
	status, ok := statusByKind[kind]
	msg := err.Error()
	switch {
	case !ok:
		status = http.StatusInternalServerError
		msg = "internal server error"
	case kind == shoperr.KindUnavailable:
		msg = "service temporarily unavailable, retry later"
	}
	writeJSON(w, status, ErrorResponse{Error: msg, Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg, Kind: shoperr.KindValidation})
}

// decodeRequest читает JSON-тело и прогоняет его через validator
func decodeRequest(w http.ResponseWriter, r *http.Request, logger *slog.Logger, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		logger.Error("invalid request: decoding error", slog.Any("error", err))
		writeBadRequest(w, "invalid request")
		return false
	}
	if err := validate.Struct(req); err != nil {
		logger.Error("invalid request: validation error", slog.Any("error", err))
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeBadRequest(w, "validation error: "+verrs.Error())
			return false
		}
		writeBadRequest(w, "validation error")
		return false
	}
	return true
}

// requireActor достаёт пользователя, установленного JWT-middleware
func requireActor(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (authz.Actor, bool) {
	actor, ok := jwtmiddleware.FromContext(r.Context())
	if !ok {
		logger.Error("actor not found in context")
		writeError(w, shoperr.ErrNotAuthenticated)
		return authz.Actor{}, false
	}
	return actor, true
}

// idParam разбирает числовой параметр пути
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, "invalid "+name)
		return 0, false
	}
	return id, true
}
