package handlers

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/service"
)

// CouponRequest - тело создания и изменения купона. IsActive по умолчанию true.
type CouponRequest struct {
	Code          string          `json:"code" validate:"required,max=64"`
	DiscountType  string          `json:"discountType" validate:"required,oneof=percentage fixed"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	IsActive      *bool           `json:"isActive"`
}

func (req CouponRequest) coupon() *models.Coupon {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &models.Coupon{
		Code:     req.Code,
		Kind:     models.DiscountKind(req.DiscountType),
		Value:    req.DiscountValue,
		IsActive: active,
	}
}

func ListCouponsHandler(log *slog.Logger, couponService service.CouponService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListCouponsHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}

		coupons, err := couponService.List(r.Context(), actor)
		if err != nil {
			logger.Error("failed to list coupons", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, coupons)
	}
}

func CreateCouponHandler(log *slog.Logger, couponService service.CouponService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateCouponHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}
		var req CouponRequest
		if !decodeRequest(w, r, logger, &req) {
			return
		}

		coupon, err := couponService.Create(r.Context(), actor, req.coupon())
		if err != nil {
			logger.Error("failed to create coupon", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, coupon)
	}
}

func UpdateCouponHandler(log *slog.Logger, couponService service.CouponService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateCouponHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req CouponRequest
		if !decodeRequest(w, r, logger, &req) {
			return
		}

		c := req.coupon()
		c.ID = id
		coupon, err := couponService.Update(r.Context(), actor, c)
		if err != nil {
			logger.Error("failed to update coupon", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, coupon)
	}
}

func DeleteCouponHandler(log *slog.Logger, couponService service.CouponService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteCouponHandler"
		logger := log.With(slog.String("op", op))

		actor, ok := requireActor(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		if err := couponService.Delete(r.Context(), actor, id); err != nil {
			logger.Error("failed to delete coupon", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Coupon deleted"})
	}
}
