package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/linemk/luxe-market/internal/authz"
	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
	"github.com/linemk/luxe-market/internal/storage"
)

var maxPercentage = decimal.NewFromInt(100)

// CouponService - управление купонами, доступно только администратору
type CouponService interface {
	List(ctx context.Context, actor authz.Actor) ([]*models.Coupon, error)
	Create(ctx context.Context, actor authz.Actor, c *models.Coupon) (*models.Coupon, error)
	Update(ctx context.Context, actor authz.Actor, c *models.Coupon) (*models.Coupon, error)
	Delete(ctx context.Context, actor authz.Actor, id int64) error
}

type couponService struct {
	log        *slog.Logger
	couponRepo storage.CouponStorage
}

func NewCouponService(log *slog.Logger, couponRepo storage.CouponStorage) CouponService {
	return &couponService{
		log:        log,
		couponRepo: couponRepo,
	}
}

func (s *couponService) List(ctx context.Context, actor authz.Actor) ([]*models.Coupon, error) {
	const op = "service.CouponService.List"

	if err := authz.Admin(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	coupons, err := s.couponRepo.ListCoupons(ctx)
	if err != nil {
		s.log.Error("failed to list coupons", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	if coupons == nil {
		coupons = []*models.Coupon{}
	}
	return coupons, nil
}

func (s *couponService) Create(ctx context.Context, actor authz.Actor, c *models.Coupon) (*models.Coupon, error) {
	const op = "service.CouponService.Create"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID))

	if err := authz.Admin(actor); err != nil {
		logger.Warn("coupon creation denied", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := normalizeCoupon(c); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.couponRepo.CreateCoupon(ctx, c)
	if err != nil {
		if errors.Is(err, storage.ErrCouponExists) {
			logger.Warn("duplicate coupon code", slog.String("code", c.Code))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to create coupon", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	c.ID = id

	logger.Info("coupon created", slog.Int64("couponID", id), slog.String("code", c.Code))
	return c, nil
}

// Update меняет купон целиком. Корзины ссылаются на купон по id,
// поэтому изменения сразу видны в их расчёте.
func (s *couponService) Update(ctx context.Context, actor authz.Actor, c *models.Coupon) (*models.Coupon, error) {
	const op = "service.CouponService.Update"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID), slog.Int64("couponID", c.ID))

	if err := authz.Admin(actor); err != nil {
		logger.Warn("coupon update denied", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := normalizeCoupon(c); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.couponRepo.UpdateCoupon(ctx, c); err != nil {
		if errors.Is(err, storage.ErrCouponNotFound) || errors.Is(err, storage.ErrCouponExists) {
			logger.Warn("coupon update rejected", slog.Any("error", err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to update coupon", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}

	logger.Info("coupon updated")
	return c, nil
}

func (s *couponService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	const op = "service.CouponService.Delete"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID), slog.Int64("couponID", id))

	if err := authz.Admin(actor); err != nil {
		logger.Warn("coupon deletion denied", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.couponRepo.DeleteCoupon(ctx, id); err != nil {
		if errors.Is(err, storage.ErrCouponNotFound) {
			return fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to delete coupon", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}

	logger.Info("coupon deleted")
	return nil
}

// normalizeCoupon приводит код к верхнему регистру и проверяет значение скидки
func normalizeCoupon(c *models.Coupon) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.Code == "" {
		return shoperr.Invalid("coupon code is required")
	}
	if !c.Kind.IsValid() {
		return shoperr.Invalid("discount type must be percentage or fixed")
	}
	if c.Value.IsNegative() {
		return shoperr.Invalid("discount value cannot be negative")
	}
	if c.Kind == models.DiscountPercentage && c.Value.GreaterThan(maxPercentage) {
		return shoperr.Invalid("percentage discount cannot exceed 100")
	}
	c.Value = c.Value.Round(2)
	return nil
}
