package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/linemk/luxe-market/internal/authz"
	"github.com/linemk/luxe-market/internal/cache"
	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/pricing"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
	"github.com/linemk/luxe-market/internal/storage"
)

// CartView - корзина вместе с расчётом стоимости
type CartView struct {
	Lines   []models.CartLine `json:"lines"`
	Coupon  *models.Coupon    `json:"coupon,omitempty"`
	Summary pricing.Summary   `json:"summary"`
}

type CartService interface {
	GetCart(ctx context.Context, actor authz.Actor) (*CartView, error)
	AddLine(ctx context.Context, actor authz.Actor, productID int64, qty int) (*CartView, error)
	SetQuantity(ctx context.Context, actor authz.Actor, productID int64, qty int) (*CartView, error)
	RemoveLine(ctx context.Context, actor authz.Actor, productID int64) (*CartView, error)
	ClearCart(ctx context.Context, actor authz.Actor) error
	ApplyCoupon(ctx context.Context, actor authz.Actor, code string) (*CartView, error)
	RemoveCoupon(ctx context.Context, actor authz.Actor) (*CartView, error)
}

type cartService struct {
	log         *slog.Logger
	cartRepo    storage.CartStorage
	catalogRepo storage.CatalogStorage
	couponRepo  storage.CouponStorage
	cartCache   cache.CartCache
	taxRate     decimal.Decimal
}

func NewCartService(
	log *slog.Logger,
	cartRepo storage.CartStorage,
	catalogRepo storage.CatalogStorage,
	couponRepo storage.CouponStorage,
	cartCache cache.CartCache,
	taxRate decimal.Decimal,
) CartService {
	return &cartService{
		log:         log,
		cartRepo:    cartRepo,
		catalogRepo: catalogRepo,
		couponRepo:  couponRepo,
		cartCache:   cartCache,
		taxRate:     taxRate,
	}
}

func (s *cartService) GetCart(ctx context.Context, actor authz.Actor) (*CartView, error) {
	const op = "service.CartService.GetCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID))

	if err := authz.Authenticated(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cart, err := s.loadCart(ctx, logger, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.view(ctx, logger, cart)
}

// AddLine добавляет товар; повторное добавление увеличивает количество
func (s *cartService) AddLine(ctx context.Context, actor authz.Actor, productID int64, qty int) (*CartView, error) {
	const op = "service.CartService.AddLine"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID), slog.Int64("productID", productID))

	if err := authz.Authenticated(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	product, err := s.catalogRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			logger.Warn("product not found")
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}

	cart, err := s.loadCart(ctx, logger, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := pricing.AddLine(cart, product, qty); err != nil {
		logger.Warn("quantity rejected", slog.Int("quantity", qty), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	line := findLine(cart, productID)
	if err := s.cartRepo.SaveLine(ctx, actor.UserID, productID, line.Quantity); err != nil {
		logger.Error("failed to save cart line", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	s.invalidate(ctx, logger, actor.UserID)

	logger.Info("cart line added", slog.Int("quantity", line.Quantity))
	return s.view(ctx, logger, cart)
}

// SetQuantity выставляет точное количество, qty <= 0 удаляет строку
func (s *cartService) SetQuantity(ctx context.Context, actor authz.Actor, productID int64, qty int) (*CartView, error) {
	const op = "service.CartService.SetQuantity"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID), slog.Int64("productID", productID))

	if err := authz.Authenticated(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cart, err := s.loadCart(ctx, logger, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := pricing.SetQuantity(cart, productID, qty); err != nil {
		logger.Warn("quantity rejected", slog.Int("quantity", qty), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if line := findLine(cart, productID); line != nil {
		err = s.cartRepo.SaveLine(ctx, actor.UserID, productID, line.Quantity)
	} else {
		err = s.cartRepo.DeleteLine(ctx, actor.UserID, productID)
	}
	if err != nil {
		logger.Error("failed to update cart line", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	s.invalidate(ctx, logger, actor.UserID)

	return s.view(ctx, logger, cart)
}

func (s *cartService) RemoveLine(ctx context.Context, actor authz.Actor, productID int64) (*CartView, error) {
	const op = "service.CartService.RemoveLine"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID), slog.Int64("productID", productID))

	if err := authz.Authenticated(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cart, err := s.loadCart(ctx, logger, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pricing.RemoveLine(cart, productID)
	if err := s.cartRepo.DeleteLine(ctx, actor.UserID, productID); err != nil {
		logger.Error("failed to delete cart line", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	s.invalidate(ctx, logger, actor.UserID)

	return s.view(ctx, logger, cart)
}

// ClearCart удаляет все строки и снимает купон
func (s *cartService) ClearCart(ctx context.Context, actor authz.Actor) error {
	const op = "service.CartService.ClearCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID))

	if err := authz.Authenticated(actor); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cartRepo.ClearCart(ctx, nil, actor.UserID); err != nil {
		logger.Error("failed to clear cart", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	s.invalidate(ctx, logger, actor.UserID)

	logger.Info("cart cleared")
	return nil
}

// ApplyCoupon применяет купон, заменяя ранее применённый. Код ищется без учёта регистра.
func (s *cartService) ApplyCoupon(ctx context.Context, actor authz.Actor, code string) (*CartView, error) {
	const op = "service.CartService.ApplyCoupon"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID), slog.String("code", code))

	if err := authz.Authenticated(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%s: %w", op, shoperr.ErrInvalidCode)
	}

	coupon, err := s.couponRepo.GetCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrCouponNotFound) {
			logger.Warn("unknown coupon code")
			return nil, fmt.Errorf("%s: %w", op, shoperr.ErrInvalidCode)
		}
		logger.Error("failed to get coupon", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	if !coupon.IsActive {
		logger.Warn("coupon is inactive")
		return nil, fmt.Errorf("%s: %w", op, shoperr.ErrCouponInactive)
	}

	if err := s.cartRepo.SetCoupon(ctx, actor.UserID, &coupon.ID); err != nil {
		logger.Error("failed to apply coupon", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	s.invalidate(ctx, logger, actor.UserID)

	cart, err := s.loadCart(ctx, logger, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("coupon applied", slog.Int64("couponID", coupon.ID))
	return s.view(ctx, logger, cart)
}

func (s *cartService) RemoveCoupon(ctx context.Context, actor authz.Actor) (*CartView, error) {
	const op = "service.CartService.RemoveCoupon"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID))

	if err := authz.Authenticated(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cartRepo.SetCoupon(ctx, actor.UserID, nil); err != nil {
		logger.Error("failed to remove coupon", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	s.invalidate(ctx, logger, actor.UserID)

	cart, err := s.loadCart(ctx, logger, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.view(ctx, logger, cart)
}

// loadCart читает корзину сначала из кэша, потом из БД. Ошибки кэша не фатальны.
func (s *cartService) loadCart(ctx context.Context, logger *slog.Logger, userID int64) (*models.Cart, error) {
	cart, err := s.cartCache.Get(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Warn("cart cache unavailable", slog.Any("error", err))
	}

	cart, err = s.cartRepo.GetCart(ctx, userID)
	if err != nil {
		logger.Error("failed to get cart", slog.Any("error", err))
		return nil, shoperr.Unavailable(err)
	}
	if err := s.cartCache.Set(ctx, cart); err != nil {
		logger.Warn("failed to cache cart", slog.Any("error", err))
	}
	return cart, nil
}

func (s *cartService) invalidate(ctx context.Context, logger *slog.Logger, userID int64) {
	if err := s.cartCache.Delete(ctx, userID); err != nil {
		logger.Warn("failed to invalidate cart cache", slog.Any("error", err))
	}
}

// view считает стоимость по текущему состоянию купона: удалённый купон не даёт скидки,
// деактивированный остаётся в корзине, но тоже не даёт скидки
func (s *cartService) view(ctx context.Context, logger *slog.Logger, cart *models.Cart) (*CartView, error) {
	coupon, err := appliedCoupon(ctx, s.couponRepo, cart)
	if err != nil {
		logger.Error("failed to get applied coupon", slog.Any("error", err))
		return nil, shoperr.Unavailable(err)
	}

	lines := cart.Lines
	if lines == nil {
		lines = []models.CartLine{}
	}
	return &CartView{
		Lines:   lines,
		Coupon:  coupon,
		Summary: pricing.Summarize(cart, coupon, s.taxRate),
	}, nil
}

// appliedCoupon возвращает купон корзины или nil, если купона нет или он уже удалён
func appliedCoupon(ctx context.Context, repo storage.CouponStorage, cart *models.Cart) (*models.Coupon, error) {
	if cart.CouponID == nil {
		return nil, nil
	}
	coupon, err := repo.GetCouponByID(ctx, *cart.CouponID)
	if err != nil {
		if errors.Is(err, storage.ErrCouponNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return coupon, nil
}

func findLine(cart *models.Cart, productID int64) *models.CartLine {
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			return &cart.Lines[i]
		}
	}
	return nil
}
