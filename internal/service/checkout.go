package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/linemk/luxe-market/internal/authz"
	"github.com/linemk/luxe-market/internal/cache"
	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/pricing"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
	"github.com/linemk/luxe-market/internal/events"
	"github.com/linemk/luxe-market/internal/storage"
)

// PlaceOrderRequest - данные оформления заказа
type PlaceOrderRequest struct {
	Shipping      models.ShippingInfo
	PaymentMethod models.PaymentMethod
	// SaveShipping запоминает адрес в профиле пользователя
	SaveShipping bool
}

// CheckoutResult - созданные заказы (по одному на магазин) и итог по всей корзине
type CheckoutResult struct {
	Orders  []*models.Order `json:"orders"`
	Summary pricing.Summary `json:"summary"`
}

type CheckoutService interface {
	PlaceOrder(ctx context.Context, actor authz.Actor, req PlaceOrderRequest) (*CheckoutResult, error)
}

type checkoutService struct {
	log          *slog.Logger
	db           *sql.DB
	userRepo     storage.UserStorage
	cartRepo     storage.CartStorage
	couponRepo   storage.CouponStorage
	orderRepo    storage.OrderStorage
	walletTxRepo storage.WalletTransactionStorage
	cartCache    cache.CartCache
	publisher    events.OrderPublisher
	taxRate      decimal.Decimal
	now          func() time.Time
}

func NewCheckoutService(
	log *slog.Logger,
	db *sql.DB,
	userRepo storage.UserStorage,
	cartRepo storage.CartStorage,
	couponRepo storage.CouponStorage,
	orderRepo storage.OrderStorage,
	walletTxRepo storage.WalletTransactionStorage,
	cartCache cache.CartCache,
	publisher events.OrderPublisher,
	taxRate decimal.Decimal,
) CheckoutService {
	return &checkoutService{
		log:          log,
		db:           db,
		userRepo:     userRepo,
		cartRepo:     cartRepo,
		couponRepo:   couponRepo,
		orderRepo:    orderRepo,
		walletTxRepo: walletTxRepo,
		cartCache:    cartCache,
		publisher:    publisher,
		taxRate:      taxRate,
		now:          time.Now,
	}
}

// PlaceOrder оформляет корзину: делит её на заказы по магазинам, при оплате из кошелька
// списывает итог и очищает корзину. Всё в одной транзакции, строка пользователя
// заблокирована до коммита. Если что-то идет не так, транзакция откатывается и ничего не меняется.
func (s *checkoutService) PlaceOrder(ctx context.Context, actor authz.Actor, req PlaceOrderRequest) (*CheckoutResult, error) {
	const op = "service.CheckoutService.PlaceOrder"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("userID", actor.UserID),
		slog.String("paymentMethod", string(req.PaymentMethod)),
	)

	if err := authz.Authenticated(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !req.PaymentMethod.IsValid() {
		return nil, fmt.Errorf("%s: %w", op, shoperr.Invalid("unknown payment method"))
	}
	if err := validate.Struct(req.Shipping); err != nil {
		logger.Warn("invalid shipping info", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Invalid("shipping info is incomplete"))
	}

	logger.Info("starting checkout transaction")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, shoperr.Unavailable(err))
	}
	defer rollback(logger, tx)

	user, err := s.userRepo.LockUserByIDTx(ctx, tx, actor.UserID)
	if err != nil {
		logger.Error("failed to lock user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to lock user: %w", op, err)
	}

	cart, err := s.cartRepo.GetCartTx(ctx, tx, actor.UserID)
	if err != nil {
		logger.Error("failed to read cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to read cart: %w", op, shoperr.Unavailable(err))
	}
	if cart.IsEmpty() {
		logger.Warn("cart is empty")
		return nil, fmt.Errorf("%s: %w", op, shoperr.ErrEmptyCart)
	}

	coupon, err := appliedCoupon(ctx, s.couponRepo, cart)
	if err != nil {
		logger.Error("failed to get applied coupon", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get coupon: %w", op, shoperr.Unavailable(err))
	}

	drafts, summary := pricing.Split(cart.Lines, coupon, s.taxRate)

	if req.PaymentMethod == models.PaymentWallet && user.WalletBalance.LessThan(summary.Total) {
		logger.Warn("insufficient funds",
			slog.String("balance", user.WalletBalance.String()),
			slog.String("total", summary.Total.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, shoperr.ErrInsufficientFunds)
	}

	createdAt := s.now().UTC()
	orders := make([]*models.Order, 0, len(drafts))
	for _, d := range drafts {
		order := &models.Order{
			ID:             uuid.NewString(),
			UserID:         actor.UserID,
			StoreID:        d.StoreID,
			Items:          d.Items,
			Subtotal:       d.Subtotal,
			Tax:            d.Tax,
			DiscountAmount: d.Discount,
			CouponCode:     summary.CouponCode,
			Total:          d.Total,
			Status:         models.StatusPending,
			ShippingInfo:   req.Shipping,
			PaymentMethod:  req.PaymentMethod,
			CreatedAt:      createdAt,
		}
		if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
			logger.Error("failed to create order", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to create order: %w", op, shoperr.Unavailable(err))
		}
		orders = append(orders, order)
	}

	if req.PaymentMethod == models.PaymentWallet {
		newBalance := user.WalletBalance.Sub(summary.Total)
		if err := s.userRepo.UpdateWalletBalance(ctx, tx, user.ID, newBalance); err != nil {
			logger.Error("failed to update wallet balance", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to update wallet balance: %w", op, shoperr.Unavailable(err))
		}
		_, err := s.walletTxRepo.CreateTransaction(ctx, tx, &models.WalletTransaction{
			UserID: user.ID,
			Amount: summary.Total,
			Kind:   models.WalletPurchase,
			Status: models.WalletTxApproved,
		})
		if err != nil {
			logger.Error("failed to record wallet purchase", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to record wallet purchase: %w", op, shoperr.Unavailable(err))
		}
	}

	if req.SaveShipping {
		if err := s.userRepo.SaveShippingInfo(ctx, tx, user.ID, req.Shipping); err != nil {
			logger.Error("failed to save shipping info", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to save shipping info: %w", op, shoperr.Unavailable(err))
		}
	}

	if err := s.cartRepo.ClearCart(ctx, tx, user.ID); err != nil {
		logger.Error("failed to clear cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to clear cart: %w", op, shoperr.Unavailable(err))
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, shoperr.Unavailable(err))
	}

	// заказ уже создан: ошибки кэша и брокера только логируем
	if err := s.cartCache.Delete(ctx, user.ID); err != nil {
		logger.Warn("failed to invalidate cart cache", slog.Any("error", err))
	}
	for _, o := range orders {
		if err := s.publisher.PublishOrderPlaced(ctx, o); err != nil {
			logger.Error("failed to publish order placed", slog.String("orderID", o.ID), slog.Any("error", err))
		}
	}

	logger.Info("checkout completed",
		slog.Int("orders", len(orders)),
		slog.String("total", summary.Total.String()),
	)
	return &CheckoutResult{Orders: orders, Summary: summary}, nil
}
