package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/linemk/luxe-market/internal/authz"
	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
	"github.com/linemk/luxe-market/internal/events"
	"github.com/linemk/luxe-market/internal/storage"
)

// OrderService - просмотр заказов и смена их статуса
type OrderService interface {
	Get(ctx context.Context, actor authz.Actor, orderID string) (*models.Order, error)
	ListMine(ctx context.Context, actor authz.Actor) ([]*models.Order, error)
	ListForStore(ctx context.Context, actor authz.Actor, storeID int64) ([]*models.Order, error)
	// Cancel - отмена покупателем своего заказа, только пока он Pending.
	Cancel(ctx context.Context, actor authz.Actor, orderID string) (*models.Order, error)
	// UpdateStatus - смена статуса владельцем магазина или администратором.
	UpdateStatus(ctx context.Context, actor authz.Actor, orderID string, status models.OrderStatus) (*models.Order, error)
}

type orderService struct {
	log         *slog.Logger
	orderRepo   storage.OrderStorage
	catalogRepo storage.CatalogStorage
	publisher   events.OrderPublisher
}

func NewOrderService(log *slog.Logger, orderRepo storage.OrderStorage, catalogRepo storage.CatalogStorage, publisher events.OrderPublisher) OrderService {
	return &orderService{
		log:         log,
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		publisher:   publisher,
	}
}

func (s *orderService) Get(ctx context.Context, actor authz.Actor, orderID string) (*models.Order, error) {
	const op = "service.OrderService.Get"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID), slog.String("orderID", orderID))

	if err := authz.Authenticated(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order, err := s.getOrder(ctx, logger, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order.UserID == actor.UserID {
		return order, nil
	}

	store, err := s.getStore(ctx, logger, order.StoreID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := authz.ViewOrder(actor, order, store); err != nil {
		logger.Warn("order access denied")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

func (s *orderService) ListMine(ctx context.Context, actor authz.Actor) ([]*models.Order, error) {
	const op = "service.OrderService.ListMine"

	if err := authz.Authenticated(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, actor.UserID)
	if err != nil {
		s.log.Error("failed to get orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return orders, nil
}

func (s *orderService) ListForStore(ctx context.Context, actor authz.Actor, storeID int64) ([]*models.Order, error) {
	const op = "service.OrderService.ListForStore"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID), slog.Int64("storeID", storeID))

	if err := authz.Authenticated(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	store, err := s.getStore(ctx, logger, storeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := authz.ManageStore(actor, store); err != nil {
		logger.Warn("store orders access denied")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders, err := s.orderRepo.GetOrdersByStoreID(ctx, storeID)
	if err != nil {
		logger.Error("failed to get store orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return orders, nil
}

func (s *orderService) Cancel(ctx context.Context, actor authz.Actor, orderID string) (*models.Order, error) {
	const op = "service.OrderService.Cancel"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID), slog.String("orderID", orderID))

	if err := authz.Authenticated(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order, err := s.getOrder(ctx, logger, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := authz.OwnOrder(actor, order); err != nil {
		logger.Warn("cancel denied")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// покупатель отменяет только необработанный заказ; дальше - через магазин
	if order.Status != models.StatusPending {
		logger.Warn("order cannot be cancelled", slog.String("status", string(order.Status)))
		return nil, fmt.Errorf("%s: %s -> %s: %w", op, order.Status, models.StatusCancelled, shoperr.ErrInvalidTransition)
	}

	if err := s.transition(ctx, logger, order, models.StatusCancelled); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, actor authz.Actor, orderID string, status models.OrderStatus) (*models.Order, error) {
	const op = "service.OrderService.UpdateStatus"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("userID", actor.UserID),
		slog.String("orderID", orderID),
		slog.String("status", string(status)),
	)

	if err := authz.Authenticated(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%s: %w", op, shoperr.Invalid("unknown order status"))
	}

	order, err := s.getOrder(ctx, logger, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	store, err := s.getStore(ctx, logger, order.StoreID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := authz.ManageStore(actor, store); err != nil {
		logger.Warn("status update denied")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.transition(ctx, logger, order, status); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

// transition проверяет переход по графу и сохраняет его условно от текущего статуса:
// если статус успели поменять параллельно, переход отклоняется
func (s *orderService) transition(ctx context.Context, logger *slog.Logger, order *models.Order, to models.OrderStatus) error {
	from := order.Status
	if !from.CanTransitionTo(to) {
		logger.Warn("invalid status transition", slog.String("from", string(from)), slog.String("to", string(to)))
		return fmt.Errorf("%s -> %s: %w", from, to, shoperr.ErrInvalidTransition)
	}

	if err := s.orderRepo.UpdateStatus(ctx, order.ID, from, to); err != nil {
		if errors.Is(err, storage.ErrStatusChanged) {
			logger.Warn("order status changed concurrently")
			return fmt.Errorf("%s -> %s: %w", from, to, shoperr.ErrInvalidTransition)
		}
		logger.Error("failed to update order status", slog.Any("error", err))
		return shoperr.Unavailable(err)
	}
	order.Status = to

	if err := s.publisher.PublishOrderStatusChanged(ctx, order, from); err != nil {
		logger.Error("failed to publish status change", slog.Any("error", err))
	}
	logger.Info("order status changed", slog.String("from", string(from)), slog.String("to", string(to)))
	return nil
}

func (s *orderService) getOrder(ctx context.Context, logger *slog.Logger, id string) (*models.Order, error) {
	// id заказов - uuid, остальное postgres отверг бы ошибкой синтаксиса
	if _, err := uuid.Parse(id); err != nil {
		logger.Warn("malformed order id")
		return nil, storage.ErrOrderNotFound
	}
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			logger.Warn("order not found")
			return nil, err
		}
		logger.Error("failed to get order", slog.Any("error", err))
		return nil, shoperr.Unavailable(err)
	}
	return order, nil
}

func (s *orderService) getStore(ctx context.Context, logger *slog.Logger, id int64) (*models.Store, error) {
	store, err := s.catalogRepo.GetStoreByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrStoreNotFound) {
			logger.Warn("store not found", slog.Int64("storeID", id))
			return nil, err
		}
		logger.Error("failed to get store", slog.Any("error", err))
		return nil, shoperr.Unavailable(err)
	}
	return store, nil
}
