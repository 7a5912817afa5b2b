package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/luxe-market/internal/authz"
	"github.com/linemk/luxe-market/internal/cache"
	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
	"github.com/linemk/luxe-market/internal/storage"
)

// CatalogService - магазины и товары.
type CatalogService interface {
	CreateStore(ctx context.Context, actor authz.Actor, store *models.Store) (*models.Store, error)
	CreateProduct(ctx context.Context, actor authz.Actor, product *models.Product) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	// ListProducts возвращает товары магазина, storeID == 0 - весь каталог.
	ListProducts(ctx context.Context, storeID int64) ([]*models.Product, error)
	UpdateStore(ctx context.Context, actor authz.Actor, store *models.Store) (*models.Store, error)
	UpdateProduct(ctx context.Context, actor authz.Actor, product *models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, actor authz.Actor, id int64) error
}

type catalogService struct {
	log         *slog.Logger
	catalogRepo storage.CatalogStorage
	cartCache   cache.CartCache
}

func NewCatalogService(log *slog.Logger, catalogRepo storage.CatalogStorage, cartCache cache.CartCache) CatalogService {
	return &catalogService{
		log:         log,
		catalogRepo: catalogRepo,
		cartCache:   cartCache,
	}
}

// CreateStore открывает магазин. Реселлер всегда становится владельцем,
// администратор может указать владельца явно.
func (s *catalogService) CreateStore(ctx context.Context, actor authz.Actor, store *models.Store) (*models.Store, error) {
	const op = "service.CatalogService.CreateStore"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID))

	if err := authz.CreateStore(actor); err != nil {
		logger.Warn("store creation denied", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	store.Name = strings.TrimSpace(store.Name)
	if store.Name == "" {
		return nil, fmt.Errorf("%s: %w", op, shoperr.Invalid("store name is required"))
	}
	if !actor.IsAdmin() || store.OwnerID == 0 {
		store.OwnerID = actor.UserID
	}

	id, err := s.catalogRepo.CreateStore(ctx, store)
	if err != nil {
		logger.Error("failed to create store", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	store.ID = id

	logger.Info("store created", slog.Int64("storeID", id))
	return store, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, actor authz.Actor, p *models.Product) (*models.Product, error) {
	const op = "service.CatalogService.CreateProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID), slog.Int64("storeID", p.StoreID))

	if err := authz.Authenticated(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	store, err := s.catalogRepo.GetStoreByID(ctx, p.StoreID)
	if err != nil {
		if errors.Is(err, storage.ErrStoreNotFound) {
			logger.Warn("store not found")
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to get store", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	if err := authz.ManageStore(actor, store); err != nil {
		logger.Warn("product creation denied", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := normalizeProduct(p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.catalogRepo.CreateProduct(ctx, p)
	if err != nil {
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	p.ID = id

	logger.Info("product created", slog.Int64("productID", id))
	return p, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	const op = "service.CatalogService.GetProduct"

	p, err := s.catalogRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.log.Error("failed to get product", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	return p, nil
}

func (s *catalogService) ListProducts(ctx context.Context, storeID int64) ([]*models.Product, error) {
	const op = "service.CatalogService.ListProducts"

	products, err := s.catalogRepo.ListProducts(ctx, storeID)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	if products == nil {
		products = []*models.Product{}
	}
	return products, nil
}

// UpdateStore меняет витрину магазина. Владелец магазина не меняется.
func (s *catalogService) UpdateStore(ctx context.Context, actor authz.Actor, store *models.Store) (*models.Store, error) {
	const op = "service.CatalogService.UpdateStore"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID), slog.Int64("storeID", store.ID))

	if err := authz.Authenticated(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	current, err := s.store(ctx, logger, store.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := authz.ManageStore(actor, current); err != nil {
		logger.Warn("store update denied", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	store.Name = strings.TrimSpace(store.Name)
	if store.Name == "" {
		return nil, fmt.Errorf("%s: %w", op, shoperr.Invalid("store name is required"))
	}
	store.OwnerID = current.OwnerID

	if err := s.catalogRepo.UpdateStore(ctx, store); err != nil {
		if errors.Is(err, storage.ErrStoreNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to update store", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}

	logger.Info("store updated")
	return store, nil
}

// UpdateProduct меняет карточку товара. Корзины видят новую цену сразу,
// уже оформленные заказы хранят свою копию позиции и не меняются.
func (s *catalogService) UpdateProduct(ctx context.Context, actor authz.Actor, p *models.Product) (*models.Product, error) {
	const op = "service.CatalogService.UpdateProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID), slog.Int64("productID", p.ID))

	current, err := s.manageProduct(ctx, logger, actor, p.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.StoreID = current.StoreID
	if err := normalizeProduct(p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.catalogRepo.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to update product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	s.invalidateCarts(ctx, logger, p.ID)

	logger.Info("product updated")
	return p, nil
}

// DeleteProduct удаляет товар из каталога и из всех корзин
func (s *catalogService) DeleteProduct(ctx context.Context, actor authz.Actor, id int64) error {
	const op = "service.CatalogService.DeleteProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID), slog.Int64("productID", id))

	if _, err := s.manageProduct(ctx, logger, actor, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// держателей корзин собираем до удаления: каскад уберёт строки
	holders, err := s.catalogRepo.CartHolders(ctx, id)
	if err != nil {
		logger.Warn("failed to get cart holders", slog.Any("error", err))
	}
	if err := s.catalogRepo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to delete product", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	s.dropCachedCarts(ctx, logger, holders)

	logger.Info("product deleted", slog.Int("carts", len(holders)))
	return nil
}

// manageProduct находит товар и проверяет, что актор управляет его магазином
func (s *catalogService) manageProduct(ctx context.Context, logger *slog.Logger, actor authz.Actor, id int64) (*models.Product, error) {
	if err := authz.Authenticated(actor); err != nil {
		return nil, err
	}
	p, err := s.catalogRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			logger.Warn("product not found")
			return nil, err
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, shoperr.Unavailable(err)
	}
	store, err := s.store(ctx, logger, p.StoreID)
	if err != nil {
		return nil, err
	}
	if err := authz.ManageStore(actor, store); err != nil {
		logger.Warn("product change denied", slog.Any("error", err))
		return nil, err
	}
	return p, nil
}

func (s *catalogService) store(ctx context.Context, logger *slog.Logger, id int64) (*models.Store, error) {
	store, err := s.catalogRepo.GetStoreByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrStoreNotFound) {
			logger.Warn("store not found")
			return nil, err
		}
		logger.Error("failed to get store", slog.Any("error", err))
		return nil, shoperr.Unavailable(err)
	}
	return store, nil
}

func (s *catalogService) invalidateCarts(ctx context.Context, logger *slog.Logger, productID int64) {
	holders, err := s.catalogRepo.CartHolders(ctx, productID)
	if err != nil {
		logger.Warn("failed to get cart holders", slog.Any("error", err))
		return
	}
	s.dropCachedCarts(ctx, logger, holders)
}

// dropCachedCarts сбрасывает кэш корзин. Ошибка кэша не ломает операцию:
// запись в кэше живёт не дольше TTL.
func (s *catalogService) dropCachedCarts(ctx context.Context, logger *slog.Logger, userIDs []int64) {
	for _, id := range userIDs {
		if err := s.cartCache.Delete(ctx, id); err != nil {
			logger.Warn("failed to invalidate cart cache", slog.Int64("cartUserID", id), slog.Any("error", err))
		}
	}
}

func normalizeProduct(p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return shoperr.Invalid("product name is required")
	}
	if !p.Price.IsPositive() {
		return shoperr.Invalid("product price must be positive")
	}
	if p.Price.GreaterThan(models.MaxPrice) {
		return shoperr.Invalid("product price is too large")
	}
	p.Price = p.Price.Round(2)
	return nil
}
