package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
)

var (
	ErrProductNotFound = fmt.Errorf("product %w", shoperr.ErrNotFound)
	ErrStoreNotFound   = fmt.Errorf("store %w", shoperr.ErrNotFound)
)

// CatalogStorage описывает методы для работы с магазинами и товарами.
type CatalogStorage interface {
	// CreateStore создаёт магазин и возвращает его id.
	CreateStore(ctx context.Context, store *models.Store) (int64, error)
	// GetStoreByID возвращает магазин по id.
	GetStoreByID(ctx context.Context, id int64) (*models.Store, error)
	// CreateProduct добавляет товар в каталог магазина.
	CreateProduct(ctx context.Context, product *models.Product) (int64, error)
	// GetProductByID возвращает товар по id.
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	// ListProducts возвращает товары; storeID == 0 - все магазины.
	ListProducts(ctx context.Context, storeID int64) ([]*models.Product, error)
	// UpdateStore меняет название, описание и логотип магазина.
	UpdateStore(ctx context.Context, store *models.Store) error
	// UpdateProduct меняет карточку товара. Магазин товара не меняется.
	UpdateProduct(ctx context.Context, product *models.Product) error
	// DeleteProduct удаляет товар, строки корзин с ним удаляются каскадом.
	DeleteProduct(ctx context.Context, id int64) error
	// CartHolders возвращает пользователей, у которых товар лежит в корзине.
	CartHolders(ctx context.Context, productID int64) ([]int64, error)
}

// catalogRepository - конкретная реализация CatalogStorage.
type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository создаёт новый репозиторий каталога.
func NewCatalogRepository(db *sql.DB) CatalogStorage {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreateStore(ctx context.Context, store *models.Store) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO stores (name, description, owner_id, logo_url) VALUES ($1, $2, $3, $4) RETURNING id",
		store.Name, store.Description, store.OwnerID, store.LogoURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create store: %w", err)
	}
	return id, nil
}

func (r *catalogRepository) GetStoreByID(ctx context.Context, id int64) (*models.Store, error) {
	store := &models.Store{}
	row := r.db.QueryRowContext(ctx, "SELECT id, name, description, owner_id, logo_url FROM stores WHERE id = $1", id)
	if err := row.Scan(&store.ID, &store.Name, &store.Description, &store.OwnerID, &store.LogoURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return store, nil
}

func (r *catalogRepository) CreateProduct(ctx context.Context, p *models.Product) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (name, description, price, image_urls, category, store_id)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		p.Name, p.Description, p.Price, pq.Array(p.ImageURLs), p.Category, p.StoreID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create product: %w", err)
	}
	return id, nil
}

const productColumns = "id, name, description, price, image_urls, category, store_id"

// GetProductByID ищет товар по id в таблице products.
func (r *catalogRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p := &models.Product{}
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, pq.Array(&p.ImageURLs), &p.Category, &p.StoreID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *catalogRepository) ListProducts(ctx context.Context, storeID int64) ([]*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE ($1 = 0 OR store_id = $1) ORDER BY id"
	rows, err := r.db.QueryContext(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p := &models.Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, pq.Array(&p.ImageURLs), &p.Category, &p.StoreID); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *catalogRepository) UpdateStore(ctx context.Context, store *models.Store) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE stores SET name = $1, description = $2, logo_url = $3 WHERE id = $4",
		store.Name, store.Description, store.LogoURL, store.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update store: %w", err)
	}
	return expectOneRow(res, ErrStoreNotFound)
}

func (r *catalogRepository) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = $1, description = $2, price = $3, image_urls = $4, category = $5
		 WHERE id = $6`,
		p.Name, p.Description, p.Price, pq.Array(p.ImageURLs), p.Category, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return expectOneRow(res, ErrProductNotFound)
}

// DeleteProduct не трогает order_items: позиции заказов хранят копию товара
func (r *catalogRepository) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return expectOneRow(res, ErrProductNotFound)
}

func (r *catalogRepository) CartHolders(ctx context.Context, productID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT user_id FROM cart_lines WHERE product_id = $1", productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart holders: %w", err)
	}
	defer rows.Close()

	var users []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan cart holder: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}
