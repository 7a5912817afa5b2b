package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
)

var (
	ErrOrderNotFound = fmt.Errorf("order %w", shoperr.ErrNotFound)
	// ErrStatusChanged - статус заказа изменился между чтением и обновлением
	ErrStatusChanged = errors.New("order status changed concurrently")
)

// OrderStorage описывает методы для работы с заказами. Заказы только добавляются,
// после создания меняется лишь статус.
type OrderStorage interface {
	// CreateOrder вставляет заказ и его позиции с использованием транзакции.
	CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) error
	// GetOrderByID возвращает заказ вместе с позициями.
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	// GetOrdersByUserID возвращает заказы пользователя, новые первыми.
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	// GetOrdersByStoreID возвращает заказы магазина, новые первыми.
	GetOrdersByStoreID(ctx context.Context, storeID int64) ([]*models.Order, error)
	// UpdateStatus меняет статус, только если текущий статус равен from.
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error
}

// orderRepository - конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

// CreateOrder вставляет новый заказ в таблицу orders.
func (r *orderRepository) CreateOrder(ctx context.Context, tx *sql.Tx, o *models.Order) error {
	shipping, err := json.Marshal(o.ShippingInfo)
	if err != nil {
		return fmt.Errorf("failed to encode shipping info: %w", err)
	}

	var couponCode sql.NullString
	if o.CouponCode != "" {
		couponCode = sql.NullString{String: o.CouponCode, Valid: true}
	}

	query := `INSERT INTO orders (id, user_id, store_id, subtotal, tax, discount_amount, coupon_code, total, status, shipping_info, payment_method, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = tx.ExecContext(ctx, query,
		o.ID, o.UserID, o.StoreID, o.Subtotal, o.Tax, o.DiscountAmount, couponCode, o.Total,
		o.Status, shipping, o.PaymentMethod, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `INSERT INTO order_items (order_id, product_id, name, image_url, price, quantity)
	              VALUES ($1, $2, $3, $4, $5, $6)`
	for _, it := range o.Items {
		if _, err := tx.ExecContext(ctx, itemQuery, o.ID, it.ProductID, it.Name, it.ImageURL, it.Price, it.Quantity); err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return nil
}

const orderColumns = `id, user_id, store_id, subtotal, tax, discount_amount, coupon_code, total, status, shipping_info, payment_method, created_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (*models.Order, error) {
	o := &models.Order{}
	var (
		couponCode sql.NullString
		shipping   []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &o.StoreID, &o.Subtotal, &o.Tax, &o.DiscountAmount, &couponCode,
		&o.Total, &o.Status, &shipping, &o.PaymentMethod, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	o.CouponCode = couponCode.String
	if err := json.Unmarshal(shipping, &o.ShippingInfo); err != nil {
		return nil, fmt.Errorf("failed to decode shipping info: %w", err)
	}
	return o, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if err := r.attachItems(ctx, []*models.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	return r.listOrders(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
}

func (r *orderRepository) GetOrdersByStoreID(ctx context.Context, storeID int64) ([]*models.Order, error) {
	return r.listOrders(ctx, "SELECT "+orderColumns+" FROM orders WHERE store_id = $1 ORDER BY created_at DESC", storeID)
}

func (r *orderRepository) listOrders(ctx context.Context, query string, arg int64) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems одним запросом подтягивает позиции для набора заказов
func (r *orderRepository) attachItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, 0, len(orders))
	byID := make(map[string]*models.Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		byID[o.ID] = o
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, product_id, name, image_url, price, quantity
		 FROM order_items WHERE order_id = ANY($1) ORDER BY id`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			it      models.OrderItem
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.ImageURL, &it.Price, &it.Quantity); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE orders SET status = $1 WHERE id = $2 AND status = $3", to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return expectOneRow(res, ErrStatusChanged)
}
