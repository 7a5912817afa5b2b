package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/linemk/luxe-market/internal/domain/models"
)

// CartStorage хранит корзины: строки и применённый купон. Цена и название строки
// берутся из каталога при чтении, в заказ попадает снимок на момент оформления.
type CartStorage interface {
	// GetCart возвращает корзину пользователя; у нового пользователя она пустая.
	GetCart(ctx context.Context, userID int64) (*models.Cart, error)
	// GetCartTx читает корзину внутри транзакции, блокируя её строки.
	GetCartTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error)
	// SaveLine записывает точное количество товара в корзине.
	SaveLine(ctx context.Context, userID, productID int64, quantity int) error
	// DeleteLine удаляет строку, отсутствие строки не ошибка.
	DeleteLine(ctx context.Context, userID, productID int64) error
	// SetCoupon применяет купон к корзине, nil снимает его.
	SetCoupon(ctx context.Context, userID int64, couponID *int64) error
	// ClearCart удаляет строки и снимает купон; tx == nil - вне транзакции.
	ClearCart(ctx context.Context, tx *sql.Tx, userID int64) error
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const cartLinesQuery = `
		SELECT cl.product_id, p.name, p.image_urls, p.price, cl.quantity, p.store_id
		FROM cart_lines cl
		JOIN products p ON p.id = cl.product_id
		WHERE cl.user_id = $1
		ORDER BY cl.id`

const cartCouponQuery = "SELECT coupon_id FROM carts WHERE user_id = $1"

func (r *cartRepository) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	return readCart(ctx, r.db, userID, cartLinesQuery)
}

func (r *cartRepository) GetCartTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error) {
	return readCart(ctx, tx, userID, cartLinesQuery+" FOR UPDATE OF cl")
}

func readCart(ctx context.Context, q querier, userID int64, linesQuery string) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID}

	rows, err := q.QueryContext(ctx, linesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line   models.CartLine
			images []string
		)
		if err := rows.Scan(&line.ProductID, &line.Name, pq.Array(&images), &line.Price, &line.Quantity, &line.StoreID); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		if len(images) > 0 {
			line.ImageURL = images[0]
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var couponID sql.NullInt64
	if err := q.QueryRowContext(ctx, cartCouponQuery, userID).Scan(&couponID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query applied coupon: %w", err)
	}
	if couponID.Valid {
		id := couponID.Int64
		cart.CouponID = &id
	}
	return cart, nil
}

func (r *cartRepository) SaveLine(ctx context.Context, userID, productID int64, quantity int) error {
	query := `INSERT INTO cart_lines (user_id, product_id, quantity) VALUES ($1, $2, $3)
	          ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity`
	if _, err := r.db.ExecContext(ctx, query, userID, productID, quantity); err != nil {
		return fmt.Errorf("failed to save cart line: %w", err)
	}
	return nil
}

func (r *cartRepository) DeleteLine(ctx context.Context, userID, productID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2", userID, productID); err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	return nil
}

func (r *cartRepository) SetCoupon(ctx context.Context, userID int64, couponID *int64) error {
	query := `INSERT INTO carts (user_id, coupon_id, updated_at) VALUES ($1, $2, NOW())
	          ON CONFLICT (user_id) DO UPDATE SET coupon_id = EXCLUDED.coupon_id, updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, userID, couponID); err != nil {
		return fmt.Errorf("failed to set cart coupon: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *cartRepository) ClearCart(ctx context.Context, tx *sql.Tx, userID int64) error {
	var ex execer = r.db
	if tx != nil {
		ex = tx
	}
	if _, err := ex.ExecContext(ctx, "DELETE FROM cart_lines WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("failed to delete cart lines: %w", err)
	}
	if _, err := ex.ExecContext(ctx, "UPDATE carts SET coupon_id = NULL, updated_at = NOW() WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("failed to clear cart coupon: %w", err)
	}
	return nil
}
