package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
)

var (
	ErrCouponNotFound = fmt.Errorf("coupon %w", shoperr.ErrNotFound)
	ErrCouponExists   = fmt.Errorf("a coupon with this code already exists: %w", shoperr.ErrValidation)
)

// CouponStorage - реестр купонов
type CouponStorage interface {
	GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	GetCouponByID(ctx context.Context, id int64) (*models.Coupon, error)
	ListCoupons(ctx context.Context) ([]*models.Coupon, error)
	CreateCoupon(ctx context.Context, c *models.Coupon) (int64, error)
	UpdateCoupon(ctx context.Context, c *models.Coupon) error
	DeleteCoupon(ctx context.Context, id int64) error
}

type couponRepository struct {
	db *sql.DB
}

func NewCouponRepository(db *sql.DB) CouponStorage {
	return &couponRepository{db: db}
}

const couponColumns = "id, code, discount_type, discount_value, is_active"

func scanCoupon(row interface{ Scan(dest ...any) error }) (*models.Coupon, error) {
	c := &models.Coupon{}
	if err := row.Scan(&c.ID, &c.Code, &c.Kind, &c.Value, &c.IsActive); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCouponByCode ищет купон без учёта регистра: коды хранятся в верхнем регистре
func (r *couponRepository) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+couponColumns+" FROM coupons WHERE code = $1", strings.ToUpper(strings.TrimSpace(code)))
	c, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *couponRepository) GetCouponByID(ctx context.Context, id int64) (*models.Coupon, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+couponColumns+" FROM coupons WHERE id = $1", id)
	c, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *couponRepository) ListCoupons(ctx context.Context) ([]*models.Coupon, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+couponColumns+" FROM coupons ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	var coupons []*models.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *couponRepository) CreateCoupon(ctx context.Context, c *models.Coupon) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO coupons (code, discount_type, discount_value, is_active) VALUES ($1, $2, $3, $4) RETURNING id",
		c.Code, c.Kind, c.Value, c.IsActive,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrCouponExists
		}
		return 0, fmt.Errorf("failed to create coupon: %w", err)
	}
	return id, nil
}

func (r *couponRepository) UpdateCoupon(ctx context.Context, c *models.Coupon) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE coupons SET code = $1, discount_type = $2, discount_value = $3, is_active = $4 WHERE id = $5",
		c.Code, c.Kind, c.Value, c.IsActive, c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCouponExists
		}
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	return expectOneRow(res, ErrCouponNotFound)
}

// DeleteCoupon удаляет купон; корзины, где он применён, теряют ссылку через ON DELETE SET NULL
func (r *couponRepository) DeleteCoupon(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM coupons WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	return expectOneRow(res, ErrCouponNotFound)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

func expectOneRow(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
