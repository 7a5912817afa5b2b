package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
)

var (
	ErrUserNotFound = fmt.Errorf("user %w", shoperr.ErrNotFound)
	ErrUserExists   = fmt.Errorf("user already exists: %w", shoperr.ErrValidation)
)

// код ошибки postgres при FOR UPDATE NOWAIT на занятой строке
const pqLockNotAvailable = "55P03"

// код нарушения уникальности
const pqUniqueViolation = "23505"

type UserStorage interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	LockUserByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.User, error)
	UpdateWalletBalance(ctx context.Context, tx *sql.Tx, id int64, newBalance decimal.Decimal) error
	SaveShippingInfo(ctx context.Context, tx *sql.Tx, id int64, info models.ShippingInfo) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

const userColumns = "id, username, pass_hash, role, wallet_balance, saved_shipping"

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var shipping []byte
	if err := row.Scan(&user.ID, &user.Email, &user.PassHash, &user.Role, &user.WalletBalance, &shipping); err != nil {
		return nil, err
	}
	if len(shipping) > 0 {
		user.SavedShipping = &models.ShippingInfo{}
		if err := json.Unmarshal(shipping, user.SavedShipping); err != nil {
			return nil, fmt.Errorf("failed to decode saved shipping: %w", err)
		}
	}
	return user, nil
}

// получение уже существующего пользователя
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO users (username, pass_hash, role, wallet_balance) VALUES ($1, $2, $3, $4) RETURNING id",
		user.Email, user.PassHash, user.Role, user.WalletBalance,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	user.ID = id
	return user, nil
}

// LockUserByIDTx блокирует строку пользователя до конца транзакции, все операции с кошельком идут через неё
func (r *userRepository) LockUserByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.User, error) {
	row := tx.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1 FOR UPDATE NOWAIT", id)
	user, err := scanUser(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqLockNotAvailable {
			return nil, shoperr.Unavailable(fmt.Errorf("resource is locked, please try again: %w", err))
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) UpdateWalletBalance(ctx context.Context, tx *sql.Tx, id int64, newBalance decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, "UPDATE users SET wallet_balance = $1 WHERE id = $2", newBalance, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) SaveShippingInfo(ctx context.Context, tx *sql.Tx, id int64, info models.ShippingInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode shipping info: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE users SET saved_shipping = $1 WHERE id = $2", data, id); err != nil {
		return fmt.Errorf("failed to save shipping info: %w", err)
	}
	return nil
}
