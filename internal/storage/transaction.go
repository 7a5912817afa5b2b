package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
)

var ErrWalletTxNotFound = fmt.Errorf("wallet transaction %w", shoperr.ErrNotFound)

// WalletTransactionStorage описывает методы для работы с операциями кошелька.
type WalletTransactionStorage interface {
	// CreateTransaction создает запись об операции и возвращает её id.
	CreateTransaction(ctx context.Context, tx *sql.Tx, wt *models.WalletTransaction) (int64, error)
	// CreatePendingTopUp создаёт заявку на пополнение вне транзакции.
	CreatePendingTopUp(ctx context.Context, userID int64, amount decimal.Decimal) (int64, error)
	// LockTransactionTx читает операцию с блокировкой строки.
	LockTransactionTx(ctx context.Context, tx *sql.Tx, id int64) (*models.WalletTransaction, error)
	// UpdateStatus меняет статус операции в транзакции.
	UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status models.WalletTxStatus) error
	// GetTransactionsByUserID возвращает список операций для указанного пользователя.
	GetTransactionsByUserID(ctx context.Context, userID int64) ([]*models.WalletTransaction, error)
}

type walletTransactionRepository struct {
	db *sql.DB
}

func NewWalletTransactionRepository(db *sql.DB) WalletTransactionStorage {
	return &walletTransactionRepository{db: db}
}

const walletTxInsert = `INSERT INTO wallet_transactions (user_id, amount, kind, status, created_at)
	          VALUES ($1, $2, $3, $4, NOW()) RETURNING id`

func (r *walletTransactionRepository) CreateTransaction(ctx context.Context, tx *sql.Tx, wt *models.WalletTransaction) (int64, error) {
	var id int64
	if err := tx.QueryRowContext(ctx, walletTxInsert, wt.UserID, wt.Amount, wt.Kind, wt.Status).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create wallet transaction: %w", err)
	}
	return id, nil
}

func (r *walletTransactionRepository) CreatePendingTopUp(ctx context.Context, userID int64, amount decimal.Decimal) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, walletTxInsert, userID, amount, models.WalletTopUp, models.WalletTxPending).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create wallet top-up: %w", err)
	}
	return id, nil
}

func (r *walletTransactionRepository) LockTransactionTx(ctx context.Context, tx *sql.Tx, id int64) (*models.WalletTransaction, error) {
	wt := &models.WalletTransaction{}
	row := tx.QueryRowContext(ctx,
		"SELECT id, user_id, amount, kind, status, created_at FROM wallet_transactions WHERE id = $1 FOR UPDATE", id)
	if err := row.Scan(&wt.ID, &wt.UserID, &wt.Amount, &wt.Kind, &wt.Status, &wt.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletTxNotFound
		}
		return nil, err
	}
	return wt, nil
}

func (r *walletTransactionRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status models.WalletTxStatus) error {
	res, err := tx.ExecContext(ctx, "UPDATE wallet_transactions SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("failed to update wallet transaction: %w", err)
	}
	return expectOneRow(res, ErrWalletTxNotFound)
}

func (r *walletTransactionRepository) GetTransactionsByUserID(ctx context.Context, userID int64) ([]*models.WalletTransaction, error) {
	query := `
		SELECT id, user_id, amount, kind, status, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*models.WalletTransaction
	for rows.Next() {
		wt := &models.WalletTransaction{}
		if err := rows.Scan(&wt.ID, &wt.UserID, &wt.Amount, &wt.Kind, &wt.Status, &wt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		transactions = append(transactions, wt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}
