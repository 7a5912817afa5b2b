package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/linemk/luxe-market/internal/authz"
	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
	"github.com/linemk/luxe-market/internal/storage"
)

// ErrTransactionHandled - заявка уже одобрена или отклонена
var ErrTransactionHandled = fmt.Errorf("transaction already handled: %w", shoperr.ErrInvalidTransition)

// WalletService - пополнение кошелька через заявки, которые подтверждает администратор.
type WalletService interface {
	RequestFunds(ctx context.Context, actor authz.Actor, amount decimal.Decimal) (*models.WalletTransaction, error)
	Approve(ctx context.Context, actor authz.Actor, txID int64) (*models.WalletTransaction, error)
	Reject(ctx context.Context, actor authz.Actor, txID int64) (*models.WalletTransaction, error)
}

type walletService struct {
	log          *slog.Logger
	db           *sql.DB
	userRepo     storage.UserStorage
	walletTxRepo storage.WalletTransactionStorage
}

func NewWalletService(log *slog.Logger, db *sql.DB, userRepo storage.UserStorage, walletTxRepo storage.WalletTransactionStorage) WalletService {
	return &walletService{
		log:          log,
		db:           db,
		userRepo:     userRepo,
		walletTxRepo: walletTxRepo,
	}
}

func (s *walletService) RequestFunds(ctx context.Context, actor authz.Actor, amount decimal.Decimal) (*models.WalletTransaction, error) {
	const op = "service.WalletService.RequestFunds"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("userID", actor.UserID),
		slog.String("amount", amount.String()),
	)

	if err := authz.Authenticated(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%s: %w", op, shoperr.Invalid("amount must be positive"))
	}
	amount = amount.Round(2)

	id, err := s.walletTxRepo.CreatePendingTopUp(ctx, actor.UserID, amount)
	if err != nil {
		logger.Error("failed to create top-up request", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}

	logger.Info("top-up requested", slog.Int64("txID", id))
	return &models.WalletTransaction{
		ID:     id,
		UserID: actor.UserID,
		Amount: amount,
		Kind:   models.WalletTopUp,
		Status: models.WalletTxPending,
	}, nil
}

// Approve зачисляет сумму заявки на баланс. Строки заявки и пользователя блокируются,
// поэтому одну заявку нельзя зачислить дважды.
func (s *walletService) Approve(ctx context.Context, actor authz.Actor, txID int64) (*models.WalletTransaction, error) {
	return s.resolve(ctx, actor, txID, models.WalletTxApproved)
}

func (s *walletService) Reject(ctx context.Context, actor authz.Actor, txID int64) (*models.WalletTransaction, error) {
	return s.resolve(ctx, actor, txID, models.WalletTxRejected)
}

func (s *walletService) resolve(ctx context.Context, actor authz.Actor, txID int64, status models.WalletTxStatus) (*models.WalletTransaction, error) {
	const op = "service.WalletService.resolve"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("adminID", actor.UserID),
		slog.Int64("txID", txID),
		slog.String("status", string(status)),
	)

	if err := authz.Admin(actor); err != nil {
		logger.Warn("wallet resolution denied", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, shoperr.Unavailable(err))
	}
	defer rollback(logger, tx)

	wt, err := s.walletTxRepo.LockTransactionTx(ctx, tx, txID)
	if err != nil {
		if errors.Is(err, storage.ErrWalletTxNotFound) {
			logger.Warn("wallet transaction not found")
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to lock wallet transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}
	if wt.Status != models.WalletTxPending {
		logger.Warn("wallet transaction already handled", slog.String("current", string(wt.Status)))
		return nil, fmt.Errorf("%s: %w", op, ErrTransactionHandled)
	}

	if status == models.WalletTxApproved {
		user, err := s.userRepo.LockUserByIDTx(ctx, tx, wt.UserID)
		if err != nil {
			logger.Error("failed to lock user", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to lock user: %w", op, err)
		}
		if err := s.userRepo.UpdateWalletBalance(ctx, tx, user.ID, user.WalletBalance.Add(wt.Amount)); err != nil {
			logger.Error("failed to credit wallet", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to credit wallet: %w", op, shoperr.Unavailable(err))
		}
	}

	if err := s.walletTxRepo.UpdateStatus(ctx, tx, wt.ID, status); err != nil {
		logger.Error("failed to update wallet transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, shoperr.Unavailable(err))
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, shoperr.Unavailable(err))
	}

	wt.Status = status
	logger.Info("wallet transaction resolved", slog.Int64("userID", wt.UserID))
	return wt, nil
}
