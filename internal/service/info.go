package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/linemk/luxe-market/internal/authz"
	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
	"github.com/linemk/luxe-market/internal/storage"
)

// InfoService определяет интерфейс для получения информации о пользователе.
type InfoService interface {
	GetInfo(ctx context.Context, actor authz.Actor) (*InfoResponse, error)
}

type infoService struct {
	log          *slog.Logger
	userRepo     storage.UserStorage
	orderRepo    storage.OrderStorage
	walletTxRepo storage.WalletTransactionStorage
}

func NewInfoService(log *slog.Logger, userRepo storage.UserStorage, orderRepo storage.OrderStorage, walletTxRepo storage.WalletTransactionStorage) InfoService {
	return &infoService{
		log:          log,
		userRepo:     userRepo,
		orderRepo:    orderRepo,
		walletTxRepo: walletTxRepo,
	}
}

// InfoResponse - профиль пользователя: баланс, сохранённый адрес, заказы и история кошелька
type InfoResponse struct {
	Email         string                      `json:"email"`
	Role          models.Role                 `json:"role"`
	WalletBalance decimal.Decimal             `json:"walletBalance"`
	SavedShipping *models.ShippingInfo        `json:"savedShipping,omitempty"`
	Orders        []*models.Order             `json:"orders"`
	WalletHistory []*models.WalletTransaction `json:"walletHistory"`
}

// GetInfo собирает информацию о пользователе. Если историю кошелька получить не удалось,
// отдаём ответ с пустой историей.
func (s *infoService) GetInfo(ctx context.Context, actor authz.Actor) (*InfoResponse, error) {
	const op = "service.InfoService.GetInfo"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.UserID))
	logger.Info("getting info")

	if err := authz.Authenticated(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.userRepo.GetUserByID(ctx, actor.UserID)
	if err != nil {
		logger.Error("failed to get user by id", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, actor.UserID)
	if err != nil {
		logger.Error("failed to get orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, shoperr.Unavailable(err))
	}
	if orders == nil {
		orders = []*models.Order{}
	}

	history, err := s.walletTxRepo.GetTransactionsByUserID(ctx, actor.UserID)
	if err != nil {
		logger.Error("failed to get wallet transactions", slog.Any("error", err))
		history = nil
	}
	if history == nil {
		history = []*models.WalletTransaction{}
	}

	return &InfoResponse{
		Email:         user.Email,
		Role:          user.Role,
		WalletBalance: user.WalletBalance,
		SavedShipping: user.SavedShipping,
		Orders:        orders,
		WalletHistory: history,
	}, nil
}
