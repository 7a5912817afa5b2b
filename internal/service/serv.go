package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
	security "github.com/linemk/luxe-market/internal/jwt-new"
	"github.com/linemk/luxe-market/internal/storage"
)

// ErrInvalidCredentials - неверный email или пароль. Какой именно, не сообщаем.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", shoperr.ErrNotAuthenticated)

var validate = validator.New()

type AuthService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
	tokenTTL time.Duration
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		log:      log,
		userRepo: userRepo,
		tokenTTL: tokenTTL,
	}
}

type AuthServiceInterface interface {
	Register(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// Register создаёт покупателя с пустым кошельком и сразу выдаёт токен.
// Пароль хэшируется через bcrypt, соль добавляется автоматически.
func (a *AuthService) Register(ctx context.Context, email, password string) (string, error) {
	const op = "auth.Register"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("registering user")

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := a.userRepo.CreateUser(ctx, &models.User{
		Email:         email,
		PassHash:      passHash,
		Role:          models.RoleCustomer,
		WalletBalance: decimal.Zero,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			logger.Warn("user already exists")
			return "", fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to create user", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to create user: %w", op, shoperr.Unavailable(err))
	}

	return a.issueToken(ctx, logger, op, user)
}

// Login проверяет пароль и выдаёт JWT-токен (секрет берётся из переменной окружения JWT_SECRET).
func (a *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	const op = "auth.Login"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("checking user")

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to get user: %w", op, shoperr.Unavailable(err))
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return a.issueToken(ctx, logger, op, user)
}

func (a *AuthService) issueToken(ctx context.Context, logger *slog.Logger, op string, user *models.User) (string, error) {
	token, err := security.NewToken(ctx, user, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user authenticated", slog.Int64("userID", user.ID), slog.String("role", string(user.Role)))
	return token, nil
}
