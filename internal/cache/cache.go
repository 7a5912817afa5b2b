package cache

import (
	"context"
	"errors"

	"github.com/linemk/luxe-market/internal/domain/models"
)

// CartCache кэширует корзины по id пользователя. Источник истины - postgres.
type CartCache interface {
	Get(ctx context.Context, userID int64) (*models.Cart, error)
	Set(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, userID int64) error
}

var ErrCacheMiss = errors.New("cache miss")
