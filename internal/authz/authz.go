// Package authz - единая точка проверки прав. Каждая мутирующая операция сервиса
// вызывает одну из проверок до любых изменений и получает ErrPermissionDenied
// или ErrNotAuthenticated вместо молчаливого no-op.
package authz

import (
	"context"
	"fmt"

	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
)

// Actor - аутентифицированный пользователь, выполняющий операцию
type Actor struct {
	UserID int64
	Role   models.Role
}

// IsZero - актор не задан (запрос без токена)
func (a Actor) IsZero() bool {
	return a.UserID == 0
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

type ctxKey struct{}

// WithActor кладёт актора в контекст
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext достаёт актора из контекста
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok && !a.IsZero()
}

// Authenticated требует залогиненного пользователя
func Authenticated(a Actor) error {
	if a.IsZero() {
		return shoperr.ErrNotAuthenticated
	}
	return nil
}

// Admin требует роль администратора
func Admin(a Actor) error {
	if err := Authenticated(a); err != nil {
		return err
	}
	if !a.IsAdmin() {
		return fmt.Errorf("admin role required: %w", shoperr.ErrPermissionDenied)
	}
	return nil
}

// CreateStore - магазины открывают реселлеры и администраторы
func CreateStore(a Actor) error {
	if err := Authenticated(a); err != nil {
		return err
	}
	if a.Role != models.RoleReseller && !a.IsAdmin() {
		return fmt.Errorf("only resellers can open stores: %w", shoperr.ErrPermissionDenied)
	}
	return nil
}

// ManageStore - владелец магазина или администратор
func ManageStore(a Actor, store *models.Store) error {
	if err := Authenticated(a); err != nil {
		return err
	}
	if a.IsAdmin() || (a.Role == models.RoleReseller && store.OwnerID == a.UserID) {
		return nil
	}
	return fmt.Errorf("store %d belongs to another owner: %w", store.ID, shoperr.ErrPermissionDenied)
}

// OwnOrder - покупатель может действовать только со своим заказом
func OwnOrder(a Actor, order *models.Order) error {
	if err := Authenticated(a); err != nil {
		return err
	}
	if order.UserID != a.UserID {
		return fmt.Errorf("order %s belongs to another user: %w", order.ID, shoperr.ErrPermissionDenied)
	}
	return nil
}

// ViewOrder - заказ видят покупатель, владелец магазина и администратор
func ViewOrder(a Actor, order *models.Order, store *models.Store) error {
	if err := Authenticated(a); err != nil {
		return err
	}
	if order.UserID == a.UserID {
		return nil
	}
	return ManageStore(a, store)
}
