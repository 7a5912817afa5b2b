// Package shoperr описывает виды ошибок, которые сервисы возвращают вызывающему.
// Все они, кроме ErrUnavailable, - ожидаемые бизнес-исходы, а не сбои.
package shoperr

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

var (
	ErrInvalidCode       = errors.New("invalid coupon code")
	ErrCouponInactive    = errors.New("coupon is no longer active")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrUnavailable       = errors.New("service unavailable")
)

// Kind значения для транспортного слоя
const (
	KindInvalidCode       = "InvalidCode"
	KindCouponInactive    = "CouponInactive"
	KindEmptyCart         = "EmptyCart"
	KindNotAuthenticated  = "NotAuthenticated"
	KindInsufficientFunds = "InsufficientFunds"
	KindInvalidTransition = "InvalidTransition"
	KindPermissionDenied  = "PermissionDenied"
	KindNotFound          = "NotFound"
	KindValidation        = "Validation"
	KindUnavailable       = "Unavailable"
	KindInternal          = "Internal"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidCode, KindInvalidCode},
	{ErrCouponInactive, KindCouponInactive},
	{ErrEmptyCart, KindEmptyCart},
	{ErrNotAuthenticated, KindNotAuthenticated},
	{ErrInsufficientFunds, KindInsufficientFunds},
	{ErrInvalidTransition, KindInvalidTransition},
	{ErrPermissionDenied, KindPermissionDenied},
	{ErrNotFound, KindNotFound},
	{ErrValidation, KindValidation},
	{ErrUnavailable, KindUnavailable},
}

// Kind возвращает вид ошибки по цепочке обёрток. Неизвестные ошибки - Internal.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

type unavailableError struct {
	cause error
}

func (e *unavailableError) Error() string {
	return ErrUnavailable.Error() + ": " + e.cause.Error()
}

func (e *unavailableError) Unwrap() error { return e.cause }

func (e *unavailableError) Is(target error) bool { return target == ErrUnavailable }

// Unavailable помечает инфраструктурную ошибку (БД, брокер), сохраняя причину.
// Вызывающий сам решает, повторять ли запрос.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return &unavailableError{cause: err}
}

// Invalid оборачивает ErrValidation сообщением для клиента
func Invalid(msg string) error {
	return pkgerrors.WithMessage(ErrValidation, msg)
}
