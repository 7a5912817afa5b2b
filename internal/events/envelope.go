package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/linemk/luxe-market/internal/domain/models"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"

	Producer = "luxe-market"
)

// Envelope - общая обёртка для всех событий, payload типизирован под событие.
type Envelope[T any] struct {
	EventName    string    `json:"eventName"`
	EventVersion int       `json:"eventVersion"`
	EventID      string    `json:"eventId"`
	Producer     string    `json:"producer"`
	PartitionKey string    `json:"partitionKey"`
	OccurredAt   time.Time `json:"occurredAt"`
	Payload      T         `json:"payload"`
}

// Validate проверяет имя, версию и ключ партиционирования.
func (e Envelope[T]) Validate(expectedName string, expectedVersion int) error {
	if e.EventName != expectedName {
		return fmt.Errorf("unexpected eventName: %s", e.EventName)
	}
	if e.EventVersion != expectedVersion {
		return fmt.Errorf("unexpected eventVersion: %d", e.EventVersion)
	}
	if e.PartitionKey == "" {
		return fmt.Errorf("missing partitionKey")
	}
	return nil
}

func newEnvelope[T any](name, partitionKey string, payload T, now time.Time) Envelope[T] {
	return Envelope[T]{
		EventName:    name,
		EventVersion: 1,
		EventID:      uuid.NewString(),
		Producer:     Producer,
		PartitionKey: partitionKey,
		OccurredAt:   now.UTC(),
		Payload:      payload,
	}
}

type OrderLine struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderPlacedPayload struct {
	OrderID       string               `json:"orderId"`
	UserID        int64                `json:"userId"`
	StoreID       int64                `json:"storeId"`
	Items         []OrderLine          `json:"items"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	Discount      decimal.Decimal      `json:"discount"`
	Tax           decimal.Decimal      `json:"tax"`
	Total         decimal.Decimal      `json:"total"`
	CouponCode    string               `json:"couponCode,omitempty"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	CreatedAt     time.Time            `json:"createdAt"`
}

type OrderStatusChangedPayload struct {
	OrderID string             `json:"orderId"`
	UserID  int64              `json:"userId"`
	StoreID int64              `json:"storeId"`
	From    models.OrderStatus `json:"from"`
	To      models.OrderStatus `json:"to"`
}

// событие размещения заказа, ключ партиционирования - id заказа
func newOrderPlaced(o *models.Order, now time.Time) Envelope[OrderPlacedPayload] {
	p := OrderPlacedPayload{
		OrderID:       o.ID,
		UserID:        o.UserID,
		StoreID:       o.StoreID,
		Subtotal:      o.Subtotal,
		Discount:      o.DiscountAmount,
		Tax:           o.Tax,
		Total:         o.Total,
		CouponCode:    o.CouponCode,
		PaymentMethod: o.PaymentMethod,
		CreatedAt:     o.CreatedAt,
	}
	for _, it := range o.Items {
		p.Items = append(p.Items, OrderLine{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	return newEnvelope(EventOrderPlaced, o.ID, p, now)
}

func newOrderStatusChanged(o *models.Order, from models.OrderStatus, now time.Time) Envelope[OrderStatusChangedPayload] {
	return newEnvelope(EventOrderStatusChanged, o.ID, OrderStatusChangedPayload{
		OrderID: o.ID,
		UserID:  o.UserID,
		StoreID: o.StoreID,
		From:    from,
		To:      o.Status,
	}, now)
}
