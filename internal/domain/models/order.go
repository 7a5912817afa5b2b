package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus - статус заказа
type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// граф допустимых переходов; Delivered и Cancelled - конечные
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

// IsValid проверяет, что статус известен
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal сообщает, что из статуса больше нет переходов
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo проверяет переход по графу статусов
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentMethod - способ оплаты
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentOnline PaymentMethod = "Online"
	PaymentBank   PaymentMethod = "Bank"
	PaymentWallet PaymentMethod = "Wallet"
)

// IsValid проверяет способ оплаты
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCOD, PaymentOnline, PaymentBank, PaymentWallet:
		return true
	}
	return false
}

// ShippingInfo - адрес доставки, копируется в заказ в момент покупки
type ShippingInfo struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Address   string `json:"address" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
}

// OrderItem - снимок товара на момент покупки, не зависит от текущих данных каталога
type OrderItem struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"imageUrl"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Order представляет заказ одного магазина. После создания меняется только статус.
type Order struct {
	ID             string          `json:"id"`
	UserID         int64           `json:"userId"`
	StoreID        int64           `json:"storeId"`
	Items          []OrderItem     `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	CouponCode     string          `json:"couponCode,omitempty"`
	Total          decimal.Decimal `json:"total"`
	Status         OrderStatus     `json:"status"`
	ShippingInfo   ShippingInfo    `json:"shippingInfo"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	CreatedAt      time.Time       `json:"createdAt"`
}
