package models

import "github.com/shopspring/decimal"

// MaxLineQuantity - предел количества одной строки корзины
const MaxLineQuantity = 999

// CartLine - строка корзины. Quantity всегда в [1, MaxLineQuantity], строка с нулевым количеством удаляется.
type CartLine struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"imageUrl"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	StoreID   int64           `json:"storeId"`
}

// Cart - корзина пользователя, одна на пользователя
type Cart struct {
	UserID   int64      `json:"userId"`
	Lines    []CartLine `json:"lines"`
	CouponID *int64     `json:"couponId,omitempty"`
}

// IsEmpty сообщает, что в корзине нет строк
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ItemCount - суммарное количество единиц товара
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}
