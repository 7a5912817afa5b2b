package models

import "github.com/shopspring/decimal"

// DiscountKind - способ расчёта скидки по купону
type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

func (k DiscountKind) IsValid() bool {
	return k == DiscountPercentage || k == DiscountFixed
}

// Coupon представляет купон. Code хранится в верхнем регистре и уникален без учёта регистра.
type Coupon struct {
	ID       int64           `json:"id"`
	Code     string          `json:"code"`
	Kind     DiscountKind    `json:"discountType"`
	Value    decimal.Decimal `json:"discountValue"`
	IsActive bool            `json:"isActive"`
}
