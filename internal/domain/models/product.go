package models

import "github.com/shopspring/decimal"

// MaxPrice - предел цены товара, вместе с MaxLineQuantity держит суммы в NUMERIC(12,2)
var MaxPrice = decimal.NewFromInt(1_000_000)

// Product представляет товар, выставленный магазином
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURLs   []string        `json:"imageUrls"`
	Category    string          `json:"category"`
	StoreID     int64           `json:"storeId"`
}

// PrimaryImage возвращает первую картинку товара, она попадает в снимок заказа
func (p *Product) PrimaryImage() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}

// Store - магазин реселлера
type Store struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     int64  `json:"ownerId"`
	LogoURL     string `json:"logoUrl"`
}
