// Package pricing считает стоимость корзины и делит её на заказы по магазинам.
// Все суммы - decimal, промежуточные значения каждый раз пересчитываются с нуля.
package pricing

import (
	"fmt"

	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
	"github.com/shopspring/decimal"
)

// DefaultTaxRate - ставка налога/сервисного сбора по умолчанию (4%)
var DefaultTaxRate = decimal.RequireFromString("0.04")

var hundred = decimal.NewFromInt(100)

// Summary - производный расчёт корзины, нигде не хранится
type Summary struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
	CouponCode string          `json:"couponCode,omitempty"`
	ItemCount  int             `json:"itemCount"`
}

var errQuantityTooLarge = shoperr.Invalid(fmt.Sprintf("quantity must not exceed %d", models.MaxLineQuantity))

// AddLine добавляет товар в корзину. Повторный вызов увеличивает количество ещё раз.
// Если итоговое количество строки больше MaxLineQuantity, корзина не меняется.
func AddLine(cart *models.Cart, p *models.Product, qty int) error {
	if qty < 1 {
		qty = 1
	}
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == p.ID {
			if qty > models.MaxLineQuantity-cart.Lines[i].Quantity {
				return errQuantityTooLarge
			}
			cart.Lines[i].Quantity += qty
			return nil
		}
	}
	if qty > models.MaxLineQuantity {
		return errQuantityTooLarge
	}
	cart.Lines = append(cart.Lines, models.CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		ImageURL:  p.PrimaryImage(),
		Price:     p.Price,
		Quantity:  qty,
		StoreID:   p.StoreID,
	})
	return nil
}

// SetQuantity выставляет количество ровно в qty, при qty <= 0 строка удаляется
func SetQuantity(cart *models.Cart, productID int64, qty int) error {
	if qty <= 0 {
		RemoveLine(cart, productID)
		return nil
	}
	if qty > models.MaxLineQuantity {
		return errQuantityTooLarge
	}
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			cart.Lines[i].Quantity = qty
			return nil
		}
	}
	return nil
}

// RemoveLine удаляет строку; отсутствие строки не ошибка
func RemoveLine(cart *models.Cart, productID int64) {
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
			return
		}
	}
}

// Subtotal - сумма price*qty по строкам
func Subtotal(lines []models.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Discount считает скидку купона. Результат всегда в [0, subtotal].
func Discount(subtotal decimal.Decimal, c *models.Coupon) decimal.Decimal {
	if c == nil || !c.IsActive || !subtotal.IsPositive() {
		return decimal.Zero
	}

	var d decimal.Decimal
	switch c.Kind {
	case models.DiscountPercentage:
		d = subtotal.Mul(c.Value).Div(hundred)
	case models.DiscountFixed:
		d = c.Value
	default:
		return decimal.Zero
	}

	if d.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(d, subtotal).Round(2)
}

// Tax считает налог. Налог берётся с суммы ДО скидки: так считает и превью корзины, и снимок заказа.
func Tax(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(rate).Round(2)
}

// Total = subtotal - discount + tax
func Total(subtotal, discount, tax decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount).Add(tax)
}

// Summarize собирает полный расчёт корзины
func Summarize(cart *models.Cart, c *models.Coupon, rate decimal.Decimal) Summary {
	subtotal := Subtotal(cart.Lines)
	discount := Discount(subtotal, c)
	tax := Tax(subtotal, rate)

	s := Summary{
		Subtotal:  subtotal,
		Discount:  discount,
		Tax:       tax,
		Total:     Total(subtotal, discount, tax),
		ItemCount: cart.ItemCount(),
	}
	if discount.IsPositive() {
		s.CouponCode = c.Code
	}
	return s
}
