package pricing

import (
	"sort"

	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/shopspring/decimal"
)

var cent = decimal.New(1, -2)

// Draft - будущий заказ одного магазина, ещё без id и времени создания
type Draft struct {
	StoreID  int64
	Items    []models.OrderItem
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Split делит корзину на заказы по магазинам. Скидка и налог корзины распределяются
// пропорционально сумме каждого магазина методом наибольшего остатка, поэтому суммы
// по заказам точно равны суммам корзины и ни одна доля не уходит в минус.
func Split(lines []models.CartLine, c *models.Coupon, rate decimal.Decimal) ([]Draft, Summary) {
	var drafts []Draft
	index := make(map[int64]int)

	for _, l := range lines {
		i, ok := index[l.StoreID]
		if !ok {
			i = len(drafts)
			index[l.StoreID] = i
			drafts = append(drafts, Draft{StoreID: l.StoreID, Subtotal: decimal.Zero})
		}
		d := &drafts[i]
		d.Items = append(d.Items, models.OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			ImageURL:  l.ImageURL,
			Price:     l.Price,
			Quantity:  l.Quantity,
		})
		d.Subtotal = d.Subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	weights := make([]decimal.Decimal, len(drafts))
	subtotal := decimal.Zero
	for i, d := range drafts {
		weights[i] = d.Subtotal
		subtotal = subtotal.Add(d.Subtotal)
	}

	discount := Discount(subtotal, c)
	tax := Tax(subtotal, rate)
	discounts := allocate(discount, weights, subtotal)
	taxes := allocate(tax, weights, subtotal)

	itemCount := 0
	for _, l := range lines {
		itemCount += l.Quantity
	}

	for i := range drafts {
		drafts[i].Discount = discounts[i]
		drafts[i].Tax = taxes[i]
		drafts[i].Total = Total(drafts[i].Subtotal, discounts[i], taxes[i])
	}

	summary := Summary{
		Subtotal:  subtotal,
		Discount:  discount,
		Tax:       tax,
		Total:     Total(subtotal, discount, tax),
		ItemCount: itemCount,
	}
	if discount.IsPositive() {
		summary.CouponCode = c.Code
	}
	return drafts, summary
}

// allocate делит amount пропорционально weights (их сумма - total) с точностью до копейки.
// Каждая доля сначала округляется вниз, оставшиеся копейки раздаются по одной долям
// с наибольшим дробным остатком, поэтому каждая доля лежит в [0, amount].
func allocate(amount decimal.Decimal, weights []decimal.Decimal, total decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(weights))
	for i := range out {
		out[i] = decimal.Zero
	}
	if len(weights) == 0 || !total.IsPositive() || !amount.IsPositive() {
		return out
	}

	remainders := make([]decimal.Decimal, len(weights))
	rest := amount
	for i, w := range weights {
		exact := amount.Mul(w).Div(total)
		out[i] = exact.RoundDown(2)
		remainders[i] = exact.Sub(out[i])
		rest = rest.Sub(out[i])
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	// при равном остатке копейку получает группа с большей суммой, затем более ранняя
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := remainders[order[a]], remainders[order[b]]
		if !ra.Equal(rb) {
			return ra.GreaterThan(rb)
		}
		return weights[order[a]].GreaterThan(weights[order[b]])
	})

	for k := 0; rest.IsPositive() && len(order) > 0; k = (k + 1) % len(order) {
		out[order[k]] = out[order[k]].Add(cent)
		rest = rest.Sub(cent)
	}
	return out
}
