package pricing_test

import (
	"errors"
	"math"
	"testing"

	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/pricing"
	"github.com/linemk/luxe-market/internal/domain/shoperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func line(productID int64, price string, qty int, storeID int64) models.CartLine {
	return models.CartLine{ProductID: productID, Name: "p", Price: dec(price), Quantity: qty, StoreID: storeID}
}

func TestAddLine_AppendsAndAccumulates(t *testing.T) {
	cart := &models.Cart{UserID: 1}
	p := &models.Product{ID: 7, Name: "Silk scarf", Price: dec("49.99"), ImageURLs: []string{"a.png", "b.png"}, StoreID: 3}

	require.NoError(t, pricing.AddLine(cart, p, 1))
	require.NoError(t, pricing.AddLine(cart, p, 1))
	require.NoError(t, pricing.AddLine(cart, p, 3))

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 5, cart.Lines[0].Quantity)
	assert.Equal(t, "a.png", cart.Lines[0].ImageURL)
	assert.Equal(t, int64(3), cart.Lines[0].StoreID)
}

func TestAddLine_NonPositiveQuantityAddsOne(t *testing.T) {
	cart := &models.Cart{}
	require.NoError(t, pricing.AddLine(cart, &models.Product{ID: 1, Price: dec("10")}, 0))
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 1, cart.Lines[0].Quantity)
}

func TestSetQuantity(t *testing.T) {
	cart := &models.Cart{Lines: []models.CartLine{line(1, "10", 2, 1), line(2, "5", 1, 1)}}

	require.NoError(t, pricing.SetQuantity(cart, 1, 7))
	assert.Equal(t, 7, cart.Lines[0].Quantity, "quantity is set, not added")

	require.NoError(t, pricing.SetQuantity(cart, 2, 0))
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(1), cart.Lines[0].ProductID)

	require.NoError(t, pricing.SetQuantity(cart, 1, -3))
	assert.True(t, cart.IsEmpty())
}

func TestAddLine_QuantityLimit(t *testing.T) {
	p := &models.Product{ID: 1, Price: dec("10")}

	cart := &models.Cart{}
	err := pricing.AddLine(cart, p, models.MaxLineQuantity+1)
	assert.True(t, errors.Is(err, shoperr.ErrValidation))
	assert.True(t, cart.IsEmpty())

	require.NoError(t, pricing.AddLine(cart, p, models.MaxLineQuantity-1))
	require.NoError(t, pricing.AddLine(cart, p, 1))
	assert.Equal(t, models.MaxLineQuantity, cart.Lines[0].Quantity)

	// повторное добавление сверх предела не меняет строку
	err = pricing.AddLine(cart, p, 1)
	assert.True(t, errors.Is(err, shoperr.ErrValidation))
	assert.Equal(t, models.MaxLineQuantity, cart.Lines[0].Quantity)

	// переполнение int тоже отсекается
	err = pricing.AddLine(cart, p, math.MaxInt)
	assert.True(t, errors.Is(err, shoperr.ErrValidation))
	assert.Equal(t, models.MaxLineQuantity, cart.Lines[0].Quantity)
}

func TestSetQuantity_Limit(t *testing.T) {
	cart := &models.Cart{Lines: []models.CartLine{line(1, "10", 2, 1)}}

	err := pricing.SetQuantity(cart, 1, models.MaxLineQuantity+1)
	assert.True(t, errors.Is(err, shoperr.ErrValidation))
	assert.Equal(t, 2, cart.Lines[0].Quantity)

	require.NoError(t, pricing.SetQuantity(cart, 1, models.MaxLineQuantity))
	assert.Equal(t, models.MaxLineQuantity, cart.Lines[0].Quantity)
}

func TestRemoveLine_AbsentIsNoop(t *testing.T) {
	cart := &models.Cart{Lines: []models.CartLine{line(1, "10", 2, 1)}}
	before := append([]models.CartLine(nil), cart.Lines...)

	pricing.RemoveLine(cart, 42)
	assert.Equal(t, before, cart.Lines)

	pricing.RemoveLine(cart, 1)
	assert.Empty(t, cart.Lines)
}

func TestSubtotal_IndependentOfOrder(t *testing.T) {
	a := []models.CartLine{line(1, "0.10", 3, 1), line(2, "0.20", 7, 2), line(3, "19.99", 1, 1)}
	b := []models.CartLine{a[2], a[0], a[1]}

	assertDec(t, "21.69", pricing.Subtotal(a))
	assert.True(t, pricing.Subtotal(a).Equal(pricing.Subtotal(b)))
}

func TestSubtotal_NoDriftOnRepeatedAdds(t *testing.T) {
	cart := &models.Cart{}
	for i := int64(1); i <= 1000; i++ {
		require.NoError(t, pricing.AddLine(cart, &models.Product{ID: i, Price: dec("0.10")}, 1))
	}
	assertDec(t, "100", pricing.Subtotal(cart.Lines))
}

func TestDiscount(t *testing.T) {
	pct := func(v string, active bool) *models.Coupon {
		return &models.Coupon{Code: "P", Kind: models.DiscountPercentage, Value: dec(v), IsActive: active}
	}
	fixed := func(v string, active bool) *models.Coupon {
		return &models.Coupon{Code: "F", Kind: models.DiscountFixed, Value: dec(v), IsActive: active}
	}

	tests := []struct {
		name     string
		subtotal string
		coupon   *models.Coupon
		want     string
	}{
		{"no coupon", "200", nil, "0"},
		{"inactive coupon", "200", pct("10", false), "0"},
		{"percentage", "200", pct("10", true), "20"},
		{"percentage rounds to cents", "33.33", pct("15", true), "5"},
		{"full percentage", "80", pct("100", true), "80"},
		{"fixed", "400", fixed("50", true), "50"},
		{"fixed clamped to subtotal", "30", fixed("50", true), "30"},
		{"zero subtotal", "0", fixed("50", true), "0"},
		{"negative value", "100", fixed("-5", true), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDec(t, tt.want, pricing.Discount(dec(tt.subtotal), tt.coupon))
		})
	}
}

func TestDiscount_Bounded(t *testing.T) {
	subtotals := []string{"0", "0.01", "9.99", "100", "12345.67"}
	coupons := []*models.Coupon{
		nil,
		{Kind: models.DiscountPercentage, Value: dec("0"), IsActive: true},
		{Kind: models.DiscountPercentage, Value: dec("37.5"), IsActive: true},
		{Kind: models.DiscountPercentage, Value: dec("100"), IsActive: true},
		{Kind: models.DiscountFixed, Value: dec("0.5"), IsActive: true},
		{Kind: models.DiscountFixed, Value: dec("1000000"), IsActive: true},
	}
	for _, s := range subtotals {
		for _, c := range coupons {
			d := pricing.Discount(dec(s), c)
			assert.False(t, d.IsNegative())
			assert.True(t, d.LessThanOrEqual(dec(s)), "discount %s exceeds subtotal %s", d, s)

			tax := pricing.Tax(dec(s), pricing.DefaultTaxRate)
			assert.True(t, pricing.Total(dec(s), d, tax).GreaterThanOrEqual(tax))
		}
	}
}

func TestSummarize_ScenarioA(t *testing.T) {
	cart := &models.Cart{Lines: []models.CartLine{line(1, "100", 2, 1)}}

	s := pricing.Summarize(cart, nil, pricing.DefaultTaxRate)
	assertDec(t, "200", s.Subtotal)
	assertDec(t, "0", s.Discount)
	assertDec(t, "8", s.Tax)
	assertDec(t, "208", s.Total)
	assert.Equal(t, 2, s.ItemCount)
	assert.Empty(t, s.CouponCode)
}

func TestSummarize_ScenarioB_TaxOnPreDiscountSubtotal(t *testing.T) {
	cart := &models.Cart{Lines: []models.CartLine{line(1, "100", 2, 1)}}
	coupon := &models.Coupon{Code: "SAVE10", Kind: models.DiscountPercentage, Value: dec("10"), IsActive: true}

	s := pricing.Summarize(cart, coupon, pricing.DefaultTaxRate)
	assertDec(t, "20", s.Discount)
	assertDec(t, "8", s.Tax)
	assertDec(t, "188", s.Total)
	assert.Equal(t, "SAVE10", s.CouponCode)
}
