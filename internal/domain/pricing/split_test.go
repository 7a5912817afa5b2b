package pricing_test

import (
	"testing"

	"github.com/linemk/luxe-market/internal/domain/models"
	"github.com/linemk/luxe-market/internal/domain/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumDrafts(drafts []pricing.Draft, f func(pricing.Draft) decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, d := range drafts {
		sum = sum.Add(f(d))
	}
	return sum
}

func TestSplit_ScenarioC(t *testing.T) {
	lines := []models.CartLine{line(1, "100", 1, 1), line(2, "300", 1, 2)}
	coupon := &models.Coupon{Code: "FLAT50", Kind: models.DiscountFixed, Value: dec("50"), IsActive: true}

	drafts, summary := pricing.Split(lines, coupon, pricing.DefaultTaxRate)

	require.Len(t, drafts, 2)
	assertDec(t, "400", summary.Subtotal)
	assertDec(t, "50", summary.Discount)

	assert.Equal(t, int64(1), drafts[0].StoreID)
	assertDec(t, "12.5", drafts[0].Discount)
	assertDec(t, "4", drafts[0].Tax)
	assertDec(t, "91.5", drafts[0].Total)

	assert.Equal(t, int64(2), drafts[1].StoreID)
	assertDec(t, "37.5", drafts[1].Discount)
	assertDec(t, "12", drafts[1].Tax)
	assertDec(t, "274.5", drafts[1].Total)

	assertDec(t, "50", sumDrafts(drafts, func(d pricing.Draft) decimal.Decimal { return d.Discount }))
}

func TestSplit_GroupsByStoreInCartOrder(t *testing.T) {
	lines := []models.CartLine{
		line(1, "10", 1, 9),
		line(2, "20", 2, 4),
		line(3, "5", 3, 9),
	}

	drafts, summary := pricing.Split(lines, nil, pricing.DefaultTaxRate)

	require.Len(t, drafts, 2)
	assert.Equal(t, int64(9), drafts[0].StoreID)
	assert.Len(t, drafts[0].Items, 2)
	assertDec(t, "25", drafts[0].Subtotal)
	assert.Equal(t, int64(4), drafts[1].StoreID)
	assertDec(t, "40", drafts[1].Subtotal)

	assertDec(t, "0", summary.Discount)
	assertDec(t, "65", summary.Subtotal)
	assert.Equal(t, 6, summary.ItemCount)
}

func TestSplit_ConservesTotalsWithUnevenShares(t *testing.T) {
	lines := []models.CartLine{
		line(1, "10", 1, 1),
		line(2, "10", 1, 2),
		line(3, "10", 1, 3),
		line(4, "0.07", 1, 4),
	}
	coupon := &models.Coupon{Code: "TEN", Kind: models.DiscountFixed, Value: dec("10"), IsActive: true}

	drafts, summary := pricing.Split(lines, coupon, pricing.DefaultTaxRate)

	require.Len(t, drafts, 4)
	subtotal := sumDrafts(drafts, func(d pricing.Draft) decimal.Decimal { return d.Subtotal })
	discount := sumDrafts(drafts, func(d pricing.Draft) decimal.Decimal { return d.Discount })
	tax := sumDrafts(drafts, func(d pricing.Draft) decimal.Decimal { return d.Tax })
	total := sumDrafts(drafts, func(d pricing.Draft) decimal.Decimal { return d.Total })

	assert.True(t, subtotal.Equal(pricing.Subtotal(lines)))
	assert.True(t, discount.Equal(summary.Discount), "discount %s != %s", discount, summary.Discount)
	assert.True(t, tax.Equal(summary.Tax), "tax %s != %s", tax, summary.Tax)
	assert.True(t, total.Equal(summary.Total), "total %s != %s", total, summary.Total)

	for _, d := range drafts {
		assert.False(t, d.Discount.IsNegative())
		assert.True(t, d.Discount.LessThanOrEqual(d.Subtotal))
	}
}

func TestSplit_MatchesSummarize(t *testing.T) {
	cart := &models.Cart{Lines: []models.CartLine{line(1, "19.99", 3, 1), line(2, "7.45", 2, 2), line(3, "120", 1, 3)}}
	coupon := &models.Coupon{Code: "P15", Kind: models.DiscountPercentage, Value: dec("15"), IsActive: true}

	_, fromSplit := pricing.Split(cart.Lines, coupon, pricing.DefaultTaxRate)
	preview := pricing.Summarize(cart, coupon, pricing.DefaultTaxRate)

	assert.Equal(t, preview.Subtotal.String(), fromSplit.Subtotal.String())
	assert.Equal(t, preview.Discount.String(), fromSplit.Discount.String())
	assert.Equal(t, preview.Tax.String(), fromSplit.Tax.String())
	assert.Equal(t, preview.Total.String(), fromSplit.Total.String())
}

func TestSplit_EmptyLines(t *testing.T) {
	drafts, summary := pricing.Split(nil, nil, pricing.DefaultTaxRate)
	assert.Empty(t, drafts)
	assertDec(t, "0", summary.Total)
}

func TestSplit_EqualStoresNeverGoNegative(t *testing.T) {
	tests := []struct {
		name   string
		price  string
		coupon *models.Coupon
	}{
		{name: "half-cent discount shares", price: "1", coupon: &models.Coupon{Code: "TWO", Kind: models.DiscountFixed, Value: dec("0.02"), IsActive: true}},
		{name: "half-cent tax shares", price: "0.13"},
		{name: "third-cent discount shares", price: "10", coupon: &models.Coupon{Code: "ODD", Kind: models.DiscountFixed, Value: dec("0.07"), IsActive: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := []models.CartLine{
				line(1, tt.price, 1, 1),
				line(2, tt.price, 1, 2),
				line(3, tt.price, 1, 3),
				line(4, tt.price, 1, 4),
			}

			drafts, summary := pricing.Split(lines, tt.coupon, pricing.DefaultTaxRate)
			require.Len(t, drafts, 4)

			for _, d := range drafts {
				assert.False(t, d.Discount.IsNegative(), "store %d discount %s", d.StoreID, d.Discount)
				assert.False(t, d.Tax.IsNegative(), "store %d tax %s", d.StoreID, d.Tax)
				assert.True(t, d.Discount.LessThanOrEqual(d.Subtotal))
				assert.True(t, d.Total.LessThanOrEqual(d.Subtotal.Add(d.Tax)))
			}
			assertDec(t, summary.Discount.String(), sumDrafts(drafts, func(d pricing.Draft) decimal.Decimal { return d.Discount }))
			assertDec(t, summary.Tax.String(), sumDrafts(drafts, func(d pricing.Draft) decimal.Decimal { return d.Tax }))
		})
	}
}

func TestSplit_LeftoverCentsGoToLargestRemainder(t *testing.T) {
	lines := []models.CartLine{
		line(1, "1", 1, 1),
		line(2, "1", 1, 2),
		line(3, "1", 1, 3),
		line(4, "1", 1, 4),
	}
	coupon := &models.Coupon{Code: "TWO", Kind: models.DiscountFixed, Value: dec("0.02"), IsActive: true}

	drafts, _ := pricing.Split(lines, coupon, pricing.DefaultTaxRate)

	require.Len(t, drafts, 4)
	assertDec(t, "0.01", drafts[0].Discount)
	assertDec(t, "0.01", drafts[1].Discount)
	assertDec(t, "0", drafts[2].Discount)
	assertDec(t, "0", drafts[3].Discount)
	assertDec(t, "1.03", drafts[0].Total)
}
