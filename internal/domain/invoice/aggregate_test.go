package invoice

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkmatevirtue/invoicing/internal/domain/money"
)

func testItems() []LineItem {
	return []LineItem{
		{ID: "i1", Category: CategoryLabor, Quantity: dec("3"), UnitPrice: money.MustFromString("80.00"), TaxRate: dec("8"), DiscountRate: dec("0")},
		{ID: "i2", Category: CategoryParts, Quantity: dec("2"), UnitPrice: money.MustFromString("50.00"), TaxRate: dec("8"), DiscountRate: dec("10")},
		{ID: "i3", Category: CategoryMaterials, Quantity: dec("10"), UnitPrice: money.MustFromString("4.25"), TaxRate: dec("0"), DiscountRate: dec("0")},
		{ID: "i4", Category: CategoryService, Quantity: dec("1"), UnitPrice: money.MustFromString("120.00"), TaxRate: dec("8"), DiscountRate: dec("5")},
		{ID: "i5", Category: CategoryOther, Quantity: dec("1"), UnitPrice: money.MustFromString("15.00"), TaxRate: dec("0"), DiscountRate: dec("0")},
	}
}

func TestAggregate(t *testing.T) {
	items, totals, err := Aggregate(testItems(), Charges{})
	require.NoError(t, err)
	require.Len(t, items, 5)

	// Per-category buckets hold line subtotals; "other" has no bucket.
	assert.Equal(t, "240.00", totals.LaborTotal.String())
	assert.Equal(t, "100.00", totals.PartsTotal.String())
	assert.Equal(t, "42.50", totals.MaterialsTotal.String())
	assert.Equal(t, "120.00", totals.ServiceTotal.String())

	assert.Equal(t, "517.50", totals.Subtotal.String())
	assert.Equal(t, "16.00", totals.DiscountAmount.String())
	// 19.20 + 7.20 + 0 + 9.12 + 0
	assert.Equal(t, "35.52", totals.TaxAmount.String())
	assert.Equal(t, "537.02", totals.Total.String())
}

func TestAggregate_InvariantFormula(t *testing.T) {
	charges := Charges{
		Shipping:     money.MustFromString("5.00"),
		Handling:     money.MustFromString("2.50"),
		OtherCharges: money.MustFromString("1.00"),
	}

	items, totals, err := Aggregate(testItems(), charges)
	require.NoError(t, err)

	var subtotal, discount, tax money.Money
	for _, it := range items {
		subtotal = subtotal.Add(it.Subtotal)
		discount = discount.Add(it.DiscountAmount)
		tax = tax.Add(it.TaxAmount)
	}

	assert.True(t, totals.Subtotal.Equal(subtotal))
	assert.True(t, totals.DiscountAmount.Equal(discount))
	assert.True(t, totals.TaxAmount.Equal(tax))

	want := subtotal.Sub(discount).Add(tax).
		Add(charges.Shipping).Add(charges.Handling).Add(charges.OtherCharges)
	assert.True(t, totals.Total.Equal(want), "total %s != %s", totals.Total, want)
}

func TestAggregate_OrderIndependence(t *testing.T) {
	base := testItems()
	_, want, err := Aggregate(base, Charges{})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		shuffled := append([]LineItem(nil), base...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		_, got, err := Aggregate(shuffled, Charges{})
		require.NoError(t, err)

		assert.True(t, got.Total.Equal(want.Total))
		assert.True(t, got.Subtotal.Equal(want.Subtotal))
		assert.True(t, got.DiscountAmount.Equal(want.DiscountAmount))
		assert.True(t, got.TaxAmount.Equal(want.TaxAmount))
		assert.True(t, got.LaborTotal.Equal(want.LaborTotal))
		assert.True(t, got.PartsTotal.Equal(want.PartsTotal))
		assert.True(t, got.MaterialsTotal.Equal(want.MaterialsTotal))
		assert.True(t, got.ServiceTotal.Equal(want.ServiceTotal))
	}
}

func TestAggregate_EmptyItems(t *testing.T) {
	items, totals, err := Aggregate(nil, Charges{Shipping: money.MustFromString("5.00")})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.True(t, totals.Subtotal.IsZero())
	assert.Equal(t, "5.00", totals.Total.String())
}

func TestAggregate_NegativeCharge(t *testing.T) {
	_, _, err := Aggregate(testItems(), Charges{Handling: money.MustFromString("-1.00")})
	assert.ErrorIs(t, err, ErrInvalidInvoice)
}

func TestAggregate_InvalidItemPosition(t *testing.T) {
	items := testItems()
	items[2].Quantity = dec("-4")

	_, _, err := Aggregate(items, Charges{})
	require.ErrorIs(t, err, ErrInvalidLineItem)
	assert.Contains(t, err.Error(), "item 2")
}
