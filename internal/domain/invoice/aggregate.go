package invoice

import (
	"fmt"

	"github.com/checkmatevirtue/invoicing/internal/domain/money"
)

// Totals holds the invoice-level aggregate amounts produced by a single pass
// over the line items.
type Totals struct {
	Subtotal       money.Money
	DiscountAmount money.Money
	TaxAmount      money.Money
	Total          money.Money

	LaborTotal     money.Money
	PartsTotal     money.Money
	MaterialsTotal money.Money
	ServiceTotal   money.Money
}

// Charges are the invoice-level additions outside the line items.
type Charges struct {
	Shipping     money.Money
	Handling     money.Money
	OtherCharges money.Money
}

func (c Charges) validate() error {
	if c.Shipping.IsNegative() {
		return fmt.Errorf("%w: shipping charge %s is negative", ErrInvalidInvoice, c.Shipping)
	}
	if c.Handling.IsNegative() {
		return fmt.Errorf("%w: handling charge %s is negative", ErrInvalidInvoice, c.Handling)
	}
	if c.OtherCharges.IsNegative() {
		return fmt.Errorf("%w: other charges %s is negative", ErrInvalidInvoice, c.OtherCharges)
	}
	return nil
}

// Aggregate recomputes each line item and accumulates the invoice totals in
// one pass. Every item lands in exactly one category bucket; sums are order
// independent. The returned items carry their freshly computed derived
// amounts.
//
//	total = subtotal − discount + tax + shipping + handling + other
func Aggregate(items []LineItem, charges Charges) ([]LineItem, Totals, error) {
	if err := charges.validate(); err != nil {
		return nil, Totals{}, err
	}

	out := make([]LineItem, len(items))
	var t Totals

	for i, raw := range items {
		item, err := CalculateItem(raw)
		if err != nil {
			return nil, Totals{}, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = item

		t.Subtotal = t.Subtotal.Add(item.Subtotal)
		t.DiscountAmount = t.DiscountAmount.Add(item.DiscountAmount)
		t.TaxAmount = t.TaxAmount.Add(item.TaxAmount)

		switch item.Category {
		case CategoryLabor:
			t.LaborTotal = t.LaborTotal.Add(item.Subtotal)
		case CategoryParts:
			t.PartsTotal = t.PartsTotal.Add(item.Subtotal)
		case CategoryMaterials:
			t.MaterialsTotal = t.MaterialsTotal.Add(item.Subtotal)
		case CategoryService:
			t.ServiceTotal = t.ServiceTotal.Add(item.Subtotal)
		}
	}

	t.Total = t.Subtotal.
		Sub(t.DiscountAmount).
		Add(t.TaxAmount).
		Add(charges.Shipping.Round()).
		Add(charges.Handling.Round()).
		Add(charges.OtherCharges.Round())

	return out, t, nil
}
