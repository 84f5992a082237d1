package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var ratePercentMax = decimal.NewFromInt(100)

// CalculateItem recomputes the derived amounts for one line item and returns
// a copy with those amounts filled in:
//
//	subtotal        = quantity × unit_price
//	discount_amount = subtotal × (discount_rate / 100)
//	taxable_amount  = subtotal − discount_amount
//	tax_amount      = taxable_amount × (tax_rate / 100)
//	total           = subtotal − discount_amount + tax_amount
//
// It is a pure function of the item's raw fields. Invalid raw fields fail
// with ErrInvalidLineItem; nothing is ever clamped, because clamping would
// make the same stored data produce different totals later.
func CalculateItem(item LineItem) (LineItem, error) {
	if err := validateItem(item); err != nil {
		return LineItem{}, err
	}

	item.Subtotal = item.UnitPrice.MulQuantity(item.Quantity)
	item.DiscountAmount = item.Subtotal.MulPercent(item.DiscountRate)
	item.TaxableAmount = item.Subtotal.Sub(item.DiscountAmount)
	item.TaxAmount = item.TaxableAmount.MulPercent(item.TaxRate)
	item.Total = item.Subtotal.Sub(item.DiscountAmount).Add(item.TaxAmount)

	return item, nil
}

func validateItem(item LineItem) error {
	if item.Quantity.IsNegative() {
		return fmt.Errorf("%w: quantity %s is negative", ErrInvalidLineItem, item.Quantity)
	}
	if item.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price %s is negative", ErrInvalidLineItem, item.UnitPrice)
	}
	if !rateInRange(item.TaxRate) {
		return fmt.Errorf("%w: tax rate %s outside [0,100]", ErrInvalidLineItem, item.TaxRate)
	}
	if !rateInRange(item.DiscountRate) {
		return fmt.Errorf("%w: discount rate %s outside [0,100]", ErrInvalidLineItem, item.DiscountRate)
	}
	if !item.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidLineItem, item.Category)
	}
	return nil
}

func rateInRange(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.Cmp(ratePercentMax) <= 0
}
