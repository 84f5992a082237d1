package invoice

import (
	"fmt"

	"github.com/checkmatevirtue/invoicing/internal/domain/money"
)

// LedgerSummary is the payment position derived from the recorded payments
// and the invoice total.
type LedgerSummary struct {
	AmountPaid money.Money
	BalanceDue money.Money
	Paid       bool
}

// SummarizePayments accumulates all non-void payments against the invoice
// total. An overpayment is a valid state: the balance goes negative and is
// surfaced as-is, never clamped, so reconciliation problems stay visible.
func SummarizePayments(payments []Payment, total money.Money) LedgerSummary {
	var paid money.Money
	for _, p := range payments {
		if p.Voided {
			continue
		}
		paid = paid.Add(p.Amount)
	}

	balance := total.Sub(paid)
	return LedgerSummary{
		AmountPaid: paid,
		BalanceDue: balance,
		Paid:       balance.Cmp(money.Zero()) <= 0,
	}
}

// ValidatePayment checks a payment before it is recorded. Overpayment is not
// an error; only a negative amount or an unknown method is rejected.
func ValidatePayment(p Payment) error {
	if p.Amount.IsNegative() {
		return fmt.Errorf("%w: amount %s is negative", ErrInvalidPayment, p.Amount)
	}
	if !p.Method.IsValid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidPayment, p.Method)
	}
	return nil
}
