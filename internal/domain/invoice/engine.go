package invoice

import (
	"fmt"
	"time"

	"github.com/checkmatevirtue/invoicing/internal/domain/money"
)

// Engine is the invoice calculation and lifecycle façade. It is pure and
// synchronous: every operation takes an invoice value, returns a new fully
// recomputed snapshot, and never mutates shared state, so a single Engine is
// safe to call from any number of goroutines. Serializing concurrent writes
// to the same invoice is the store's job, not the engine's.
type Engine struct {
	lifecycle *Lifecycle
	now       func() time.Time
}

// NewEngine creates an engine using the given clock. A nil clock defaults to
// time.Now; tests inject a fixed clock.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		lifecycle: NewLifecycle(),
		now:       now,
	}
}

// CreateInput is the raw material for a new draft invoice.
type CreateInput struct {
	ID           string
	Number       string
	ClientID     string
	InspectionID string
	IndustryType string
	IssueDate    time.Time
	DueDate      time.Time
	Jobs         []Job
	Items        []LineItem
	Charges      Charges
	Terms        string
	Notes        string
	Footer       string
}

// defaultPaymentTermDays is applied when no due date is given.
const defaultPaymentTermDays = 30

// Create builds a new draft invoice from raw input, validating every line
// item and the date invariant, and returns it fully computed.
func (e *Engine) Create(in CreateInput) (*Invoice, error) {
	if in.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client reference", ErrInvalidInvoice)
	}

	now := e.now()
	issue := in.IssueDate
	if issue.IsZero() {
		issue = truncateToDay(now)
	}
	due := in.DueDate
	if due.IsZero() {
		due = issue.AddDate(0, 0, defaultPaymentTermDays)
	}
	if err := ValidateDates(issue, due); err != nil {
		return nil, err
	}

	inv := &Invoice{
		ID:           in.ID,
		Number:       in.Number,
		ClientID:     in.ClientID,
		InspectionID: in.InspectionID,
		IndustryType: in.IndustryType,
		IssueDate:    issue,
		DueDate:      due,
		Status:       StatusDraft,
		Jobs:         append([]Job(nil), in.Jobs...),
		Items:        append([]LineItem(nil), in.Items...),
		Payments:     []Payment{},
		Shipping:     in.Charges.Shipping,
		Handling:     in.Charges.Handling,
		OtherCharges: in.Charges.OtherCharges,
		Terms:        in.Terms,
		Notes:        in.Notes,
		Footer:       in.Footer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return e.recompute(inv)
}

// Recompute re-derives every computed field of the invoice from its raw
// fields and returns a new snapshot. It is idempotent: recomputing an
// already-computed snapshot yields an identical snapshot.
func (e *Engine) Recompute(inv *Invoice) (*Invoice, error) {
	return e.recompute(inv.Clone())
}

// recompute runs the aggregator and ledger over the given invoice in place.
// Callers pass a clone they own.
func (e *Engine) recompute(inv *Invoice) (*Invoice, error) {
	items, totals, err := Aggregate(inv.Items, Charges{
		Shipping:     inv.Shipping,
		Handling:     inv.Handling,
		OtherCharges: inv.OtherCharges,
	})
	if err != nil {
		return nil, err
	}

	inv.Items = items
	inv.Subtotal = totals.Subtotal
	inv.DiscountAmount = totals.DiscountAmount
	inv.TaxAmount = totals.TaxAmount
	inv.Total = totals.Total
	inv.LaborTotal = totals.LaborTotal
	inv.PartsTotal = totals.PartsTotal
	inv.MaterialsTotal = totals.MaterialsTotal
	inv.ServiceTotal = totals.ServiceTotal

	ledger := SummarizePayments(inv.Payments, inv.Total)
	inv.AmountPaid = ledger.AmountPaid
	inv.BalanceDue = ledger.BalanceDue
	inv.Paid = ledger.Paid

	return inv, nil
}

// ApplyPayment validates and records a payment, recomputes the ledger, and
// auto-transitions a sent invoice to paid when the balance reaches zero or
// below. Overpayment is accepted and surfaces as a negative balance.
func (e *Engine) ApplyPayment(inv *Invoice, p Payment) (*Invoice, error) {
	if err := ValidatePayment(p); err != nil {
		return nil, err
	}
	if inv.Status == StatusCancelled || inv.Status == StatusDraft {
		return nil, fmt.Errorf("%w: cannot record a payment on a %s invoice",
			ErrInvalidTransition, inv.Status)
	}

	next := inv.Clone()
	p.InvoiceID = next.ID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = e.now()
	}
	next.Payments = append(next.Payments, p)
	next.UpdatedAt = e.now()

	next, err := e.recompute(next)
	if err != nil {
		return nil, err
	}

	if next.Status == StatusSent && next.Paid {
		status, err := e.lifecycle.Fire(next, TriggerMarkPaid)
		if err != nil {
			return nil, err
		}
		next.Status = status
		paidAt := e.now()
		next.PaidAt = &paidAt
	}

	return next, nil
}

// VoidPayment marks a recorded payment void and recomputes the ledger.
// Voiding is the only correction mechanism; payment records are otherwise
// immutable.
func (e *Engine) VoidPayment(inv *Invoice, paymentID string) (*Invoice, error) {
	next := inv.Clone()

	found := false
	for i := range next.Payments {
		if next.Payments[i].ID == paymentID {
			if next.Payments[i].Voided {
				return nil, fmt.Errorf("%w: payment %s already voided", ErrInvalidPayment, paymentID)
			}
			next.Payments[i].Voided = true
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: payment %s not found", ErrInvalidPayment, paymentID)
	}

	next.UpdatedAt = e.now()
	return e.recompute(next)
}

// Transition moves the invoice to the target status, re-running the
// aggregator and ledger first so guard conditions never see stale totals.
// Only sent and cancelled are caller-reachable targets; paid is reached
// exclusively through ApplyPayment.
func (e *Engine) Transition(inv *Invoice, target Status) (*Invoice, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, target)
	}

	var trg Trigger
	switch target {
	case StatusSent:
		trg = TriggerSend
	case StatusCancelled:
		trg = TriggerCancel
	default:
		return nil, fmt.Errorf("%w: status %s is not directly reachable",
			ErrInvalidTransition, target)
	}

	next, err := e.Recompute(inv)
	if err != nil {
		return nil, err
	}

	status, err := e.lifecycle.Fire(next, trg)
	if err != nil {
		return nil, err
	}

	now := e.now()
	next.Status = status
	next.UpdatedAt = now
	if status == StatusSent {
		next.SentAt = &now
	}

	return next, nil
}

// UpdateInput carries the mutable fields of a draft invoice.
type UpdateInput struct {
	ClientID     *string
	IssueDate    *time.Time
	DueDate      *time.Time
	Jobs         []Job
	Items        []LineItem
	Shipping     *money.Money
	Handling     *money.Money
	OtherCharges *money.Money
	Terms        *string
	Notes        *string
	Footer       *string
}

// Update applies the given changes to a draft invoice and returns a new
// recomputed snapshot. Once sent, the bill of record is frozen and updates
// are rejected.
func (e *Engine) Update(inv *Invoice, in UpdateInput) (*Invoice, error) {
	if inv.Status != StatusDraft {
		return nil, fmt.Errorf("%w: cannot modify a %s invoice", ErrInvalidTransition, inv.Status)
	}

	next := inv.Clone()
	if in.ClientID != nil {
		next.ClientID = *in.ClientID
	}
	if in.IssueDate != nil {
		next.IssueDate = *in.IssueDate
	}
	if in.DueDate != nil {
		next.DueDate = *in.DueDate
	}
	if in.Jobs != nil {
		next.Jobs = append([]Job(nil), in.Jobs...)
	}
	if in.Items != nil {
		next.Items = append([]LineItem(nil), in.Items...)
	}
	if in.Shipping != nil {
		next.Shipping = *in.Shipping
	}
	if in.Handling != nil {
		next.Handling = *in.Handling
	}
	if in.OtherCharges != nil {
		next.OtherCharges = *in.OtherCharges
	}
	if in.Terms != nil {
		next.Terms = *in.Terms
	}
	if in.Notes != nil {
		next.Notes = *in.Notes
	}
	if in.Footer != nil {
		next.Footer = *in.Footer
	}

	if next.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client reference", ErrInvalidInvoice)
	}
	if err := ValidateDates(next.IssueDate, next.DueDate); err != nil {
		return nil, err
	}

	next.UpdatedAt = e.now()
	return e.recompute(next)
}

// Overdue reports whether the invoice is overdue as of the engine clock.
func (e *Engine) Overdue(inv *Invoice) bool {
	return inv.IsOverdue(e.now())
}
