package invoice

import (
	"fmt"
	"time"
)

// Trigger is an event that can cause a status transition.
type Trigger string

const (
	// TriggerSend moves a draft invoice to sent and stamps sent_at.
	TriggerSend Trigger = "SEND"

	// TriggerMarkPaid moves a sent invoice to paid. It is fired internally
	// by the engine when a payment recomputation makes the invoice paid;
	// callers cannot fire it directly.
	TriggerMarkPaid Trigger = "MARK_PAID"

	// TriggerCancel moves a draft or sent invoice to cancelled.
	TriggerCancel Trigger = "CANCEL"
)

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	return string(t)
}

// guardFunc evaluates whether a transition is allowed for the given invoice.
// The invoice has fresh totals and ledger fields by the time a guard runs;
// the lifecycle re-runs aggregation before every Fire so guards never see
// stale amounts.
type guardFunc func(inv *Invoice) error

type transition struct {
	to    Status
	guard guardFunc
}

// Lifecycle is the invoice status state machine. A single configured
// instance is shared by all engine operations; it holds no per-invoice
// state.
type Lifecycle struct {
	transitions map[Status]map[Trigger]transition
}

type lifecycleBuilder struct {
	transitions map[Status]map[Trigger]transition
}

type statusConfig struct {
	builder *lifecycleBuilder
	from    Status
}

func newLifecycleBuilder() *lifecycleBuilder {
	return &lifecycleBuilder{transitions: make(map[Status]map[Trigger]transition)}
}

func (b *lifecycleBuilder) configure(from Status) *statusConfig {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid status: %s", from))
	}
	if _, ok := b.transitions[from]; !ok {
		b.transitions[from] = make(map[Trigger]transition)
	}
	return &statusConfig{builder: b, from: from}
}

func (c *statusConfig) permit(trg Trigger, to Status) *statusConfig {
	return c.permitIf(trg, to, nil)
}

func (c *statusConfig) permitIf(trg Trigger, to Status, guard guardFunc) *statusConfig {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target status: %s", to))
	}
	c.builder.transitions[c.from][trg] = transition{to: to, guard: guard}
	return c
}

func (b *lifecycleBuilder) build() *Lifecycle {
	return &Lifecycle{transitions: b.transitions}
}

// NewLifecycle configures the invoice state machine:
//
//	draft → sent       requires ≥1 line item and a client reference
//	sent  → paid       only via TriggerMarkPaid, requires the ledger to
//	                   report the invoice as paid
//	draft → cancelled
//	sent  → cancelled
//
// paid and cancelled are terminal.
func NewLifecycle() *Lifecycle {
	b := newLifecycleBuilder()

	b.configure(StatusDraft).
		permitIf(TriggerSend, StatusSent, guardSendable).
		permit(TriggerCancel, StatusCancelled)

	b.configure(StatusSent).
		permitIf(TriggerMarkPaid, StatusPaid, guardPaid).
		permit(TriggerCancel, StatusCancelled)

	return b.build()
}

// CanFire returns true if the trigger is permitted from the given status,
// ignoring guard conditions.
func (l *Lifecycle) CanFire(from Status, trg Trigger) bool {
	_, ok := l.transitions[from][trg]
	return ok
}

// Fire validates the transition for the invoice and returns the resulting
// status. The invoice itself is not modified; the engine applies the result
// to a fresh snapshot.
func (l *Lifecycle) Fire(inv *Invoice, trg Trigger) (Status, error) {
	t, ok := l.transitions[inv.Status][trg]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s from status %s",
			ErrInvalidTransition, trg, inv.Status)
	}
	if t.guard != nil {
		if err := t.guard(inv); err != nil {
			return "", err
		}
	}
	return t.to, nil
}

// PermittedTriggers returns the triggers that have a configured transition
// from the given status.
func (l *Lifecycle) PermittedTriggers(from Status) []Trigger {
	cfg := l.transitions[from]
	triggers := make([]Trigger, 0, len(cfg))
	for trg := range cfg {
		triggers = append(triggers, trg)
	}
	return triggers
}

func guardSendable(inv *Invoice) error {
	if inv.ClientID == "" {
		return fmt.Errorf("%w: cannot send without a client reference", ErrInvalidInvoice)
	}
	if len(inv.Items) == 0 {
		return fmt.Errorf("%w: cannot send with no line items", ErrInvalidInvoice)
	}
	return nil
}

func guardPaid(inv *Invoice) error {
	if !inv.Paid {
		return fmt.Errorf("%w: balance due %s is positive", ErrInvalidTransition, inv.BalanceDue)
	}
	return nil
}

// ValidateDates checks the issue/due date invariant shared by create and
// update paths.
func ValidateDates(issue, due time.Time) error {
	if due.Before(issue) {
		return fmt.Errorf("%w: due date %s before issue date %s",
			ErrInvalidInvoice, due.Format("2006-01-02"), issue.Format("2006-01-02"))
	}
	return nil
}
