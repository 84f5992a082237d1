// Package service orchestrates the pure invoice engine against the
// persistence layer. The engine never touches storage; this layer owns the
// read-modify-write cycle and the optimistic-concurrency retry that keeps
// concurrent writers from losing updates.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/checkmatevirtue/invoicing/internal/domain/invoice"
	"github.com/checkmatevirtue/invoicing/internal/store"
)

// ErrClientNotFound is returned when an invoice references a client id that
// is not in the directory.
var ErrClientNotFound = errors.New("client not found")

// ErrConflictRetriesExhausted is returned when an update kept losing the
// optimistic-concurrency race.
var ErrConflictRetriesExhausted = errors.New("too many concurrent updates")

// defaultMaxRetries bounds the read-modify-write retry loop.
const defaultMaxRetries = 3

// InvoiceService exposes the engine operations backed by a store.
type InvoiceService struct {
	engine     *invoice.Engine
	invoices   store.InvoiceStore
	clients    store.ClientStore
	ids        *invoice.IDGenerator
	logger     *zap.Logger
	maxRetries int
}

// NewInvoiceService creates the service. A nil idgen gets a real-clock
// generator.
func NewInvoiceService(
	engine *invoice.Engine,
	invoices store.InvoiceStore,
	clients store.ClientStore,
	ids *invoice.IDGenerator,
	logger *zap.Logger,
) *InvoiceService {
	if ids == nil {
		ids = invoice.NewIDGenerator(nil)
	}
	return &InvoiceService{
		engine:     engine,
		invoices:   invoices,
		clients:    clients,
		ids:        ids,
		logger:     logger,
		maxRetries: defaultMaxRetries,
	}
}

// Create validates the client reference, assigns record ids, runs the engine
// and persists the new draft invoice.
func (s *InvoiceService) Create(ctx context.Context, in invoice.CreateInput) (*invoice.Invoice, error) {
	if in.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client reference", invoice.ErrInvalidInvoice)
	}
	if _, err := s.clients.Get(ctx, in.ClientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrClientNotFound, in.ClientID)
		}
		return nil, err
	}

	if in.ID == "" {
		in.ID = s.ids.InvoiceID()
	}
	if in.Number == "" {
		in.Number = s.ids.InvoiceNumber()
	}
	for i := range in.Jobs {
		if in.Jobs[i].ID == "" {
			in.Jobs[i].ID = s.ids.JobID()
		}
	}
	assignItemIDs(in.Items)

	inv, err := s.engine.Create(in)
	if err != nil {
		return nil, err
	}

	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("Invoice created",
		zap.String("invoice_id", inv.ID),
		zap.String("invoice_number", inv.Number),
		zap.String("client_id", inv.ClientID),
		zap.String("total", inv.Total.String()))
	return inv, nil
}

// Get returns the stored invoice snapshot.
func (s *InvoiceService) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	return s.invoices.Get(ctx, id)
}

// List returns all stored invoices.
func (s *InvoiceService) List(ctx context.Context) ([]*invoice.Invoice, error) {
	return s.invoices.List(ctx)
}

// Delete removes an invoice.
func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	if err := s.invoices.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Invoice deleted", zap.String("invoice_id", id))
	return nil
}

// Update applies draft edits under the retry loop.
func (s *InvoiceService) Update(ctx context.Context, id string, in invoice.UpdateInput) (*invoice.Invoice, error) {
	if in.ClientID != nil && *in.ClientID != "" {
		if _, err := s.clients.Get(ctx, *in.ClientID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrClientNotFound, *in.ClientID)
			}
			return nil, err
		}
	}
	if in.Items != nil {
		assignItemIDs(in.Items)
	}
	if in.Jobs != nil {
		for i := range in.Jobs {
			if in.Jobs[i].ID == "" {
				in.Jobs[i].ID = s.ids.JobID()
			}
		}
	}

	return s.withRetry(ctx, id, "update", func(current *invoice.Invoice) (*invoice.Invoice, error) {
		return s.engine.Update(current, in)
	})
}

// Send transitions the invoice from draft to sent.
func (s *InvoiceService) Send(ctx context.Context, id string) (*invoice.Invoice, error) {
	return s.withRetry(ctx, id, "send", func(current *invoice.Invoice) (*invoice.Invoice, error) {
		return s.engine.Transition(current, invoice.StatusSent)
	})
}

// Cancel transitions the invoice to cancelled.
func (s *InvoiceService) Cancel(ctx context.Context, id string) (*invoice.Invoice, error) {
	return s.withRetry(ctx, id, "cancel", func(current *invoice.Invoice) (*invoice.Invoice, error) {
		return s.engine.Transition(current, invoice.StatusCancelled)
	})
}

// RecordPayment appends a payment and persists the recomputed snapshot,
// retrying the whole engine operation when another writer got there first.
// This is what keeps two concurrent payment submissions from losing one.
func (s *InvoiceService) RecordPayment(ctx context.Context, id string, p invoice.Payment) (*invoice.Invoice, error) {
	if p.ID == "" {
		p.ID = s.ids.PaymentID()
	}

	inv, err := s.withRetry(ctx, id, "payment", func(current *invoice.Invoice) (*invoice.Invoice, error) {
		return s.engine.ApplyPayment(current, p)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment recorded",
		zap.String("invoice_id", inv.ID),
		zap.String("payment_id", p.ID),
		zap.String("amount", p.Amount.String()),
		zap.String("balance_due", inv.BalanceDue.String()),
		zap.String("status", inv.Status.String()))
	return inv, nil
}

// VoidPayment voids a recorded payment under the retry loop.
func (s *InvoiceService) VoidPayment(ctx context.Context, id, paymentID string) (*invoice.Invoice, error) {
	return s.withRetry(ctx, id, "void payment", func(current *invoice.Invoice) (*invoice.Invoice, error) {
		return s.engine.VoidPayment(current, paymentID)
	})
}

// IsOverdue reports the derived overdue view for a snapshot.
func (s *InvoiceService) IsOverdue(inv *invoice.Invoice) bool {
	return s.engine.Overdue(inv)
}

// withRetry runs op under the at-most-one-writer-wins contract: load the
// latest snapshot, apply the engine operation, and attempt a version-checked
// update. On conflict the whole operation is re-run against the fresh
// snapshot, never blindly re-written.
func (s *InvoiceService) withRetry(
	ctx context.Context,
	id, opName string,
	op func(current *invoice.Invoice) (*invoice.Invoice, error),
) (*invoice.Invoice, error) {
	var lastConflict error

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		current, err := s.invoices.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		next, err := op(current)
		if err != nil {
			return nil, err
		}

		if err := s.invoices.Update(ctx, next, current.Version); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				lastConflict = err
				s.logger.Warn("Retrying after version conflict",
					zap.String("invoice_id", id),
					zap.String("operation", opName),
					zap.Int("attempt", attempt+1))
				continue
			}
			return nil, err
		}
		return next, nil
	}

	return nil, fmt.Errorf("%w: %s of invoice %s: %v",
		ErrConflictRetriesExhausted, opName, id, lastConflict)
}

// assignItemIDs numbers line items item_1, item_2, ... matching their
// position, keeping ids already present.
func assignItemIDs(items []invoice.LineItem) {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = fmt.Sprintf("item_%d", i+1)
		}
	}
}
