// Package store persists invoice and client records. Two implementations
// share one contract: a flat JSON file store and a SQLite document store.
// Both enforce optimistic concurrency on invoice updates via a version
// counter, so two concurrent payment submissions can never silently lose one
// payment.
package store

import (
	"context"
	"errors"

	"github.com/checkmatevirtue/invoicing/internal/domain/client"
	"github.com/checkmatevirtue/invoicing/internal/domain/invoice"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when the invoice on disk is no longer
	// the version the caller computed from. The caller must reload and
	// retry the whole operation against the latest version.
	ErrVersionConflict = errors.New("invoice version conflict")

	// ErrDuplicateID is returned when creating a record whose id already
	// exists.
	ErrDuplicateID = errors.New("duplicate record id")
)

// InvoiceStore persists invoice snapshots.
//
// Update performs a compare-and-swap on the version counter: it succeeds
// only when the stored version equals expectedVersion, and increments the
// version on success. The invoice passed in is stored with the incremented
// version.
type InvoiceStore interface {
	Create(ctx context.Context, inv *invoice.Invoice) error
	Get(ctx context.Context, id string) (*invoice.Invoice, error)
	List(ctx context.Context) ([]*invoice.Invoice, error)
	Update(ctx context.Context, inv *invoice.Invoice, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
}

// ClientStore persists client directory records.
type ClientStore interface {
	Create(ctx context.Context, c *client.Client) error
	Get(ctx context.Context, id string) (*client.Client, error)
	List(ctx context.Context) ([]*client.Client, error)
}
