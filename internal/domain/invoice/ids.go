package invoice

import (
	"fmt"
	"sync"
	"time"
)

// ID generation mirrors the established record formats: a machine id of the
// form PREFIX_YYYYMMDD_HHMMSS plus a sequence suffix to keep ids unique
// within one second, and a human-readable invoice number INV-YYYYMMDD-NNNN.

// IDGenerator produces record identifiers. It is safe for concurrent use;
// one instance is shared across services.
type IDGenerator struct {
	now func() time.Time

	mu  sync.Mutex
	seq int
}

// NewIDGenerator creates a generator using the given clock. A nil clock
// defaults to time.Now.
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

func (g *IDGenerator) next(prefix string) string {
	g.mu.Lock()
	g.seq++
	seq := g.seq
	g.mu.Unlock()
	return fmt.Sprintf("%s_%s_%04d", prefix, g.now().Format("20060102_150405"), seq)
}

// InvoiceID returns a new invoice record id.
func (g *IDGenerator) InvoiceID() string { return g.next("INV") }

// InvoiceNumber returns a new human-readable invoice number.
func (g *IDGenerator) InvoiceNumber() string {
	g.mu.Lock()
	g.seq++
	seq := g.seq
	g.mu.Unlock()
	return fmt.Sprintf("INV-%s-%04d", g.now().Format("20060102"), seq)
}

// PaymentID returns a new payment record id.
func (g *IDGenerator) PaymentID() string { return g.next("PAY") }

// JobID returns a new job record id.
func (g *IDGenerator) JobID() string { return g.next("JOB") }

// ClientID returns a new client record id.
func (g *IDGenerator) ClientID() string { return g.next("CLIENT") }
