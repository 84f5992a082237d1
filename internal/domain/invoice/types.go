package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/checkmatevirtue/invoicing/internal/domain/money"
)

// Status represents the invoice payment lifecycle status.
//
// Overdue is deliberately not a Status: it is a derived view of a sent
// invoice past its due date, computed on read (see Invoice.IsOverdue).
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

var validStatuses = map[Status]bool{
	StatusDraft:     true,
	StatusSent:      true,
	StatusPaid:      true,
	StatusCancelled: true,
}

var terminalStatuses = map[Status]bool{
	StatusPaid:      true,
	StatusCancelled: true,
}

// IsValid returns true if the status is one of the closed set.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal returns true if no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Category classifies a line item for the per-category invoice breakdown.
type Category string

const (
	CategoryLabor     Category = "labor"
	CategoryParts     Category = "parts"
	CategoryMaterials Category = "materials"
	CategoryService   Category = "service"
	CategoryOther     Category = "other"
)

var validCategories = map[Category]bool{
	CategoryLabor:     true,
	CategoryParts:     true,
	CategoryMaterials: true,
	CategoryService:   true,
	CategoryOther:     true,
}

// IsValid returns true if the category is one of the closed set.
func (c Category) IsValid() bool {
	return validCategories[c]
}

// PaymentMethod identifies how a payment was made.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCheck        PaymentMethod = "check"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodPayPal       PaymentMethod = "paypal"
	MethodStripe       PaymentMethod = "stripe"
	MethodOther        PaymentMethod = "other"
)

var validMethods = map[PaymentMethod]bool{
	MethodCash:         true,
	MethodCheck:        true,
	MethodBankTransfer: true,
	MethodCreditCard:   true,
	MethodPayPal:       true,
	MethodStripe:       true,
	MethodOther:        true,
}

// IsValid returns true if the payment method is one of the closed set.
func (m PaymentMethod) IsValid() bool {
	return validMethods[m]
}

// LineItem is one billable row on an invoice. The monetary fields under
// "derived" are never a source of truth; the engine recomputes them from the
// raw fields on every mutation.
type LineItem struct {
	ID           string          `json:"id"`
	JobID        string          `json:"job_id,omitempty"`
	Category     Category        `json:"category"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    money.Money     `json:"unit_price"`
	Unit         string          `json:"unit,omitempty"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	DiscountRate decimal.Decimal `json:"discount_rate"`
	Notes        string          `json:"notes,omitempty"`

	// Derived, recomputed by the engine.
	Subtotal       money.Money `json:"subtotal"`
	DiscountAmount money.Money `json:"discount_amount"`
	TaxableAmount  money.Money `json:"taxable_amount"`
	TaxAmount      money.Money `json:"tax_amount"`
	Total          money.Money `json:"total"`
}

// Job is a named grouping of line items (work order). It exists for
// presentation and breakdown only and carries no calculation semantics.
type Job struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	JobNumber      string     `json:"job_number,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
	Status         string     `json:"status,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

// Payment is one recorded payment against an invoice. Payments are immutable
// once recorded: a correction is a new payment or an explicit void, never a
// mutation.
type Payment struct {
	ID        string        `json:"id"`
	InvoiceID string        `json:"invoice_id"`
	Amount    money.Money   `json:"amount"`
	Date      time.Time     `json:"date"`
	Method    PaymentMethod `json:"method"`
	Reference string        `json:"reference,omitempty"`
	Notes     string        `json:"notes,omitempty"`
	Voided    bool          `json:"voided,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Invoice is the complete invoice record. Every monetary field below the
// line item list is derived and recomputed by the engine; the persisted copy
// exists only so collaborators (PDF, reporting) never have to recompute.
type Invoice struct {
	ID           string `json:"id"`
	Number       string `json:"invoice_number"`
	ClientID     string `json:"client_id"`
	InspectionID string `json:"inspection_id,omitempty"`
	IndustryType string `json:"industry_type,omitempty"`

	IssueDate time.Time `json:"issue_date"`
	DueDate   time.Time `json:"due_date"`
	Status    Status    `json:"status"`

	Jobs     []Job      `json:"jobs"`
	Items    []LineItem `json:"items"`
	Payments []Payment  `json:"payments"`

	Shipping     money.Money `json:"shipping"`
	Handling     money.Money `json:"handling"`
	OtherCharges money.Money `json:"other_charges"`

	// Aggregate totals, derived.
	Subtotal       money.Money `json:"subtotal"`
	DiscountAmount money.Money `json:"discount_amount"`
	TaxAmount      money.Money `json:"tax_amount"`
	Total          money.Money `json:"total"`
	LaborTotal     money.Money `json:"labor_total"`
	PartsTotal     money.Money `json:"parts_total"`
	MaterialsTotal money.Money `json:"materials_total"`
	ServiceTotal   money.Money `json:"service_total"`

	// Ledger summary, derived.
	AmountPaid money.Money `json:"amount_paid"`
	BalanceDue money.Money `json:"balance_due"`
	Paid       bool        `json:"is_paid"`

	Terms  string `json:"terms,omitempty"`
	Notes  string `json:"notes,omitempty"`
	Footer string `json:"footer,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`

	// Version is the optimistic concurrency counter maintained by the store;
	// the engine carries it through untouched.
	Version int64 `json:"version"`
}

// IsOverdue reports whether the invoice is a sent, unpaid invoice past its
// due date as of the given day. A paid invoice is never overdue.
func (inv *Invoice) IsOverdue(today time.Time) bool {
	return inv.Status == StatusSent &&
		inv.DueDate.Before(truncateToDay(today)) &&
		!inv.Paid
}

// Clone returns a deep copy of the invoice. Engine operations clone before
// recomputing so every operation yields an independent snapshot.
func (inv *Invoice) Clone() *Invoice {
	out := *inv
	out.Jobs = append([]Job(nil), inv.Jobs...)
	out.Items = append([]LineItem(nil), inv.Items...)
	out.Payments = append([]Payment(nil), inv.Payments...)
	if inv.SentAt != nil {
		t := *inv.SentAt
		out.SentAt = &t
	}
	if inv.PaidAt != nil {
		t := *inv.PaidAt
		out.PaidAt = &t
	}
	return &out
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
