package invoice

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkmatevirtue/invoicing/internal/domain/money"
)

var fixedNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	return NewEngine(func() time.Time { return fixedNow })
}

func createInput() CreateInput {
	return CreateInput{
		ID:        "INV_20250610_120000_0001",
		Number:    "INV-20250610-0001",
		ClientID:  "CLIENT_1",
		IssueDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
		Items:     []LineItem{testItem()},
		Charges:   Charges{Shipping: money.MustFromString("5.00")},
	}
}

func TestEngine_Create(t *testing.T) {
	e := testEngine()

	inv, err := e.Create(createInput())
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, inv.Status)
	assert.Equal(t, "100.00", inv.Subtotal.String())
	assert.Equal(t, "10.00", inv.DiscountAmount.String())
	assert.Equal(t, "7.20", inv.TaxAmount.String())
	// 100 − 10 + 7.20 + 5 shipping
	assert.Equal(t, "102.20", inv.Total.String())
	assert.Equal(t, "102.20", inv.BalanceDue.String())
	assert.False(t, inv.Paid)
	assert.Equal(t, "100.00", inv.PartsTotal.String())
	assert.True(t, inv.LaborTotal.IsZero())
}

func TestEngine_Create_Defaults(t *testing.T) {
	e := testEngine()

	in := createInput()
	in.IssueDate = time.Time{}
	in.DueDate = time.Time{}

	inv, err := e.Create(in)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), inv.IssueDate)
	assert.Equal(t, time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), inv.DueDate)
}

func TestEngine_Create_Invalid(t *testing.T) {
	e := testEngine()

	noClient := createInput()
	noClient.ClientID = ""
	_, err := e.Create(noClient)
	assert.ErrorIs(t, err, ErrInvalidInvoice)

	badDates := createInput()
	badDates.DueDate = badDates.IssueDate.AddDate(0, 0, -1)
	_, err = e.Create(badDates)
	assert.ErrorIs(t, err, ErrInvalidInvoice)

	badItem := createInput()
	badItem.Items[0].DiscountRate = dec("-1")
	_, err = e.Create(badItem)
	assert.ErrorIs(t, err, ErrInvalidLineItem)
}

func TestEngine_Recompute_Idempotent(t *testing.T) {
	e := testEngine()

	inv, err := e.Create(createInput())
	require.NoError(t, err)

	once, err := e.Recompute(inv)
	require.NoError(t, err)
	twice, err := e.Recompute(once)
	require.NoError(t, err)

	a, err := json.Marshal(once)
	require.NoError(t, err)
	b, err := json.Marshal(twice)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestEngine_Recompute_ReturnsNewSnapshot(t *testing.T) {
	e := testEngine()

	inv, err := e.Create(createInput())
	require.NoError(t, err)

	out, err := e.Recompute(inv)
	require.NoError(t, err)
	require.NotSame(t, inv, out)

	// Mutating the snapshot must not leak into the original.
	out.Items[0].Description = "changed"
	assert.Equal(t, "Brake pads", inv.Items[0].Description)
}

func TestEngine_SendThenPay(t *testing.T) {
	e := testEngine()

	inv, err := e.Create(createInput())
	require.NoError(t, err)

	sent, err := e.Transition(inv, StatusSent)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)
	assert.Equal(t, fixedNow, *sent.SentAt)

	paid, err := e.ApplyPayment(sent, pay("PAY_1", "102.20"))
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	assert.True(t, paid.Paid)
	assert.Equal(t, "0.00", paid.BalanceDue.String())
	require.NotNil(t, paid.PaidAt)
}

func TestEngine_Overpayment(t *testing.T) {
	e := testEngine()

	inv, err := e.Create(createInput())
	require.NoError(t, err)
	sent, err := e.Transition(inv, StatusSent)
	require.NoError(t, err)

	paid, err := e.ApplyPayment(sent, pay("PAY_1", "150.00"))
	require.NoError(t, err)
	assert.Equal(t, "-47.80", paid.BalanceDue.String())
	assert.True(t, paid.Paid)
	assert.Equal(t, StatusPaid, paid.Status)
}

func TestEngine_PaymentOnDraftRejected(t *testing.T) {
	e := testEngine()

	inv, err := e.Create(createInput())
	require.NoError(t, err)

	_, err = e.ApplyPayment(inv, pay("PAY_1", "10.00"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestEngine_NegativePaymentRejected(t *testing.T) {
	e := testEngine()

	inv, err := e.Create(createInput())
	require.NoError(t, err)
	sent, err := e.Transition(inv, StatusSent)
	require.NoError(t, err)

	_, err = e.ApplyPayment(sent, pay("PAY_1", "-5.00"))
	assert.ErrorIs(t, err, ErrInvalidPayment)
}

func TestEngine_VoidPayment(t *testing.T) {
	e := testEngine()

	inv, err := e.Create(createInput())
	require.NoError(t, err)
	sent, err := e.Transition(inv, StatusSent)
	require.NoError(t, err)
	paid, err := e.ApplyPayment(sent, pay("PAY_1", "102.20"))
	require.NoError(t, err)

	// Voiding reopens the balance but the paid status stays: status history
	// is not rewritten by a correction.
	voided, err := e.VoidPayment(paid, "PAY_1")
	require.NoError(t, err)
	assert.Equal(t, "102.20", voided.BalanceDue.String())
	assert.False(t, voided.Paid)

	_, err = e.VoidPayment(voided, "PAY_1")
	assert.ErrorIs(t, err, ErrInvalidPayment)

	_, err = e.VoidPayment(voided, "PAY_MISSING")
	assert.ErrorIs(t, err, ErrInvalidPayment)
}

func TestEngine_TransitionGuards(t *testing.T) {
	e := testEngine()

	empty := createInput()
	empty.Items = nil
	inv, err := e.Create(empty)
	require.NoError(t, err)

	_, err = e.Transition(inv, StatusSent)
	assert.ErrorIs(t, err, ErrInvalidInvoice)
}

func TestEngine_CancelPaidRejected(t *testing.T) {
	e := testEngine()

	inv, err := e.Create(createInput())
	require.NoError(t, err)
	sent, err := e.Transition(inv, StatusSent)
	require.NoError(t, err)
	paid, err := e.ApplyPayment(sent, pay("PAY_1", "102.20"))
	require.NoError(t, err)

	_, err = e.Transition(paid, StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestEngine_Cancel(t *testing.T) {
	e := testEngine()

	inv, err := e.Create(createInput())
	require.NoError(t, err)

	cancelled, err := e.Transition(inv, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = e.Transition(cancelled, StatusSent)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestEngine_PaidNotDirectlyReachable(t *testing.T) {
	e := testEngine()

	inv, err := e.Create(createInput())
	require.NoError(t, err)

	_, err = e.Transition(inv, StatusPaid)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = e.Transition(inv, StatusDraft)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = e.Transition(inv, Status("overdue"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestEngine_OverdueClearedByPayment(t *testing.T) {
	e := testEngine()

	in := createInput()
	in.IssueDate = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	in.DueDate = time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC) // yesterday
	inv, err := e.Create(in)
	require.NoError(t, err)

	sent, err := e.Transition(inv, StatusSent)
	require.NoError(t, err)
	assert.True(t, e.Overdue(sent))

	paid, err := e.ApplyPayment(sent, pay("PAY_1", "102.20"))
	require.NoError(t, err)
	assert.False(t, e.Overdue(paid), "paid takes precedence over overdue")
}

func TestEngine_Update(t *testing.T) {
	e := testEngine()

	inv, err := e.Create(createInput())
	require.NoError(t, err)

	shipping := money.MustFromString("10.00")
	updated, err := e.Update(inv, UpdateInput{Shipping: &shipping})
	require.NoError(t, err)
	assert.Equal(t, "107.20", updated.Total.String())

	// Sent invoices are frozen.
	sent, err := e.Transition(updated, StatusSent)
	require.NoError(t, err)
	_, err = e.Update(sent, UpdateInput{Shipping: &shipping})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestEngine_UpdateRejectsBadDates(t *testing.T) {
	e := testEngine()

	inv, err := e.Create(createInput())
	require.NoError(t, err)

	badDue := inv.IssueDate.AddDate(0, 0, -5)
	_, err = e.Update(inv, UpdateInput{DueDate: &badDue})
	assert.ErrorIs(t, err, ErrInvalidInvoice)
}
