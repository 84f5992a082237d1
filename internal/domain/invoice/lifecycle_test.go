package invoice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusDraft, false},
		{StatusSent, false},
		{StatusPaid, true},
		{StatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestStatus_IsValid(t *testing.T) {
	assert.True(t, StatusDraft.IsValid())
	assert.True(t, StatusCancelled.IsValid())
	assert.False(t, Status("overdue").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestLifecycle_CanFire(t *testing.T) {
	l := NewLifecycle()

	assert.True(t, l.CanFire(StatusDraft, TriggerSend))
	assert.True(t, l.CanFire(StatusDraft, TriggerCancel))
	assert.True(t, l.CanFire(StatusSent, TriggerMarkPaid))
	assert.True(t, l.CanFire(StatusSent, TriggerCancel))

	assert.False(t, l.CanFire(StatusDraft, TriggerMarkPaid))
	assert.False(t, l.CanFire(StatusPaid, TriggerCancel))
	assert.False(t, l.CanFire(StatusPaid, TriggerSend))
	assert.False(t, l.CanFire(StatusCancelled, TriggerSend))
}

func TestLifecycle_SendGuards(t *testing.T) {
	l := NewLifecycle()

	sendable := &Invoice{
		Status:   StatusDraft,
		ClientID: "CLIENT_1",
		Items:    []LineItem{{}},
	}
	status, err := l.Fire(sendable, TriggerSend)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, status)

	noItems := &Invoice{Status: StatusDraft, ClientID: "CLIENT_1"}
	_, err = l.Fire(noItems, TriggerSend)
	assert.ErrorIs(t, err, ErrInvalidInvoice)

	noClient := &Invoice{Status: StatusDraft, Items: []LineItem{{}}}
	_, err = l.Fire(noClient, TriggerSend)
	assert.ErrorIs(t, err, ErrInvalidInvoice)
}

func TestLifecycle_MarkPaidGuard(t *testing.T) {
	l := NewLifecycle()

	unpaid := &Invoice{Status: StatusSent, Paid: false}
	_, err := l.Fire(unpaid, TriggerMarkPaid)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	paid := &Invoice{Status: StatusSent, Paid: true}
	status, err := l.Fire(paid, TriggerMarkPaid)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, status)
}

func TestLifecycle_TerminalStates(t *testing.T) {
	l := NewLifecycle()

	for _, from := range []Status{StatusPaid, StatusCancelled} {
		for _, trg := range []Trigger{TriggerSend, TriggerMarkPaid, TriggerCancel} {
			_, err := l.Fire(&Invoice{Status: from}, trg)
			assert.ErrorIs(t, err, ErrInvalidTransition,
				"expected %s from %s to be rejected", trg, from)
		}
	}
}

func TestLifecycle_PermittedTriggers(t *testing.T) {
	l := NewLifecycle()

	assert.ElementsMatch(t, []Trigger{TriggerSend, TriggerCancel}, l.PermittedTriggers(StatusDraft))
	assert.ElementsMatch(t, []Trigger{TriggerMarkPaid, TriggerCancel}, l.PermittedTriggers(StatusSent))
	assert.Empty(t, l.PermittedTriggers(StatusPaid))
	assert.Empty(t, l.PermittedTriggers(StatusCancelled))
}

func TestValidateDates(t *testing.T) {
	issue := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateDates(issue, issue))
	assert.NoError(t, ValidateDates(issue, issue.AddDate(0, 0, 30)))
	assert.ErrorIs(t, ValidateDates(issue, issue.AddDate(0, 0, -1)), ErrInvalidInvoice)
}

func TestInvoice_IsOverdue(t *testing.T) {
	today := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)
	yesterday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		inv  Invoice
		want bool
	}{
		{"sent past due unpaid", Invoice{Status: StatusSent, DueDate: yesterday}, true},
		{"sent past due but paid", Invoice{Status: StatusSent, DueDate: yesterday, Paid: true}, false},
		{"sent not yet due", Invoice{Status: StatusSent, DueDate: tomorrow}, false},
		{"sent due today", Invoice{Status: StatusSent, DueDate: truncateToDay(today)}, false},
		{"draft past due", Invoice{Status: StatusDraft, DueDate: yesterday}, false},
		{"paid status past due", Invoice{Status: StatusPaid, DueDate: yesterday, Paid: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.inv.IsOverdue(today))
		})
	}
}
