package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/checkmatevirtue/invoicing/internal/domain/client"
	"github.com/checkmatevirtue/invoicing/internal/domain/invoice"
	"github.com/checkmatevirtue/invoicing/internal/domain/money"
)

func newTestFileStore(t *testing.T) *FileInvoiceStore {
	t.Helper()
	s, err := NewFileInvoiceStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return s
}

func storedInvoice(id string) *invoice.Invoice {
	return &invoice.Invoice{
		ID:        id,
		Number:    "INV-20250610-0001",
		ClientID:  "CLIENT_1",
		Status:    invoice.StatusDraft,
		IssueDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
		Total:     money.MustFromString("102.20"),
		CreatedAt: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileInvoiceStore_CreateAndGet(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	inv := storedInvoice("INV_1")
	require.NoError(t, s.Create(ctx, inv))
	assert.Equal(t, int64(1), inv.Version)

	got, err := s.Get(ctx, "INV_1")
	require.NoError(t, err)
	assert.Equal(t, "INV_1", got.ID)
	assert.True(t, got.Total.Equal(inv.Total))
	assert.Equal(t, int64(1), got.Version)

	_, err = s.Get(ctx, "INV_MISSING")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.Create(ctx, storedInvoice("INV_1"))
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestFileInvoiceStore_UpdateVersionCheck(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	inv := storedInvoice("INV_1")
	require.NoError(t, s.Create(ctx, inv))

	// First writer wins.
	require.NoError(t, s.Update(ctx, inv, 1))
	assert.Equal(t, int64(2), inv.Version)

	// Second writer holding the stale version loses.
	stale := storedInvoice("INV_1")
	err := s.Update(ctx, stale, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	// Retrying against the latest version succeeds.
	latest, err := s.Get(ctx, "INV_1")
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, latest, latest.Version))
	assert.Equal(t, int64(3), latest.Version)
}

func TestFileInvoiceStore_UpdateMissing(t *testing.T) {
	s := newTestFileStore(t)
	err := s.Update(context.Background(), storedInvoice("INV_GONE"), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileInvoiceStore_Delete(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, storedInvoice("INV_1")))
	require.NoError(t, s.Delete(ctx, "INV_1"))

	_, err := s.Get(ctx, "INV_1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "INV_1"), ErrNotFound)
}

func TestFileInvoiceStore_List(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, storedInvoice("INV_1")))
	require.NoError(t, s.Create(ctx, storedInvoice("INV_2")))

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "INV_1", all[0].ID)
	assert.Equal(t, "INV_2", all[1].ID)
}

func TestFileInvoiceStore_MoneySerializedAsStrings(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileInvoiceStore(dir, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Create(context.Background(), storedInvoice("INV_1")))

	raw, err := os.ReadFile(filepath.Join(dir, "invoices.json"))
	require.NoError(t, err)

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &records))
	require.Len(t, records, 1)

	// Monetary fields must be exact decimal strings on disk, never floats.
	total, ok := records[0]["total"].(string)
	require.True(t, ok, "total should be a JSON string, got %T", records[0]["total"])
	assert.Equal(t, "102.20", total)
}

func TestFileInvoiceStore_SnapshotIsolation(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	inv := storedInvoice("INV_1")
	inv.Items = []invoice.LineItem{{ID: "i1", Description: "original"}}
	require.NoError(t, s.Create(ctx, inv))

	got, err := s.Get(ctx, "INV_1")
	require.NoError(t, err)
	got.Items[0].Description = "mutated"

	again, err := s.Get(ctx, "INV_1")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Items[0].Description)
}

func TestFileClientStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileClientStore(dir, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	c := &client.Client{ID: "CLIENT_1", Name: "Acme Auto"}
	require.NoError(t, s.Create(ctx, c))
	assert.ErrorIs(t, s.Create(ctx, c), ErrDuplicateID)

	got, err := s.Get(ctx, "CLIENT_1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Auto", got.Name)

	_, err = s.Get(ctx, "CLIENT_2")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
