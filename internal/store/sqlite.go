package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/checkmatevirtue/invoicing/internal/domain/client"
	"github.com/checkmatevirtue/invoicing/internal/domain/invoice"
	"github.com/checkmatevirtue/invoicing/pkg/database"
)

// SQLiteInvoiceStore persists each invoice as a JSON document row. The
// version column implements the compare-and-swap contract: an update only
// lands when the stored version matches the version the caller read.
type SQLiteInvoiceStore struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSQLiteInvoiceStore creates a new SQLite-backed invoice store.
func NewSQLiteInvoiceStore(db *database.DB, logger *zap.Logger) *SQLiteInvoiceStore {
	return &SQLiteInvoiceStore{db: db, logger: logger}
}

// Create inserts a new invoice document at version 1.
func (s *SQLiteInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	stored := inv.Clone()
	stored.Version = 1

	doc, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode invoice %s: %w", inv.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (id, invoice_number, client_id, status, version, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, stored.ID, stored.Number, stored.ClientID, stored.Status.String(),
		stored.Version, string(doc), stored.CreatedAt, stored.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: invoice %s", ErrDuplicateID, inv.ID)
		}
		s.logger.Error("Failed to create invoice", zap.String("invoice_id", inv.ID), zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	inv.Version = stored.Version
	return nil
}

// Get returns the invoice with the given id.
func (s *SQLiteInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT document FROM invoices WHERE id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch invoice %s: %w", id, err)
	}
	return decodeInvoice(doc)
}

// List returns all invoices, newest first.
func (s *SQLiteInvoiceStore) List(ctx context.Context) ([]*invoice.Invoice, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT document FROM invoices ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var out []*invoice.Invoice
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		inv, err := decodeInvoice(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Update replaces the document if the stored version still matches
// expectedVersion, incrementing the version in the same statement.
func (s *SQLiteInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice, expectedVersion int64) error {
	stored := inv.Clone()
	stored.Version = expectedVersion + 1

	doc, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode invoice %s: %w", inv.ID, err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE invoices
		SET invoice_number = ?, client_id = ?, status = ?, version = ?, document = ?, updated_at = ?
		WHERE id = ? AND version = ?
	`, stored.Number, stored.ClientID, stored.Status.String(), stored.Version,
		string(doc), stored.UpdatedAt, stored.ID, expectedVersion)
	if err != nil {
		s.logger.Error("Failed to update invoice", zap.String("invoice_id", inv.ID), zap.Error(err))
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		// Either the row is gone or another writer won the race.
		var current int64
		err := s.db.QueryRowContext(ctx,
			"SELECT version FROM invoices WHERE id = ?", inv.ID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: invoice %s", ErrNotFound, inv.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to check invoice version: %w", err)
		}
		s.logger.Warn("Invoice version conflict",
			zap.String("invoice_id", inv.ID),
			zap.Int64("expected", expectedVersion),
			zap.Int64("stored", current))
		return fmt.Errorf("%w: invoice %s expected v%d, stored v%d",
			ErrVersionConflict, inv.ID, expectedVersion, current)
	}

	inv.Version = expectedVersion + 1
	return nil
}

// Delete removes the invoice with the given id.
func (s *SQLiteInvoiceStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM invoices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: invoice %s", ErrNotFound, id)
	}
	return nil
}

func decodeInvoice(doc string) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	if err := json.Unmarshal([]byte(doc), &inv); err != nil {
		return nil, fmt.Errorf("failed to decode invoice document: %w", err)
	}
	return &inv, nil
}

// SQLiteClientStore persists client directory records as JSON documents.
type SQLiteClientStore struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSQLiteClientStore creates a new SQLite-backed client store.
func NewSQLiteClientStore(db *database.DB, logger *zap.Logger) *SQLiteClientStore {
	return &SQLiteClientStore{db: db, logger: logger}
}

// Create inserts a new client record.
func (s *SQLiteClientStore) Create(ctx context.Context, c *client.Client) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode client %s: %w", c.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.ID, c.Name, string(doc), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: client %s", ErrDuplicateID, c.ID)
		}
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// Get returns the client with the given id.
func (s *SQLiteClientStore) Get(ctx context.Context, id string) (*client.Client, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT document FROM clients WHERE id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: client %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch client %s: %w", id, err)
	}

	var c client.Client
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return nil, fmt.Errorf("failed to decode client document: %w", err)
	}
	return &c, nil
}

// List returns all clients ordered by name.
func (s *SQLiteClientStore) List(ctx context.Context) ([]*client.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT document FROM clients ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var out []*client.Client
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var c client.Client
		if err := json.Unmarshal([]byte(doc), &c); err != nil {
			return nil, fmt.Errorf("failed to decode client document: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	// mattn/go-sqlite3 reports constraint violations as sqlite3.Error; the
	// message check avoids depending on the cgo error type here.
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY constraint failed"))
}
