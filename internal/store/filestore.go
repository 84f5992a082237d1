package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/checkmatevirtue/invoicing/internal/domain/client"
	"github.com/checkmatevirtue/invoicing/internal/domain/invoice"
)

// FileInvoiceStore persists invoices as one JSON array in invoices.json,
// the historical flat-file layout. A process-wide mutex serializes access;
// the version check still applies so that multi-step read-modify-write
// sequences spanning several requests detect lost updates.
type FileInvoiceStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileInvoiceStore creates the store rooted at dataDir, creating the
// directory and an empty invoices.json if needed.
func NewFileInvoiceStore(dataDir string, logger *zap.Logger) (*FileInvoiceStore, error) {
	path := filepath.Join(dataDir, "invoices.json")
	if err := ensureJSONFile(dataDir, path); err != nil {
		return nil, err
	}
	return &FileInvoiceStore{path: path, logger: logger}, nil
}

// Create appends a new invoice record.
func (s *FileInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.ID == inv.ID {
			return fmt.Errorf("%w: invoice %s", ErrDuplicateID, inv.ID)
		}
	}

	stored := inv.Clone()
	stored.Version = 1
	records = append(records, stored)

	if err := s.save(records); err != nil {
		return err
	}
	inv.Version = stored.Version

	s.logger.Debug("Invoice created",
		zap.String("invoice_id", inv.ID),
		zap.String("path", s.path))
	return nil
}

// Get returns the invoice with the given id.
func (s *FileInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.ID == id {
			return r.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, id)
}

// List returns every invoice in file order.
func (s *FileInvoiceStore) List(ctx context.Context) ([]*invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]*invoice.Invoice, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out, nil
}

// Update replaces the stored invoice if and only if its version still equals
// expectedVersion, then increments the version.
func (s *FileInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	for i, r := range records {
		if r.ID != inv.ID {
			continue
		}
		if r.Version != expectedVersion {
			s.logger.Warn("Invoice version conflict",
				zap.String("invoice_id", inv.ID),
				zap.Int64("expected", expectedVersion),
				zap.Int64("stored", r.Version))
			return fmt.Errorf("%w: invoice %s expected v%d, stored v%d",
				ErrVersionConflict, inv.ID, expectedVersion, r.Version)
		}

		stored := inv.Clone()
		stored.Version = expectedVersion + 1
		records[i] = stored

		if err := s.save(records); err != nil {
			return err
		}
		inv.Version = stored.Version
		return nil
	}

	return fmt.Errorf("%w: invoice %s", ErrNotFound, inv.ID)
}

// Delete removes the invoice with the given id.
func (s *FileInvoiceStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	for i, r := range records {
		if r.ID == id {
			records = append(records[:i], records[i+1:]...)
			return s.save(records)
		}
	}
	return fmt.Errorf("%w: invoice %s", ErrNotFound, id)
}

func (s *FileInvoiceStore) load() ([]*invoice.Invoice, error) {
	var records []*invoice.Invoice
	if err := loadJSONFile(s.path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *FileInvoiceStore) save(records []*invoice.Invoice) error {
	return saveJSONFile(s.path, records)
}

// FileClientStore persists the client directory in clients.json.
type FileClientStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileClientStore creates the store rooted at dataDir.
func NewFileClientStore(dataDir string, logger *zap.Logger) (*FileClientStore, error) {
	path := filepath.Join(dataDir, "clients.json")
	if err := ensureJSONFile(dataDir, path); err != nil {
		return nil, err
	}
	return &FileClientStore{path: path, logger: logger}, nil
}

// Create appends a new client record.
func (s *FileClientStore) Create(ctx context.Context, c *client.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []*client.Client
	if err := loadJSONFile(s.path, &records); err != nil {
		return err
	}
	for _, r := range records {
		if r.ID == c.ID {
			return fmt.Errorf("%w: client %s", ErrDuplicateID, c.ID)
		}
	}
	records = append(records, c)
	return saveJSONFile(s.path, records)
}

// Get returns the client with the given id.
func (s *FileClientStore) Get(ctx context.Context, id string) (*client.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []*client.Client
	if err := loadJSONFile(s.path, &records); err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.ID == id {
			out := *r
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: client %s", ErrNotFound, id)
}

// List returns every client in file order.
func (s *FileClientStore) List(ctx context.Context) ([]*client.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []*client.Client
	if err := loadJSONFile(s.path, &records); err != nil {
		return nil, err
	}
	out := make([]*client.Client, len(records))
	for i, r := range records {
		c := *r
		out[i] = &c
	}
	return out, nil
}

func ensureJSONFile(dir, path string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func loadJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// saveJSONFile writes via a temp file and rename so a crash mid-write never
// truncates the data file.
func saveJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
