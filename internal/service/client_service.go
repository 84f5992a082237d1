package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/checkmatevirtue/invoicing/internal/domain/client"
	"github.com/checkmatevirtue/invoicing/internal/domain/invoice"
	"github.com/checkmatevirtue/invoicing/internal/store"
	"github.com/checkmatevirtue/invoicing/pkg/utils"
)

// ErrInvalidClient is returned when a client record fails validation.
var ErrInvalidClient = errors.New("invalid client")

// ClientService manages the client directory the invoices reference.
type ClientService struct {
	clients store.ClientStore
	ids     *invoice.IDGenerator
	now     func() time.Time
	logger  *zap.Logger
}

// NewClientService creates the service.
func NewClientService(clients store.ClientStore, ids *invoice.IDGenerator, now func() time.Time, logger *zap.Logger) *ClientService {
	if ids == nil {
		ids = invoice.NewIDGenerator(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &ClientService{clients: clients, ids: ids, now: now, logger: logger}
}

// Create registers a new client.
func (s *ClientService) Create(ctx context.Context, c client.Client) (*client.Client, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidClient)
	}
	if c.Contact.Email != "" {
		if err := utils.ValidateEmail(c.Contact.Email); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidClient, err)
		}
	}

	if c.ID == "" {
		c.ID = s.ids.ClientID()
	}
	now := s.now()
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := s.clients.Create(ctx, &c); err != nil {
		return nil, err
	}

	s.logger.Info("Client created",
		zap.String("client_id", c.ID),
		zap.String("name", c.Name))
	return &c, nil
}

// Get returns one client record.
func (s *ClientService) Get(ctx context.Context, id string) (*client.Client, error) {
	return s.clients.Get(ctx, id)
}

// List returns the full directory.
func (s *ClientService) List(ctx context.Context) ([]*client.Client, error) {
	return s.clients.List(ctx)
}
