// internal/domain/customer/repository.go
package customer

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByPhone(ctx context.Context, phone string) (*Customer, error)
	// SaveInteraction persists name, status, last activity, counter, history
	// and summary of an existing customer.
	SaveInteraction(ctx context.Context, c *Customer) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error
	List(ctx context.Context, filters *ListFilters) ([]Customer, int64, error)
	// ListActiveSince returns non-purchased customers active after since.
	ListActiveSince(ctx context.Context, since time.Time) ([]Customer, error)
	Stats(ctx context.Context, now time.Time) (*Stats, error)
}
