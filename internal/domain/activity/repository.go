// internal/domain/activity/repository.go
package activity

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Activity) error
	FindByID(ctx context.Context, id uuid.UUID) (*Activity, error)
	// PatchOfferStatus is the only mutation allowed on a log entry.
	PatchOfferStatus(ctx context.Context, id uuid.UUID, status OfferStatus) error
	// FindPendingOffer locates the pending cash-offer entry of a customer on a vehicle.
	FindPendingOffer(ctx context.Context, customerID, vehicleID uuid.UUID) (*Activity, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]Activity, error)
}
