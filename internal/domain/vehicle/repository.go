// internal/domain/vehicle/repository.go
package vehicle

import (
	"context"
	"time"

	"showroom-service/internal/domain/activity"

	"github.com/google/uuid"
)

type Repository interface {
	// Inventory
	Create(ctx context.Context, v *Vehicle) error
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	Update(ctx context.Context, v *Vehicle) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	List(ctx context.Context, filters *ListFilters) ([]Vehicle, int64, error)
	ExistsByPlateNumber(ctx context.Context, plate string) (bool, error)

	// Embedded interactions
	AppendTestDriveBooking(ctx context.Context, id uuid.UUID, b TestDriveBooking) error
	AppendCashOffer(ctx context.Context, id uuid.UUID, o CashOffer) error
	AppendCreditSimulation(ctx context.Context, id uuid.UUID, s CreditSimulation) error
	UpdateCashOfferStatus(ctx context.Context, id uuid.UUID, offerID string, status activity.OfferStatus, decidedAt time.Time) error
}
