// internal/domain/analytics/repository.go
package analytics

import (
	"context"

	"showroom-service/internal/domain/customer"

	"github.com/google/uuid"
)

// InteractionFilter narrows a read. An empty Phone matches every customer.
type InteractionFilter struct {
	Window Window
	Phone  string
}

// InteractionReader adapts one storage shape of customer interactions.
type InteractionReader interface {
	Source() Source
	ReadInteractions(ctx context.Context, filter InteractionFilter) ([]Interaction, error)
}

// Repository exposes the aggregate queries the reports need.
type Repository interface {
	// RawKindCounts tallies activity log entries per kind inside the window.
	RawKindCounts(ctx context.Context, window Window) (*StageCounts, error)
	VehicleLabels(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	ForecastInputs(ctx context.Context) (*ForecastInputs, error)
	ListCustomers(ctx context.Context) ([]customer.Customer, error)
}
