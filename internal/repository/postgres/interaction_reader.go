// internal/repository/postgres/interaction_reader.go
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"showroom-service/internal/domain/activity"
	"showroom-service/internal/domain/analytics"
	"showroom-service/internal/domain/vehicle"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EmbeddedInteractionReader reads the interaction bags stored on vehicle rows.
type EmbeddedInteractionReader struct {
	db *pgxpool.Pool
}

func NewEmbeddedInteractionReader(db *pgxpool.Pool) *EmbeddedInteractionReader {
	return &EmbeddedInteractionReader{db: db}
}

func (r *EmbeddedInteractionReader) Source() analytics.Source {
	return analytics.SourceEmbedded
}

func (r *EmbeddedInteractionReader) ReadInteractions(ctx context.Context, filter analytics.InteractionFilter) ([]analytics.Interaction, error) {
	query := `
		SELECT id, interactions FROM vehicles
		WHERE jsonb_array_length(COALESCE(interactions->'test_drive_bookings', '[]'::jsonb)) > 0
		   OR jsonb_array_length(COALESCE(interactions->'cash_offers', '[]'::jsonb)) > 0
		   OR jsonb_array_length(COALESCE(interactions->'credit_simulations', '[]'::jsonb)) > 0
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded interactions: %w", err)
	}
	defer rows.Close()

	interactions := []analytics.Interaction{}
	for rows.Next() {
		var vehicleID uuid.UUID
		var bagJSON []byte
		if err := rows.Scan(&vehicleID, &bagJSON); err != nil {
			return nil, fmt.Errorf("failed to scan embedded interactions: %w", err)
		}

		var bag vehicle.Interactions
		if err := json.Unmarshal(bagJSON, &bag); err != nil {
			return nil, fmt.Errorf("failed to unmarshal interactions of vehicle %s: %w", vehicleID, err)
		}

		for _, in := range FlattenBag(vehicleID, bag) {
			if filter.Phone != "" && in.Phone != filter.Phone {
				continue
			}
			if !filter.Window.Contains(in.OccurredAt) {
				continue
			}
			interactions = append(interactions, in)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate embedded interactions: %w", err)
	}

	return interactions, nil
}

// FlattenBag converts one vehicle's bag into canonical interactions.
func FlattenBag(vehicleID uuid.UUID, bag vehicle.Interactions) []analytics.Interaction {
	out := make([]analytics.Interaction, 0,
		len(bag.TestDriveBookings)+len(bag.CashOffers)+len(bag.CreditSimulations))

	for _, b := range bag.TestDriveBookings {
		out = append(out, analytics.Interaction{
			Source:       analytics.SourceEmbedded,
			Phone:        b.Phone,
			CustomerName: b.CustomerName,
			VehicleID:    vehicleID,
			Kind:         activity.KindTestDrive,
			OccurredAt:   b.CreatedAt,
			Detail: &activity.Detail{TestDrive: &activity.TestDriveDetail{
				ScheduledAt: b.ScheduledAt,
				Notes:       b.Notes,
			}},
		})
	}

	for _, o := range bag.CashOffers {
		status := o.Status
		if status == "" {
			status = activity.OfferPending
		}
		out = append(out, analytics.Interaction{
			Source:       analytics.SourceEmbedded,
			Phone:        o.Phone,
			CustomerName: o.CustomerName,
			VehicleID:    vehicleID,
			Kind:         activity.KindCashOffer,
			OccurredAt:   o.CreatedAt,
			Detail: &activity.Detail{CashOffer: &activity.CashOfferDetail{
				OfferedPrice:    o.OfferedPrice,
				OriginalPrice:   o.OriginalPrice,
				Discount:        o.Discount,
				DiscountPercent: o.DiscountPercent,
				Status:          status,
				Notes:           o.Notes,
			}},
		})
	}

	for _, s := range bag.CreditSimulations {
		out = append(out, analytics.Interaction{
			Source:       analytics.SourceEmbedded,
			Phone:        s.Phone,
			CustomerName: s.CustomerName,
			VehicleID:    vehicleID,
			Kind:         activity.KindCreditSimulation,
			OccurredAt:   s.CreatedAt,
			Detail: &activity.Detail{CreditSimulation: &activity.CreditSimulationDetail{
				DownPayment:        s.DownPayment,
				TenorMonths:        s.TenorMonths,
				MonthlyInstallment: s.MonthlyInstallment,
			}},
		})
	}

	return out
}

// LegacyInteractionReader reads the append-only activities log.
type LegacyInteractionReader struct {
	db *pgxpool.Pool
}

func NewLegacyInteractionReader(db *pgxpool.Pool) *LegacyInteractionReader {
	return &LegacyInteractionReader{db: db}
}

func (r *LegacyInteractionReader) Source() analytics.Source {
	return analytics.SourceLegacy
}

func (r *LegacyInteractionReader) ReadInteractions(ctx context.Context, filter analytics.InteractionFilter) ([]analytics.Interaction, error) {
	conditions := []string{"1=1"}
	args := []any{}
	argPos := 1

	if from, to, ok := filter.Window.Bounds(); ok {
		conditions = append(conditions, fmt.Sprintf("a.created_at >= $%d AND a.created_at < $%d", argPos, argPos+1))
		args = append(args, from, to)
		argPos += 2
	}

	if filter.Phone != "" {
		conditions = append(conditions, fmt.Sprintf("c.phone = $%d", argPos))
		args = append(args, filter.Phone)
	}

	query := `
		SELECT c.phone, c.name, a.vehicle_id, a.kind, a.additional_data, a.created_at
		FROM activities a
		JOIN customers c ON c.id = a.customer_id
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY a.created_at ASC
	`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity log: %w", err)
	}
	defer rows.Close()

	interactions := []analytics.Interaction{}
	for rows.Next() {
		var in analytics.Interaction
		var kind string
		var detailJSON []byte

		if err := rows.Scan(&in.Phone, &in.CustomerName, &in.VehicleID, &kind, &detailJSON, &in.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		in.Source = analytics.SourceLegacy
		in.Kind = activity.Kind(kind).Canonical()

		if len(detailJSON) > 0 && string(detailJSON) != "null" {
			in.Detail = &activity.Detail{}
			if err := json.Unmarshal(detailJSON, in.Detail); err != nil {
				return nil, fmt.Errorf("failed to unmarshal additional data: %w", err)
			}
		}
		interactions = append(interactions, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity log: %w", err)
	}

	return interactions, nil
}
