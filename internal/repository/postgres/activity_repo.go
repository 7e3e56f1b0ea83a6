// internal/repository/postgres/activity_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"showroom-service/internal/domain/activity"
	xerrors "showroom-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const activityColumns = `id, customer_id, vehicle_id, kind, additional_data, created_at`

type ActivityRepository struct {
	db *pgxpool.Pool
}

func NewActivityRepository(db *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create appends an entry to the activity log
func (r *ActivityRepository) Create(ctx context.Context, a *activity.Activity) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	var detailJSON []byte
	if a.Detail != nil {
		var err error
		detailJSON, err = json.Marshal(a.Detail)
		if err != nil {
			return fmt.Errorf("failed to marshal additional data: %w", err)
		}
	}

	query := `
		INSERT INTO activities (id, customer_id, vehicle_id, kind, additional_data, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
		RETURNING created_at
	`

	var createdAt any
	if !a.CreatedAt.IsZero() {
		createdAt = a.CreatedAt
	}

	err := r.db.QueryRow(
		ctx, query,
		a.ID, a.CustomerID, a.VehicleID, string(a.Kind), detailJSON, createdAt,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// FindByID retrieves a log entry by ID
func (r *ActivityRepository) FindByID(ctx context.Context, id uuid.UUID) (*activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1`

	a, err := scanActivity(r.db.QueryRow(ctx, query, id))
	if isNoRows(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find activity: %w", err)
	}
	return a, nil
}

// PatchOfferStatus rewrites additional_data.cash_offer.status of a cash-offer entry.
func (r *ActivityRepository) PatchOfferStatus(ctx context.Context, id uuid.UUID, status activity.OfferStatus) error {
	query := `
		UPDATE activities
		SET additional_data = jsonb_set(additional_data, '{cash_offer,status}', to_jsonb($3::text), true)
		WHERE id = $1 AND kind = $2 AND additional_data ? 'cash_offer'
	`

	result, err := r.db.Exec(ctx, query, id, string(activity.KindCashOffer), string(status))
	if err != nil {
		return fmt.Errorf("failed to patch offer status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// FindPendingOffer returns the latest pending cash-offer entry of a customer on a vehicle.
func (r *ActivityRepository) FindPendingOffer(ctx context.Context, customerID, vehicleID uuid.UUID) (*activity.Activity, error) {
	query := `
		SELECT ` + activityColumns + ` FROM activities
		WHERE customer_id = $1 AND vehicle_id = $2 AND kind = $3
		  AND COALESCE(additional_data->'cash_offer'->>'status', $4) = $4
		ORDER BY created_at DESC
		LIMIT 1
	`

	a, err := scanActivity(r.db.QueryRow(
		ctx, query, customerID, vehicleID, string(activity.KindCashOffer), string(activity.OfferPending),
	))
	if isNoRows(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending offer: %w", err)
	}
	return a, nil
}

// ListByCustomer returns the newest log entries of a customer
func (r *ActivityRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]activity.Activity, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT ` + activityColumns + ` FROM activities
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := []activity.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}
	return activities, nil
}

func scanActivity(row pgx.Row) (*activity.Activity, error) {
	var a activity.Activity
	var kind string
	var detailJSON []byte

	if err := row.Scan(&a.ID, &a.CustomerID, &a.VehicleID, &kind, &detailJSON, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Kind = activity.Kind(kind)

	if len(detailJSON) > 0 && string(detailJSON) != "null" {
		a.Detail = &activity.Detail{}
		if err := json.Unmarshal(detailJSON, a.Detail); err != nil {
			return nil, fmt.Errorf("failed to unmarshal additional data: %w", err)
		}
	}
	return &a, nil
}
