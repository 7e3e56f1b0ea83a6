// internal/repository/postgres/analytics_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"

	"showroom-service/internal/domain/activity"
	"showroom-service/internal/domain/analytics"
	"showroom-service/internal/domain/customer"
	"showroom-service/internal/domain/vehicle"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AnalyticsRepository struct {
	db        *pgxpool.Pool
	customers *CustomerRepository
}

func NewAnalyticsRepository(db *pgxpool.Pool, customers *CustomerRepository) *AnalyticsRepository {
	return &AnalyticsRepository{db: db, customers: customers}
}

// RawKindCounts counts log entries per kind without grouping by customer.
func (r *AnalyticsRepository) RawKindCounts(ctx context.Context, window analytics.Window) (*analytics.StageCounts, error) {
	args := []any{
		string(activity.KindViewDetail),
		string(activity.KindCreditSimulation),
		string(activity.KindTestDriveBooking),
		string(activity.KindTestDrive),
		string(activity.KindCashOffer),
		string(activity.OfferAccepted),
	}
	conditions := []string{"1=1"}
	if from, to, ok := window.Bounds(); ok {
		conditions = append(conditions, "created_at >= $7 AND created_at < $8")
		args = append(args, from, to)
	}

	query := `
		SELECT
			COUNT(*) FILTER (WHERE kind = $1),
			COUNT(*) FILTER (WHERE kind = $2),
			COUNT(*) FILTER (WHERE kind IN ($3, $4)),
			COUNT(*) FILTER (WHERE kind = $5),
			COUNT(*) FILTER (WHERE kind = $5 AND additional_data->'cash_offer'->>'status' = $6)
		FROM activities
		WHERE ` + strings.Join(conditions, " AND ")

	var c analytics.StageCounts
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&c.Views, &c.CreditSimulations, &c.TestDrives, &c.CashOffers, &c.AcceptedOffers,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count activities: %w", err)
	}
	return &c, nil
}

// VehicleLabels resolves "Make Model Year" for the given vehicles. Unknown ids are omitted.
func (r *AnalyticsRepository) VehicleLabels(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	labels := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return labels, nil
	}

	params := make([]string, len(ids))
	for i, id := range ids {
		params[i] = id.String()
	}

	rows, err := r.db.Query(ctx, `SELECT id, make, model, year FROM vehicles WHERE id = ANY($1::uuid[])`, params)
	if err != nil {
		return nil, fmt.Errorf("failed to load vehicle labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v vehicle.Vehicle
		if err := rows.Scan(&v.ID, &v.Make, &v.Model, &v.Year); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle label: %w", err)
		}
		labels[v.ID] = v.Label()
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vehicle labels: %w", err)
	}
	return labels, nil
}

// ForecastInputs gathers the store-wide aggregates of the revenue projection.
// Pending offers live in both storage shapes and are summed by the projector.
func (r *AnalyticsRepository) ForecastInputs(ctx context.Context) (*analytics.ForecastInputs, error) {
	var in analytics.ForecastInputs

	customerQuery := `
		SELECT
			COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '30 days' AND interaction_count > 1),
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $1),
			COUNT(*) FILTER (WHERE status = $2)
		FROM customers
	`
	err := r.db.QueryRow(ctx, customerQuery, string(customer.StatusPurchased), string(customer.StatusHotLead)).Scan(
		&in.RecentInquiries, &in.TotalCustomers, &in.PurchasedCustomers, &in.HotLeadCustomers,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate customers: %w", err)
	}

	priceQuery := `SELECT COALESCE(AVG(price), 0)::float8 FROM vehicles WHERE status = $1`
	if err := r.db.QueryRow(ctx, priceQuery, string(vehicle.StatusAvailable)).Scan(&in.AverageAvailablePrice); err != nil {
		return nil, fmt.Errorf("failed to average vehicle price: %w", err)
	}

	return &in, nil
}

func (r *AnalyticsRepository) ListCustomers(ctx context.Context) ([]customer.Customer, error) {
	return r.customers.ListAll(ctx)
}
