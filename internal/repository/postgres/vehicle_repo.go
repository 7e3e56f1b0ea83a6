// internal/repository/postgres/vehicle_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"showroom-service/internal/domain/activity"
	"showroom-service/internal/domain/vehicle"
	xerrors "showroom-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const vehicleColumns = `id, make, model, year, color, mileage, plate_number,
	chassis_number, engine_number, bpkb_number, price, down_payment,
	installment_a_tenor, installment_a_amount, installment_b_tenor, installment_b_amount,
	status, photos, description, interactions, created_at, updated_at`

// Keys of the embedded interaction bag.
const (
	bagTestDriveBookings = "test_drive_bookings"
	bagCashOffers        = "cash_offers"
	bagCreditSimulations = "credit_simulations"
)

var vehicleSortColumns = map[string]string{
	"created_at": "created_at",
	"price":      "price",
	"year":       "year",
	"make":       "make",
}

type VehicleRepository struct {
	db *pgxpool.Pool
}

func NewVehicleRepository(db *pgxpool.Pool) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Create inserts a new vehicle with an empty interaction bag
func (r *VehicleRepository) Create(ctx context.Context, v *vehicle.Vehicle) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Status == "" {
		v.Status = vehicle.StatusAvailable
	}
	if v.Photos == nil {
		v.Photos = []string{}
	}

	bagJSON, err := json.Marshal(normalizeBag(v.Interactions))
	if err != nil {
		return fmt.Errorf("failed to marshal interactions: %w", err)
	}

	query := `
		INSERT INTO vehicles (
			id, make, model, year, color, mileage, plate_number,
			chassis_number, engine_number, bpkb_number, price, down_payment,
			installment_a_tenor, installment_a_amount, installment_b_tenor, installment_b_amount,
			status, photos, description, interactions
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRow(
		ctx, query,
		v.ID, v.Make, v.Model, v.Year, v.Color, v.Mileage, v.PlateNumber,
		v.ChassisNumber, v.EngineNumber, v.BPKBNumber, v.Price, v.DownPayment,
		v.InstallmentA.TenorMonths, v.InstallmentA.MonthlyPayment,
		v.InstallmentB.TenorMonths, v.InstallmentB.MonthlyPayment,
		string(v.Status), v.Photos, v.Description, bagJSON,
	).Scan(&v.CreatedAt, &v.UpdatedAt)

	if isUniqueViolation(err) {
		return fmt.Errorf("plate number %s: %w", v.PlateNumber, xerrors.ErrDuplicateEntry)
	}
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	return nil
}

// FindByID retrieves a vehicle by ID
func (r *VehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`

	v, err := scanVehicle(r.db.QueryRow(ctx, query, id))
	if isNoRows(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}
	return v, nil
}

// Update writes the inventory fields. The interaction bag is left untouched.
func (r *VehicleRepository) Update(ctx context.Context, v *vehicle.Vehicle) error {
	query := `
		UPDATE vehicles
		SET make = $2, model = $3, year = $4, color = $5, mileage = $6, plate_number = $7,
		    chassis_number = $8, engine_number = $9, bpkb_number = $10, price = $11, down_payment = $12,
		    installment_a_tenor = $13, installment_a_amount = $14,
		    installment_b_tenor = $15, installment_b_amount = $16,
		    status = $17, photos = $18, description = $19, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	if v.Photos == nil {
		v.Photos = []string{}
	}

	err := r.db.QueryRow(
		ctx, query,
		v.ID, v.Make, v.Model, v.Year, v.Color, v.Mileage, v.PlateNumber,
		v.ChassisNumber, v.EngineNumber, v.BPKBNumber, v.Price, v.DownPayment,
		v.InstallmentA.TenorMonths, v.InstallmentA.MonthlyPayment,
		v.InstallmentB.TenorMonths, v.InstallmentB.MonthlyPayment,
		string(v.Status), v.Photos, v.Description,
	).Scan(&v.UpdatedAt)

	if isNoRows(err) {
		return xerrors.ErrNotFound
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("plate number %s: %w", v.PlateNumber, xerrors.ErrDuplicateEntry)
	}
	if err != nil {
		return fmt.Errorf("failed to update vehicle: %w", err)
	}
	return nil
}

// UpdateStatus flips the sale status
func (r *VehicleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status vehicle.Status) error {
	query := `UPDATE vehicles SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update vehicle status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// List retrieves vehicles with filters and pagination
func (r *VehicleRepository) List(ctx context.Context, filters *vehicle.ListFilters) ([]vehicle.Vehicle, int64, error) {
	conditions := []string{"1=1"}
	args := []any{}
	argPos := 1

	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(filters.Status))
		argPos++
	}

	if filters.Make != "" {
		conditions = append(conditions, fmt.Sprintf("make ILIKE $%d", argPos))
		args = append(args, filters.Make)
		argPos++
	}

	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(make ILIKE $%d OR model ILIKE $%d OR plate_number ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}

	if filters.MinPrice > 0 {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argPos))
		args = append(args, filters.MinPrice)
		argPos++
	}

	if filters.MaxPrice > 0 {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", argPos))
		args = append(args, filters.MaxPrice)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM vehicles WHERE ` + whereClause
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count vehicles: %w", err)
	}

	sortBy, ok := vehicleSortColumns[filters.SortBy]
	if !ok {
		sortBy = "created_at"
	}
	sortOrder := "DESC"
	if strings.EqualFold(filters.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	limit, offset := paging(filters.Page, filters.PageSize)
	query := fmt.Sprintf(`
		SELECT %s FROM vehicles
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, vehicleColumns, whereClause, pq.QuoteIdentifier(sortBy), sortOrder, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []vehicle.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate vehicles: %w", err)
	}

	return vehicles, total, nil
}

// ExistsByPlateNumber checks plate uniqueness
func (r *VehicleRepository) ExistsByPlateNumber(ctx context.Context, plate string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM vehicles WHERE UPPER(plate_number) = UPPER($1))`
	if err := r.db.QueryRow(ctx, query, plate).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check plate number: %w", err)
	}
	return exists, nil
}

func (r *VehicleRepository) AppendTestDriveBooking(ctx context.Context, id uuid.UUID, b vehicle.TestDriveBooking) error {
	return r.appendToBag(ctx, id, bagTestDriveBookings, b)
}

func (r *VehicleRepository) AppendCashOffer(ctx context.Context, id uuid.UUID, o vehicle.CashOffer) error {
	return r.appendToBag(ctx, id, bagCashOffers, o)
}

func (r *VehicleRepository) AppendCreditSimulation(ctx context.Context, id uuid.UUID, s vehicle.CreditSimulation) error {
	return r.appendToBag(ctx, id, bagCreditSimulations, s)
}

// appendToBag pushes item onto interactions->field in a single statement.
func (r *VehicleRepository) appendToBag(ctx context.Context, id uuid.UUID, field string, item any) error {
	itemJSON, err := json.Marshal([]any{item})
	if err != nil {
		return fmt.Errorf("failed to marshal %s entry: %w", field, err)
	}

	query := `
		UPDATE vehicles
		SET interactions = jsonb_set(
		        interactions,
		        ARRAY[$2::text],
		        COALESCE(interactions->($2::text), '[]'::jsonb) || $3::jsonb,
		        true
		    ),
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, field, string(itemJSON))
	if err != nil {
		return fmt.Errorf("failed to append %s entry: %w", field, err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// UpdateCashOfferStatus decides a pending embedded offer. The row is locked
// for the read-modify-write; deciding a non-pending offer is a conflict.
// Accepting marks the vehicle sold in the same statement, and accepting on
// an already sold vehicle is a conflict.
func (r *VehicleRepository) UpdateCashOfferStatus(ctx context.Context, id uuid.UUID, offerID string, status activity.OfferStatus, decidedAt time.Time) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var (
			current vehicle.Status
			bagJSON []byte
		)
		err := tx.QueryRow(ctx, `SELECT status, interactions FROM vehicles WHERE id = $1 FOR UPDATE`, id).Scan(&current, &bagJSON)
		if isNoRows(err) {
			return xerrors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock vehicle: %w", err)
		}

		var bag vehicle.Interactions
		if len(bagJSON) > 0 {
			if err := json.Unmarshal(bagJSON, &bag); err != nil {
				return fmt.Errorf("failed to unmarshal interactions: %w", err)
			}
		}

		offer, ok := bag.FindCashOffer(offerID)
		if !ok {
			return fmt.Errorf("cash offer %s: %w", offerID, xerrors.ErrNotFound)
		}
		if offer.Status != "" && offer.Status != activity.OfferPending {
			return fmt.Errorf("cash offer %s already %s: %w", offerID, offer.Status, xerrors.ErrConflict)
		}
		if status == activity.OfferAccepted && current == vehicle.StatusSold {
			return fmt.Errorf("vehicle %s already sold: %w", id, xerrors.ErrConflict)
		}
		offer.Status = status
		offer.DecidedAt = &decidedAt

		updated, err := json.Marshal(normalizeBag(bag))
		if err != nil {
			return fmt.Errorf("failed to marshal interactions: %w", err)
		}

		next := current
		if status == activity.OfferAccepted {
			next = vehicle.StatusSold
		}
		if _, err := tx.Exec(ctx, `UPDATE vehicles SET interactions = $2, status = $3, updated_at = NOW() WHERE id = $1`, id, updated, next); err != nil {
			return fmt.Errorf("failed to update cash offer: %w", err)
		}
		return nil
	})
}

func normalizeBag(bag vehicle.Interactions) vehicle.Interactions {
	if bag.TestDriveBookings == nil {
		bag.TestDriveBookings = []vehicle.TestDriveBooking{}
	}
	if bag.CashOffers == nil {
		bag.CashOffers = []vehicle.CashOffer{}
	}
	if bag.CreditSimulations == nil {
		bag.CreditSimulations = []vehicle.CreditSimulation{}
	}
	return bag
}

func scanVehicle(row pgx.Row) (*vehicle.Vehicle, error) {
	var v vehicle.Vehicle
	var status string
	var bagJSON []byte

	err := row.Scan(
		&v.ID, &v.Make, &v.Model, &v.Year, &v.Color, &v.Mileage, &v.PlateNumber,
		&v.ChassisNumber, &v.EngineNumber, &v.BPKBNumber, &v.Price, &v.DownPayment,
		&v.InstallmentA.TenorMonths, &v.InstallmentA.MonthlyPayment,
		&v.InstallmentB.TenorMonths, &v.InstallmentB.MonthlyPayment,
		&status, &v.Photos, &v.Description, &bagJSON, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.Status = vehicle.Status(status)

	if len(bagJSON) > 0 {
		if err := json.Unmarshal(bagJSON, &v.Interactions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal interactions: %w", err)
		}
	}
	v.Interactions = normalizeBag(v.Interactions)
	return &v, nil
}
