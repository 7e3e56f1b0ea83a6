// internal/repository/postgres/customer_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"showroom-service/internal/domain/customer"
	xerrors "showroom-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const customerColumns = `id, phone, name, status, last_activity, interaction_count,
	interactions, summary, notes, created_at, updated_at`

var customerSortColumns = map[string]string{
	"last_activity":     "last_activity",
	"created_at":        "created_at",
	"name":              "name",
	"interaction_count": "interaction_count",
}

type CustomerRepository struct {
	db *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create inserts a customer. A phone collision yields ErrDuplicateEntry.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	historyJSON, summaryJSON, err := marshalHistory(c)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO customers (
			id, phone, name, status, last_activity, interaction_count,
			interactions, summary, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRow(
		ctx, query,
		c.ID, c.Phone, c.Name, string(c.Status), c.LastActivity, c.InteractionCount,
		historyJSON, summaryJSON, c.Notes,
	).Scan(&c.CreatedAt, &c.UpdatedAt)

	if isUniqueViolation(err) {
		return fmt.Errorf("customer %s: %w", c.Phone, xerrors.ErrDuplicateEntry)
	}
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// FindByID retrieves a customer by ID
func (r *CustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return r.findOne(ctx, query, id)
}

// FindByPhone retrieves a customer by canonical phone number
func (r *CustomerRepository) FindByPhone(ctx context.Context, phone string) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE phone = $1`
	return r.findOne(ctx, query, phone)
}

func (r *CustomerRepository) findOne(ctx context.Context, query string, arg any) (*customer.Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, query, arg))
	if isNoRows(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return c, nil
}

// SaveInteraction writes back the fields an interaction mutates.
func (r *CustomerRepository) SaveInteraction(ctx context.Context, c *customer.Customer) error {
	historyJSON, summaryJSON, err := marshalHistory(c)
	if err != nil {
		return err
	}

	query := `
		UPDATE customers
		SET name = $2, status = $3, last_activity = $4, interaction_count = $5,
		    interactions = $6, summary = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err = r.db.QueryRow(
		ctx, query,
		c.ID, c.Name, string(c.Status), c.LastActivity, c.InteractionCount, historyJSON, summaryJSON,
	).Scan(&c.UpdatedAt)

	if isNoRows(err) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to save customer interaction: %w", err)
	}
	return nil
}

// UpdateStatus sets the lifecycle status unconditionally
func (r *CustomerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status customer.Status) error {
	query := `UPDATE customers SET status = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, query, id, string(status))
}

// UpdateNotes replaces the admin notes
func (r *CustomerRepository) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	query := `UPDATE customers SET notes = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, query, id, notes)
}

func (r *CustomerRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// List retrieves customers with filters and pagination
func (r *CustomerRepository) List(ctx context.Context, filters *customer.ListFilters) ([]customer.Customer, int64, error) {
	conditions := []string{"1=1"}
	args := []any{}
	argPos := 1

	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(filters.Status))
		argPos++
	}

	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR phone ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM customers WHERE ` + whereClause
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	sortBy, ok := customerSortColumns[filters.SortBy]
	if !ok {
		sortBy = "last_activity"
	}
	sortOrder := "DESC"
	if strings.EqualFold(filters.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	limit, offset := paging(filters.Page, filters.PageSize)
	query := fmt.Sprintf(`
		SELECT %s FROM customers
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, customerColumns, whereClause, pq.QuoteIdentifier(sortBy), sortOrder, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers, err := collectCustomers(rows)
	if err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

// ListActiveSince returns unconverted customers active after since, most recent first.
func (r *CustomerRepository) ListActiveSince(ctx context.Context, since time.Time) ([]customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers
		WHERE status <> $1 AND last_activity >= $2
		ORDER BY last_activity DESC`

	rows, err := r.db.Query(ctx, query, string(customer.StatusPurchased), since)
	if err != nil {
		return nil, fmt.Errorf("failed to list active customers: %w", err)
	}
	defer rows.Close()
	return collectCustomers(rows)
}

// ListAll returns every customer; used by the journey report.
func (r *CustomerRepository) ListAll(ctx context.Context) ([]customer.Customer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+customerColumns+` FROM customers`)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()
	return collectCustomers(rows)
}

// Stats returns totals per status and the number of customers created in the last 30 days.
func (r *CustomerRepository) Stats(ctx context.Context, now time.Time) (*customer.Stats, error) {
	stats := &customer.Stats{ByStatus: make(map[customer.Status]int64)}

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM customers GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan customer stats: %w", err)
		}
		stats.ByStatus[customer.Status(status)] = n
		stats.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read customer stats: %w", err)
	}

	query := `SELECT COUNT(*) FROM customers WHERE created_at >= $1`
	if err := r.db.QueryRow(ctx, query, now.AddDate(0, 0, -30)).Scan(&stats.NewLast30Days); err != nil {
		return nil, fmt.Errorf("failed to count new customers: %w", err)
	}

	return stats, nil
}

func marshalHistory(c *customer.Customer) ([]byte, []byte, error) {
	history := c.History
	if history == nil {
		history = []customer.HistoryEntry{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal interactions: %w", err)
	}
	summaryJSON, err := json.Marshal(c.Summary)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal summary: %w", err)
	}
	return historyJSON, summaryJSON, nil
}

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var c customer.Customer
	var status string
	var historyJSON, summaryJSON []byte

	err := row.Scan(
		&c.ID, &c.Phone, &c.Name, &status, &c.LastActivity, &c.InteractionCount,
		&historyJSON, &summaryJSON, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = customer.Status(status)

	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &c.History); err != nil {
			return nil, fmt.Errorf("failed to unmarshal interactions: %w", err)
		}
	}
	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &c.Summary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
		}
	}
	return &c, nil
}

func collectCustomers(rows pgx.Rows) ([]customer.Customer, error) {
	customers := []customer.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}
	return customers, nil
}
