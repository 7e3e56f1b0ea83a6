// internal/service/customer/customer.go
package customer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"showroom-service/internal/domain/analytics"
	"showroom-service/internal/domain/customer"
	xerrors "showroom-service/internal/pkg/errors"
	"showroom-service/internal/rules"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InteractionSource is the deduplicated cross-storage interaction view.
type InteractionSource interface {
	UnifiedInteractions(ctx context.Context, filter analytics.InteractionFilter) []analytics.Interaction
}

type CustomerService struct {
	repo         customer.Repository
	interactions InteractionSource
	logger       *zap.Logger
	now          func() time.Time
}

func NewCustomerService(repo customer.Repository, interactions InteractionSource, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		repo:         repo,
		interactions: interactions,
		logger:       logger,
		now:          time.Now,
	}
}

// followUpLookback bounds the candidates of the follow-up queue; older
// customers can never be ready.
const followUpLookback = 7 * 24 * time.Hour

var priorityRank = map[customer.Priority]int{
	customer.PriorityUrgent: 0,
	customer.PriorityHigh:   1,
	customer.PriorityMedium: 2,
	customer.PriorityLow:    3,
}

// ListCustomers retrieves customers with filters
func (s *CustomerService) ListCustomers(ctx context.Context, filters *customer.ListFilters) (*customer.ListResponse, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, xerrors.Invalid("unknown customer status %q", filters.Status)
	}
	filters.Search = strings.TrimSpace(filters.Search)

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}

	customers, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}

	return &customer.ListResponse{
		Customers:  customers,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetCustomer returns the customer with engagement score, priority and follow-up readiness
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*customer.Profile, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return rules.BuildProfile(c, s.now()), nil
}

// UpdateStatus sets the status manually. Unlike escalation it may move backwards.
func (s *CustomerService) UpdateStatus(ctx context.Context, id uuid.UUID, status customer.Status) error {
	if !status.Valid() {
		return xerrors.Invalid("unknown customer status %q", status)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to update customer status", zap.String("customer_id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to update customer status: %w", err)
	}

	s.logger.Info("customer status updated",
		zap.String("customer_id", id.String()),
		zap.String("status", string(status)),
	)
	return nil
}

func (s *CustomerService) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	if err := s.repo.UpdateNotes(ctx, id, strings.TrimSpace(notes)); err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to update customer notes", zap.String("customer_id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to update customer notes: %w", err)
	}
	return nil
}

// FollowUpQueue lists customers ready for follow-up, most urgent first and
// most recently active first within a priority.
func (s *CustomerService) FollowUpQueue(ctx context.Context, limit int) ([]*customer.Profile, error) {
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	now := s.now()
	candidates, err := s.repo.ListActiveSince(ctx, now.Add(-followUpLookback))
	if err != nil {
		return nil, fmt.Errorf("failed to list active customers: %w", err)
	}

	queue := []*customer.Profile{}
	for i := range candidates {
		p := rules.BuildProfile(&candidates[i], now)
		if p.ReadyForFollowUp {
			queue = append(queue, p)
		}
	}

	sort.SliceStable(queue, func(i, j int) bool {
		pi, pj := priorityRank[queue[i].Priority], priorityRank[queue[j].Priority]
		if pi != pj {
			return pi < pj
		}
		return queue[i].LastActivity.After(queue[j].LastActivity)
	})

	if len(queue) > limit {
		queue = queue[:limit]
	}
	return queue, nil
}

// Interactions returns the unified interaction view of one customer
func (s *CustomerService) Interactions(ctx context.Context, id uuid.UUID, window analytics.Window) ([]analytics.Interaction, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.interactions.UnifiedInteractions(ctx, analytics.InteractionFilter{Window: window, Phone: c.Phone}), nil
}

func (s *CustomerService) Stats(ctx context.Context) (*customer.Stats, error) {
	stats, err := s.repo.Stats(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to get customer stats: %w", err)
	}
	return stats, nil
}
