package customer

import (
	"context"
	"testing"
	"time"

	"showroom-service/internal/domain/activity"
	"showroom-service/internal/domain/analytics"
	"showroom-service/internal/domain/customer"
	xerrors "showroom-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRepo struct {
	customer.Repository
	customers []customer.Customer
	statuses  map[uuid.UUID]customer.Status
}

func (m *memRepo) FindByID(_ context.Context, id uuid.UUID) (*customer.Customer, error) {
	for i := range m.customers {
		if m.customers[i].ID == id {
			return &m.customers[i], nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (m *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, status customer.Status) error {
	if _, err := m.FindByID(context.Background(), id); err != nil {
		return err
	}
	m.statuses[id] = status
	return nil
}

func (m *memRepo) ListActiveSince(_ context.Context, since time.Time) ([]customer.Customer, error) {
	out := []customer.Customer{}
	for _, c := range m.customers {
		if c.Status != customer.StatusPurchased && c.LastActivity.After(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) List(_ context.Context, filters *customer.ListFilters) ([]customer.Customer, int64, error) {
	return m.customers, int64(len(m.customers)), nil
}

type phoneFilterRecorder struct {
	filters []analytics.InteractionFilter
}

func (p *phoneFilterRecorder) UnifiedInteractions(_ context.Context, f analytics.InteractionFilter) []analytics.Interaction {
	p.filters = append(p.filters, f)
	return []analytics.Interaction{{Phone: f.Phone, Kind: activity.KindViewDetail}}
}

func entries(at time.Time, kinds ...activity.Kind) []customer.HistoryEntry {
	out := make([]customer.HistoryEntry, len(kinds))
	for i, k := range kinds {
		out[i] = customer.HistoryEntry{Kind: k, Timestamp: at}
	}
	return out
}

func TestFollowUpQueueOrdering(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	offers := []activity.Kind{activity.KindCashOffer, activity.KindCashOffer, activity.KindTestDrive}

	urgent := customer.Customer{ID: uuid.New(), Status: customer.StatusHotLead, LastActivity: now.Add(-time.Hour), History: entries(now, offers...)}
	highOld := customer.Customer{ID: uuid.New(), Status: customer.StatusInterested, LastActivity: now.Add(-5 * 24 * time.Hour), History: entries(now, offers...)}
	highNew := customer.Customer{ID: uuid.New(), Status: customer.StatusInterested, LastActivity: now.Add(-3 * 24 * time.Hour), History: entries(now, offers...)}
	browsing := customer.Customer{ID: uuid.New(), Status: customer.StatusNotFollowedUp, LastActivity: now.Add(-time.Hour),
		History: entries(now, activity.KindViewDetail, activity.KindViewDetail)}
	stale := customer.Customer{ID: uuid.New(), Status: customer.StatusHotLead, LastActivity: now.Add(-10 * 24 * time.Hour), History: entries(now, offers...)}

	repo := &memRepo{customers: []customer.Customer{highOld, browsing, urgent, stale, highNew}}
	svc := NewCustomerService(repo, &phoneFilterRecorder{}, zap.NewNop())
	svc.now = func() time.Time { return now }

	queue, err := svc.FollowUpQueue(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, queue, 3)
	assert.Equal(t, urgent.ID, queue[0].ID)
	assert.Equal(t, customer.PriorityUrgent, queue[0].Priority)
	assert.Equal(t, highNew.ID, queue[1].ID)
	assert.Equal(t, highOld.ID, queue[2].ID)

	queue, err = svc.FollowUpQueue(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, queue, 1)
}

func TestUpdateStatusAllowsManualDowngrade(t *testing.T) {
	c := customer.Customer{ID: uuid.New(), Status: customer.StatusHotLead}
	repo := &memRepo{customers: []customer.Customer{c}, statuses: map[uuid.UUID]customer.Status{}}
	svc := NewCustomerService(repo, &phoneFilterRecorder{}, zap.NewNop())

	require.NoError(t, svc.UpdateStatus(context.Background(), c.ID, customer.StatusFollowedUp))
	assert.Equal(t, customer.StatusFollowedUp, repo.statuses[c.ID])

	err := svc.UpdateStatus(context.Background(), c.ID, "Cold")
	assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))

	err = svc.UpdateStatus(context.Background(), uuid.New(), customer.StatusPurchased)
	assert.True(t, xerrors.Is(err, xerrors.ErrNotFound))
}

func TestGetCustomerBuildsProfile(t *testing.T) {
	now := time.Now()
	c := customer.Customer{ID: uuid.New(), Status: customer.StatusInterested, LastActivity: now,
		History: entries(now, activity.KindCreditSimulation, activity.KindCreditSimulation)}
	svc := NewCustomerService(&memRepo{customers: []customer.Customer{c}}, &phoneFilterRecorder{}, zap.NewNop())

	p, err := svc.GetCustomer(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, p.EngagementScore)
	assert.Equal(t, customer.PriorityMedium, p.Priority)
	assert.False(t, p.ReadyForFollowUp)
}

func TestInteractionsFiltersByPhone(t *testing.T) {
	c := customer.Customer{ID: uuid.New(), Phone: "+6281234567890"}
	source := &phoneFilterRecorder{}
	svc := NewCustomerService(&memRepo{customers: []customer.Customer{c}}, source, zap.NewNop())

	out, err := svc.Interactions(context.Background(), c.ID, analytics.Window{Year: 2024})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, source.filters, 1)
	assert.Equal(t, "+6281234567890", source.filters[0].Phone)
	assert.Equal(t, 2024, source.filters[0].Window.Year)
}

func TestListCustomersDefaults(t *testing.T) {
	svc := NewCustomerService(&memRepo{customers: make([]customer.Customer, 45)}, &phoneFilterRecorder{}, zap.NewNop())

	res, err := svc.ListCustomers(context.Background(), &customer.ListFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 20, res.PageSize)
	assert.Equal(t, 3, res.TotalPages)

	_, err = svc.ListCustomers(context.Background(), &customer.ListFilters{Status: "Cold"})
	assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))
}
