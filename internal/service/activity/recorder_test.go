package activity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"showroom-service/internal/domain/activity"
	"showroom-service/internal/domain/customer"
	"showroom-service/internal/domain/vehicle"
	wstypes "showroom-service/internal/domain/websocket"
	xerrors "showroom-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memCustomers struct {
	mu      sync.Mutex
	byPhone map[string]*customer.Customer
	// raceOnCreate simulates a concurrent request winning the insert.
	raceOnCreate *customer.Customer
	saveErr      error
	saves        int
}

func newMemCustomers() *memCustomers {
	return &memCustomers{byPhone: map[string]*customer.Customer{}}
}

func (m *memCustomers) FindByPhone(_ context.Context, phone string) (*customer.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byPhone[phone]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *c
	cp.History = append([]customer.HistoryEntry(nil), c.History...)
	return &cp, nil
}

func (m *memCustomers) Create(_ context.Context, c *customer.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raceOnCreate != nil {
		m.byPhone[m.raceOnCreate.Phone] = m.raceOnCreate
		m.raceOnCreate = nil
		return xerrors.ErrDuplicateEntry
	}
	if _, ok := m.byPhone[c.Phone]; ok {
		return xerrors.ErrDuplicateEntry
	}
	c.ID = uuid.New()
	cp := *c
	m.byPhone[c.Phone] = &cp
	return nil
}

func (m *memCustomers) SaveInteraction(_ context.Context, c *customer.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *c
	m.byPhone[c.Phone] = &cp
	return nil
}

type memVehicles map[uuid.UUID]*vehicle.Vehicle

func (m memVehicles) FindByID(_ context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	v, ok := m[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return v, nil
}

type memActivities struct {
	entries   []*activity.Activity
	createErr error
}

func (m *memActivities) Create(_ context.Context, a *activity.Activity) error {
	if m.createErr != nil {
		return m.createErr
	}
	a.ID = uuid.New()
	m.entries = append(m.entries, a)
	return nil
}

func (m *memActivities) FindByID(_ context.Context, id uuid.UUID) (*activity.Activity, error) {
	for _, a := range m.entries {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (m *memActivities) PatchOfferStatus(_ context.Context, id uuid.UUID, status activity.OfferStatus) error {
	for _, a := range m.entries {
		if a.ID == id && a.Detail != nil && a.Detail.CashOffer != nil {
			a.Detail.CashOffer.Status = status
			return nil
		}
	}
	return xerrors.ErrNotFound
}

func (m *memActivities) FindPendingOffer(_ context.Context, customerID, vehicleID uuid.UUID) (*activity.Activity, error) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		a := m.entries[i]
		if a.CustomerID == customerID && a.VehicleID == vehicleID &&
			a.Kind == activity.KindCashOffer && !a.Detail.OfferStatus().Terminal() {
			return a, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (m *memActivities) ListByCustomer(_ context.Context, customerID uuid.UUID, _ int) ([]activity.Activity, error) {
	out := []activity.Activity{}
	for _, a := range m.entries {
		if a.CustomerID == customerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type captureNotifier struct {
	events []wstypes.LeadEvent
}

func (n *captureNotifier) PublishLead(e wstypes.LeadEvent) {
	n.events = append(n.events, e)
}

type fixture struct {
	recorder   *Recorder
	customers  *memCustomers
	activities *memActivities
	notifier   *captureNotifier
	vehicles   memVehicles
	vehicleID  uuid.UUID
	now        time.Time
}

func newFixture() *fixture {
	vid := uuid.New()
	f := &fixture{
		customers:  newMemCustomers(),
		activities: &memActivities{},
		notifier:   &captureNotifier{},
		vehicleID:  vid,
		now:        time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
	}
	f.vehicles = memVehicles{vid: {ID: vid, Make: "Toyota", Model: "Avanza", Year: 2021, Price: 150_000_000, Status: vehicle.StatusAvailable}}
	f.recorder = NewRecorder(f.customers, f.vehicles, f.activities, f.notifier, nil, zap.NewNop())
	f.recorder.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) request(kind activity.Kind, detail *activity.Detail) *activity.RecordRequest {
	return &activity.RecordRequest{
		Name:      "Budi",
		Phone:     "0812-3456-7890",
		VehicleID: f.vehicleID.String(),
		Kind:      kind,
		Detail:    detail,
	}
}

func TestRecordCreatesCustomerOnFirstInteraction(t *testing.T) {
	f := newFixture()

	res, err := f.recorder.Record(context.Background(), f.request(activity.KindViewDetail, nil))
	require.NoError(t, err)
	require.True(t, res.Success)

	c, err := f.customers.FindByPhone(context.Background(), "+6281234567890")
	require.NoError(t, err)
	assert.Equal(t, res.CustomerID, c.ID.String())
	assert.Equal(t, customer.StatusNotFollowedUp, c.Status)
	assert.Equal(t, 1, c.InteractionCount)
	require.Len(t, c.History, 1)
	assert.Equal(t, "Avanza", c.History[0].Vehicle.Model)
	assert.Equal(t, 1, c.Summary.Views)

	require.Len(t, f.activities.entries, 1)
	require.Len(t, f.notifier.events, 1)
	assert.True(t, f.notifier.events[0].NewCustomer)
	assert.Equal(t, "Toyota Avanza 2021", f.notifier.events[0].VehicleLabel)
}

func TestRecordEscalatesAndNeverRegresses(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.recorder.Record(ctx, f.request(activity.KindCreditSimulation, nil))
	require.NoError(t, err)
	c, _ := f.customers.FindByPhone(ctx, "+6281234567890")
	assert.Equal(t, customer.StatusInterested, c.Status)

	_, err = f.recorder.Record(ctx, f.request(activity.KindTestDriveBooking, &activity.Detail{
		TestDrive: &activity.TestDriveDetail{ScheduledAt: f.now.Add(48 * time.Hour)},
	}))
	require.NoError(t, err)

	_, err = f.recorder.Record(ctx, f.request(activity.KindViewDetail, nil))
	require.NoError(t, err)

	c, _ = f.customers.FindByPhone(ctx, "+6281234567890")
	assert.Equal(t, customer.StatusHotLead, c.Status)
	assert.Equal(t, 3, c.InteractionCount)
	assert.Len(t, c.History, 3)
	assert.False(t, f.notifier.events[2].NewCustomer)
}

func TestRecordDefaultsCashOfferToPending(t *testing.T) {
	f := newFixture()

	rec, err := f.recorder.RecordDetailed(context.Background(), f.request(activity.KindCashOffer, &activity.Detail{
		CashOffer: &activity.CashOfferDetail{OfferedPrice: 140_000_000, OriginalPrice: 150_000_000},
	}))
	require.NoError(t, err)
	assert.Equal(t, activity.OfferPending, rec.Activity.Detail.OfferStatus())
	assert.Equal(t, customer.StatusHotLead, rec.Customer.Status)
}

func TestRecordCashOfferTermsComeFromVehiclePrice(t *testing.T) {
	f := newFixture()

	rec, err := f.recorder.RecordDetailed(context.Background(), f.request(activity.KindCashOffer, &activity.Detail{
		CashOffer: &activity.CashOfferDetail{
			OfferedPrice:    140_000_000,
			OriginalPrice:   1,
			DiscountPercent: 0.5,
			Status:          activity.OfferAccepted,
		},
	}))
	require.NoError(t, err)

	offer := rec.Activity.Detail.CashOffer
	assert.Equal(t, 150_000_000.0, offer.OriginalPrice)
	assert.Equal(t, 10_000_000.0, offer.Discount)
	assert.Equal(t, 6.67, offer.DiscountPercent)
	assert.Equal(t, activity.OfferPending, offer.Status)
	assert.Equal(t, 6.67, rec.Customer.Summary.AverageDiscountPercent)
}

func TestRecordRejectsLowballCashOffer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, offered := range []float64{1, 136_499_999} {
		res, err := f.recorder.Record(ctx, f.request(activity.KindCashOffer, &activity.Detail{
			CashOffer: &activity.CashOfferDetail{OfferedPrice: offered, DiscountPercent: 3},
		}))
		assert.Nil(t, res)
		require.True(t, xerrors.Is(err, xerrors.ErrInvalidInput), "offered %v", offered)
		assert.Contains(t, err.Error(), "Rp 136.500.000")
	}

	assert.Empty(t, f.activities.entries)
	_, err := f.customers.FindByPhone(ctx, "+6281234567890")
	assert.True(t, xerrors.Is(err, xerrors.ErrNotFound))

	res, err := f.recorder.Record(ctx, f.request(activity.KindCashOffer, &activity.Detail{
		CashOffer: &activity.CashOfferDetail{OfferedPrice: 136_500_000},
	}))
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestRecordCashOfferOnSoldVehicle(t *testing.T) {
	f := newFixture()
	f.vehicles[f.vehicleID].Status = vehicle.StatusSold

	res, err := f.recorder.Record(context.Background(), f.request(activity.KindCashOffer, &activity.Detail{
		CashOffer: &activity.CashOfferDetail{OfferedPrice: 145_000_000},
	}))
	assert.Nil(t, res)
	assert.True(t, xerrors.Is(err, xerrors.ErrConflict))
	assert.Empty(t, f.activities.entries)
}

func TestRecordKeepsUnprefixedPhoneAsKey(t *testing.T) {
	f := newFixture()
	req := f.request(activity.KindViewDetail, nil)
	req.Phone = "(021) 555-0101"

	res, err := f.recorder.Record(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.Success)

	c, err := f.customers.FindByPhone(context.Background(), "0215550101")
	require.NoError(t, err)
	assert.Equal(t, res.CustomerID, c.ID.String())
}

func TestRecordRejectsInvalidInput(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := map[string]*activity.RecordRequest{
		"blank name":    {Name: "  ", Phone: "08123456789", VehicleID: f.vehicleID.String(), Kind: activity.KindViewDetail},
		"bad phone":     {Name: "Budi", Phone: "12", VehicleID: f.vehicleID.String(), Kind: activity.KindViewDetail},
		"unknown kind":  {Name: "Budi", Phone: "08123456789", VehicleID: f.vehicleID.String(), Kind: "purchase"},
		"bad vehicle":   {Name: "Budi", Phone: "08123456789", VehicleID: "nope", Kind: activity.KindViewDetail},
		"missing offer": {Name: "Budi", Phone: "08123456789", VehicleID: f.vehicleID.String(), Kind: activity.KindCashOffer},
	}
	for name, req := range cases {
		res, err := f.recorder.Record(ctx, req)
		assert.Nil(t, res, name)
		assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput), name)
	}
	assert.Empty(t, f.activities.entries)
}

func TestRecordUnknownVehicle(t *testing.T) {
	f := newFixture()
	req := f.request(activity.KindViewDetail, nil)
	req.VehicleID = uuid.NewString()

	res, err := f.recorder.Record(context.Background(), req)
	assert.Nil(t, res)
	assert.True(t, xerrors.Is(err, xerrors.ErrNotFound))
}

func TestRecordRetriesOnceAfterCreateRace(t *testing.T) {
	f := newFixture()
	winner := &customer.Customer{
		ID:               uuid.New(),
		Phone:            "+6281234567890",
		Name:             "Budi",
		Status:           customer.StatusInterested,
		InteractionCount: 1,
	}
	f.customers.raceOnCreate = winner

	res, err := f.recorder.Record(context.Background(), f.request(activity.KindViewDetail, nil))
	require.NoError(t, err)
	assert.Equal(t, winner.ID.String(), res.CustomerID)

	c, _ := f.customers.FindByPhone(context.Background(), "+6281234567890")
	assert.Equal(t, 2, c.InteractionCount)
	assert.Equal(t, customer.StatusInterested, c.Status)
	assert.Equal(t, 1, f.customers.saves)
}

func TestRecordPersistenceFailure(t *testing.T) {
	f := newFixture()
	f.activities.createErr = errors.New("connection refused")

	res, err := f.recorder.Record(context.Background(), f.request(activity.KindViewDetail, nil))
	require.Error(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Equal(t, "failed to record activity", res.Error)
	assert.Empty(t, f.notifier.events)
}

func TestPatchCashOfferStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rec, err := f.recorder.RecordDetailed(ctx, f.request(activity.KindCashOffer, &activity.Detail{
		CashOffer: &activity.CashOfferDetail{OfferedPrice: 140_000_000},
	}))
	require.NoError(t, err)

	err = f.recorder.PatchCashOfferStatus(ctx, rec.Activity.ID, activity.OfferPending)
	assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))

	require.NoError(t, f.recorder.PatchCashOfferStatus(ctx, rec.Activity.ID, activity.OfferAccepted))
	assert.Equal(t, activity.OfferAccepted, rec.Activity.Detail.OfferStatus())

	err = f.recorder.PatchCashOfferStatus(ctx, rec.Activity.ID, activity.OfferRejected)
	assert.True(t, xerrors.Is(err, xerrors.ErrConflict))

	view, err := f.recorder.RecordDetailed(ctx, f.request(activity.KindViewDetail, nil))
	require.NoError(t, err)
	err = f.recorder.PatchCashOfferStatus(ctx, view.Activity.ID, activity.OfferAccepted)
	assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))
}

func TestSettlePendingOffer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	c, err := f.recorder.SettlePendingOffer(ctx, "+6281234567890", f.vehicleID, activity.OfferAccepted)
	require.NoError(t, err)
	assert.Nil(t, c)

	rec, err := f.recorder.RecordDetailed(ctx, f.request(activity.KindCashOffer, &activity.Detail{
		CashOffer: &activity.CashOfferDetail{OfferedPrice: 140_000_000},
	}))
	require.NoError(t, err)

	c, err = f.recorder.SettlePendingOffer(ctx, "+6281234567890", f.vehicleID, activity.OfferRejected)
	require.NoError(t, err)
	assert.Equal(t, rec.Customer.ID, c.ID)
	assert.Equal(t, activity.OfferRejected, rec.Activity.Detail.OfferStatus())

	// nothing pending anymore
	c, err = f.recorder.SettlePendingOffer(ctx, "+6281234567890", f.vehicleID, activity.OfferAccepted)
	require.NoError(t, err)
	assert.NotNil(t, c)
}
