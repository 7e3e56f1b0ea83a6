package revenue

import (
	"context"
	"errors"
	"testing"
	"time"

	"showroom-service/internal/domain/activity"
	"showroom-service/internal/domain/analytics"
	xerrors "showroom-service/internal/pkg/errors"
	analyticssvc "showroom-service/internal/service/analytics"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedInteractions []analytics.Interaction

func (f fixedInteractions) CashOffers(_ context.Context, filter analytics.InteractionFilter) []analytics.Interaction {
	out := []analytics.Interaction{}
	for _, in := range f {
		if in.Kind == activity.KindCashOffer && filter.Window.Contains(in.OccurredAt) {
			out = append(out, in)
		}
	}
	return out
}

type fixedForecast struct {
	in  *analytics.ForecastInputs
	err error
}

func (f fixedForecast) ForecastInputs(context.Context) (*analytics.ForecastInputs, error) {
	return f.in, f.err
}

func offer(at time.Time, price float64, status activity.OfferStatus) analytics.Interaction {
	return analytics.Interaction{
		Kind:       activity.KindCashOffer,
		OccurredAt: at,
		Detail:     &activity.Detail{CashOffer: &activity.CashOfferDetail{OfferedPrice: price, Status: status}},
	}
}

var inputs = &analytics.ForecastInputs{
	RecentInquiries:       10,
	TotalCustomers:        100,
	PurchasedCustomers:    10,
	HotLeadCustomers:      5,
	AverageAvailablePrice: 200_000_000,
}

func newService(history fixedInteractions, forecast fixedForecast) *RevenueService {
	svc := NewRevenueService(history, forecast, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestSeasonalTable(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		v := SeasonalMultiplier(m)
		assert.GreaterOrEqual(t, v, 0.85)
		assert.LessOrEqual(t, v, 1.2)
	}
	assert.Equal(t, 1.2, SeasonalMultiplier(time.December))
	assert.Equal(t, 0.85, SeasonalMultiplier(time.February))
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 85.0, Confidence(0))
	assert.Equal(t, 80.0, Confidence(1))
	assert.Equal(t, 30.0, Confidence(11))
	assert.Equal(t, 30.0, Confidence(40))
}

func TestProjectMonthly(t *testing.T) {
	history := fixedInteractions{
		offer(time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), 120_000_000, activity.OfferAccepted),
		offer(time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), 95_000_000, activity.OfferAccepted),
		offer(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 140_000_000, activity.OfferAccepted),
		offer(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), 180_000_000, activity.OfferPending),
		offer(time.Date(2023, 11, 2, 0, 0, 0, 0, time.UTC), 120_000_000, activity.OfferPending),
		offer(time.Date(2023, 3, 11, 0, 0, 0, 0, time.UTC), 180_000_000, activity.OfferAccepted),
	}
	svc := newService(history, fixedForecast{in: inputs})

	points, err := svc.Project(context.Background(), &analytics.ProjectionQuery{Year: 2024})
	require.NoError(t, err)
	require.Len(t, points, 12)

	jan, feb, mar, apr := points[0], points[1], points[2], points[3]
	assert.True(t, jan.IsHistorical)
	assert.Zero(t, jan.Amount)
	assert.Equal(t, 215_000_000.0, feb.Amount)
	assert.Equal(t, 2, feb.Breakdown.Deals)
	assert.Equal(t, 140_000_000.0, mar.Amount)
	assert.Equal(t, 100.0, mar.Confidence)

	// 10 inquiries * 1.05 * 10% * 200M + 0.3 * (300M + 0.4*5*200M*0.9) * 1.05
	assert.False(t, apr.IsHistorical)
	assert.Equal(t, "2024-04", apr.Period)
	assert.Equal(t, 417_900_000.0, apr.Amount)
	assert.Equal(t, 210_000_000.0, apr.Breakdown.InquiryComponent)
	assert.Equal(t, 207_900_000.0, apr.Breakdown.PipelineComponent)
	assert.Equal(t, 85.0, apr.Confidence)
	assert.Equal(t, 45.0, points[11].Confidence)
}

func TestProjectQuarterly(t *testing.T) {
	history := fixedInteractions{offer(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 100_000_000, activity.OfferAccepted)}
	svc := newService(history, fixedForecast{in: inputs})

	points, err := svc.Project(context.Background(), &analytics.ProjectionQuery{Year: 2024, Granularity: analytics.GranularityQuarterly})
	require.NoError(t, err)
	require.Len(t, points, 4)

	assert.Equal(t, "2024-Q1", points[0].Period)
	assert.True(t, points[0].IsHistorical)
	assert.Equal(t, 100_000_000.0, points[0].Amount)
	assert.Equal(t, 100.0, points[0].Confidence)

	assert.False(t, points[1].IsHistorical)
	assert.Equal(t, 80.0, points[1].Confidence)
}

func TestProjectFutureYearFloorsConfidence(t *testing.T) {
	svc := newService(nil, fixedForecast{in: inputs})

	points, err := svc.Project(context.Background(), &analytics.ProjectionQuery{Year: 2026})
	require.NoError(t, err)
	for _, p := range points {
		assert.False(t, p.IsHistorical)
		assert.Equal(t, 30.0, p.Confidence)
	}
}

func TestProjectDegradesWithoutInputs(t *testing.T) {
	svc := newService(nil, fixedForecast{err: errors.New("connection refused")})

	points, err := svc.Project(context.Background(), &analytics.ProjectionQuery{})
	require.NoError(t, err)
	for _, p := range points[3:] {
		assert.Zero(t, p.Amount)
	}

	_, err = svc.Project(context.Background(), &analytics.ProjectionQuery{Granularity: "weekly"})
	assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))
}

func TestPipeline(t *testing.T) {
	history := fixedInteractions{
		offer(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 200_000_000, activity.OfferPending),
		offer(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), 100_000_000, activity.OfferPending),
		offer(time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), 150_000_000, activity.OfferRejected),
	}
	svc := newService(history, fixedForecast{in: inputs})

	p := svc.Pipeline(context.Background())
	assert.Equal(t, 360_000_000.0, p.HotLeadEstimate)
	assert.Equal(t, 300_000_000.0, p.PendingOffers)
	assert.Equal(t, 660_000_000.0, p.Value)
	assert.Equal(t, 2, p.PendingOfferCount)
}

type staticReader struct {
	source analytics.Source
	items  []analytics.Interaction
}

func (r staticReader) Source() analytics.Source { return r.source }

func (r staticReader) ReadInteractions(_ context.Context, f analytics.InteractionFilter) ([]analytics.Interaction, error) {
	out := []analytics.Interaction{}
	for _, in := range r.items {
		if f.Window.Contains(in.OccurredAt) {
			out = append(out, in)
		}
	}
	return out, nil
}

func TestProjectCountsSaleAfterSameDayRejection(t *testing.T) {
	vid := uuid.New()
	at := time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)
	sale := func(src analytics.Source, hour int, price float64, status activity.OfferStatus) analytics.Interaction {
		in := offer(at.Add(time.Duration(hour)*time.Hour), price, status)
		in.Source, in.Phone, in.VehicleID = src, "+6281234567890", vid
		return in
	}
	embedded := staticReader{source: analytics.SourceEmbedded, items: []analytics.Interaction{
		sale(analytics.SourceEmbedded, 0, 136_500_000, activity.OfferRejected),
		sale(analytics.SourceEmbedded, 3, 140_000_000, activity.OfferAccepted),
	}}
	legacy := staticReader{source: analytics.SourceLegacy, items: []analytics.Interaction{
		sale(analytics.SourceLegacy, 0, 136_500_000, activity.OfferRejected),
		sale(analytics.SourceLegacy, 3, 140_000_000, activity.OfferAccepted),
		sale(analytics.SourceLegacy, 5, 145_000_000, activity.OfferPending),
	}}
	reports := analyticssvc.NewAnalyticsService([]analytics.InteractionReader{embedded, legacy}, nil, nil, 0, nil, zap.NewNop())
	svc := NewRevenueService(reports, fixedForecast{in: inputs}, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC) }

	points, err := svc.Project(context.Background(), &analytics.ProjectionQuery{Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, 140_000_000.0, points[1].Amount)
	assert.Equal(t, 1, points[1].Breakdown.Deals)

	p := svc.Pipeline(context.Background())
	assert.Equal(t, 145_000_000.0, p.PendingOffers)
	assert.Equal(t, 1, p.PendingOfferCount)
}
