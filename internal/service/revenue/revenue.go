// internal/service/revenue/revenue.go
package revenue

import (
	"context"
	"fmt"
	"math"
	"time"

	"showroom-service/internal/domain/activity"
	"showroom-service/internal/domain/analytics"
	"showroom-service/internal/metrics"
	xerrors "showroom-service/internal/pkg/errors"
	"showroom-service/internal/rules"

	"go.uber.org/zap"
)

// seasonalMultipliers is indexed by calendar month, January first.
var seasonalMultipliers = [12]float64{0.9, 0.85, 0.95, 1.05, 1.1, 1.0, 0.95, 1.0, 0.95, 1.0, 1.05, 1.2}

const (
	pipelineShare        = 0.3
	hotLeadCloseRate     = 0.4
	hotLeadPriceFactor   = 0.9
	maxConfidence        = 85.0
	minConfidence        = 30.0
	confidenceDecay      = 5.0
	historicalConfidence = 100.0
)

// OfferSource lists cash offers across storage shapes, one entry per
// distinct offer. Implemented by analytics.AnalyticsService.
type OfferSource interface {
	CashOffers(ctx context.Context, filter analytics.InteractionFilter) []analytics.Interaction
}

type ForecastSource interface {
	ForecastInputs(ctx context.Context) (*analytics.ForecastInputs, error)
}

type RevenueService struct {
	offers   OfferSource
	forecast ForecastSource
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewRevenueService(offers OfferSource, forecast ForecastSource, m *metrics.Metrics, logger *zap.Logger) *RevenueService {
	return &RevenueService{
		offers:   offers,
		forecast: forecast,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// SeasonalMultiplier returns the fixed market seasonality of a month.
func SeasonalMultiplier(m time.Month) float64 {
	return seasonalMultipliers[m-1]
}

// Confidence of a projection monthsAhead months after the current one.
func Confidence(monthsAhead int) float64 {
	return math.Max(maxConfidence-confidenceDecay*float64(monthsAhead), minConfidence)
}

// Project returns one point per month of year, or per quarter. Months
// before the current one report realised sales from accepted cash offers;
// the current and later months are projected.
func (s *RevenueService) Project(ctx context.Context, query *analytics.ProjectionQuery) ([]analytics.RevenuePoint, error) {
	now := s.now().UTC()
	year := query.Year
	if year == 0 {
		year = now.Year()
	}
	granularity := query.Granularity
	if granularity == "" {
		granularity = analytics.GranularityMonthly
	}
	if granularity != analytics.GranularityMonthly && granularity != analytics.GranularityQuarterly {
		return nil, xerrors.Invalid("unknown granularity %q", granularity)
	}

	sales := s.monthlySales(ctx, year)
	in := s.forecastInputs(ctx)
	pipelineValue := in.PendingOffersTotal + hotLeadEstimate(in)
	conversion := conversionRate(in)

	months := make([]analytics.RevenuePoint, 0, 12)
	for m := time.January; m <= time.December; m++ {
		ahead := (year-now.Year())*12 + int(m) - int(now.Month())
		if ahead < 0 {
			months = append(months, analytics.RevenuePoint{
				Period:       fmt.Sprintf("%04d-%02d", year, m),
				Amount:       sales[m-1].Amount,
				IsHistorical: true,
				Confidence:   historicalConfidence,
				Breakdown:    &analytics.RevenueBreakdown{Deals: sales[m-1].Deals},
			})
			continue
		}

		seasonal := SeasonalMultiplier(m)
		inquiry := float64(in.RecentInquiries) * seasonal * conversion * in.AverageAvailablePrice
		pipe := pipelineShare * pipelineValue * seasonal
		months = append(months, analytics.RevenuePoint{
			Period:     fmt.Sprintf("%04d-%02d", year, m),
			Amount:     rules.RoundTo(inquiry+pipe, 0),
			Confidence: Confidence(ahead),
			Breakdown: &analytics.RevenueBreakdown{
				InquiryComponent:   rules.RoundTo(inquiry, 0),
				PipelineComponent:  rules.RoundTo(pipe, 0),
				SeasonalMultiplier: seasonal,
			},
		})
	}

	if granularity == analytics.GranularityQuarterly {
		return quarters(year, months), nil
	}
	return months, nil
}

func quarters(year int, months []analytics.RevenuePoint) []analytics.RevenuePoint {
	out := make([]analytics.RevenuePoint, 0, 4)
	for q := 0; q < 4; q++ {
		point := analytics.RevenuePoint{
			Period:       fmt.Sprintf("%04d-Q%d", year, q+1),
			IsHistorical: true,
			Breakdown:    &analytics.RevenueBreakdown{},
		}
		confidence := 0.0
		for _, m := range months[q*3 : q*3+3] {
			point.Amount += m.Amount
			point.IsHistorical = point.IsHistorical && m.IsHistorical
			confidence += m.Confidence
			point.Breakdown.Deals += m.Breakdown.Deals
			point.Breakdown.InquiryComponent += m.Breakdown.InquiryComponent
			point.Breakdown.PipelineComponent += m.Breakdown.PipelineComponent
		}
		point.Confidence = math.Round(confidence / 3)
		out = append(out, point)
	}
	return out
}

// monthlySales sums accepted cash offers of year by the month they were made.
func (s *RevenueService) monthlySales(ctx context.Context, year int) [12]analytics.MonthlySales {
	var sales [12]analytics.MonthlySales
	for i := range sales {
		sales[i].Month = time.Month(i + 1)
	}

	window := analytics.Window{Year: year}
	for _, in := range s.offers.CashOffers(ctx, analytics.InteractionFilter{Window: window}) {
		if in.Detail.OfferStatus() != activity.OfferAccepted {
			continue
		}
		m := in.OccurredAt.UTC().Month()
		sales[m-1].Amount += in.Detail.CashOffer.OfferedPrice
		sales[m-1].Deals++
	}
	return sales
}

// forecastInputs degrades to zero inputs when the aggregates are
// unavailable. Pending offers are summed over both storage shapes.
func (s *RevenueService) forecastInputs(ctx context.Context) *analytics.ForecastInputs {
	in := &analytics.ForecastInputs{}
	if got, err := s.forecast.ForecastInputs(ctx); err == nil && got != nil {
		*in = *got
	} else {
		s.logger.Warn("forecast inputs unavailable, projecting from zero", zap.Error(err))
		if s.metrics != nil {
			s.metrics.AnalyticsFallback.WithLabelValues("revenue").Inc()
		}
	}

	in.PendingOffersTotal, in.PendingOfferCount = 0, 0
	for _, o := range s.offers.CashOffers(ctx, analytics.InteractionFilter{}) {
		if o.Detail.OfferStatus() == activity.OfferPending {
			in.PendingOffersTotal += o.Detail.CashOffer.OfferedPrice
			in.PendingOfferCount++
		}
	}
	return in
}

func conversionRate(in *analytics.ForecastInputs) float64 {
	if in.TotalCustomers <= 0 {
		return 0
	}
	return float64(in.PurchasedCustomers) / float64(in.TotalCustomers)
}

// hotLeadEstimate values the hot leads expected to close at a discount.
func hotLeadEstimate(in *analytics.ForecastInputs) float64 {
	return hotLeadCloseRate * float64(in.HotLeadCustomers) * in.AverageAvailablePrice * hotLeadPriceFactor
}

func buildPipeline(in *analytics.ForecastInputs) analytics.Pipeline {
	estimate := hotLeadEstimate(in)
	return analytics.Pipeline{
		PendingOffers:       in.PendingOffersTotal,
		PendingOfferCount:   in.PendingOfferCount,
		HotLeadCount:        in.HotLeadCustomers,
		AverageVehiclePrice: rules.RoundTo(in.AverageAvailablePrice, 0),
		HotLeadEstimate:     rules.RoundTo(estimate, 0),
		Value:               rules.RoundTo(in.PendingOffersTotal+estimate, 0),
	}
}

// Pipeline reports the current open sales pipeline.
func (s *RevenueService) Pipeline(ctx context.Context) *analytics.Pipeline {
	p := buildPipeline(s.forecastInputs(ctx))
	return &p
}
