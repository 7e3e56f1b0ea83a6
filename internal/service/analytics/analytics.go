// internal/service/analytics/analytics.go
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"showroom-service/internal/domain/activity"
	"showroom-service/internal/domain/analytics"
	"showroom-service/internal/domain/customer"
	wstypes "showroom-service/internal/domain/websocket"
	"showroom-service/internal/metrics"
	"showroom-service/internal/rules"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportCache stores rendered reports. Implemented by cache.Redis.
type ReportCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// SystemAlerter pushes operational alerts to the back office.
type SystemAlerter interface {
	BroadcastSystemAlert(alert *wstypes.SystemAlertData)
}

type AnalyticsService struct {
	readers  []analytics.InteractionReader
	repo     analytics.Repository
	cache    ReportCache
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	alerter  SystemAlerter
	logger   *zap.Logger
	now      func() time.Time
}

// NewAnalyticsService merges readers in the given order; on a dedup
// collision the earlier reader wins. cache and m may be nil.
func NewAnalyticsService(
	readers []analytics.InteractionReader,
	repo analytics.Repository,
	cache ReportCache,
	cacheTTL time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		readers:  readers,
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *AnalyticsService) AttachAlerter(a SystemAlerter) {
	s.alerter = a
}

// UnifiedInteractions reads every storage shape and drops events already
// seen under the same phone, kind and UTC day. A failing reader counts as
// empty. The result is ordered oldest first.
func (s *AnalyticsService) UnifiedInteractions(ctx context.Context, filter analytics.InteractionFilter) []analytics.Interaction {
	batches, _ := s.readAll(ctx, filter)
	return unify(batches)
}

// CashOffers lists every cash offer once. Distinct offers made by the same
// customer on the same day are all kept; a later shape's offer is dropped
// only when an earlier shape holds one with the same offer key.
func (s *AnalyticsService) CashOffers(ctx context.Context, filter analytics.InteractionFilter) []analytics.Interaction {
	batches, _ := s.readAll(ctx, filter)
	return reconcileOffers(batches)
}

// readAll returns one batch per reader in reader order and the number of
// readers that failed.
func (s *AnalyticsService) readAll(ctx context.Context, filter analytics.InteractionFilter) ([][]analytics.Interaction, int) {
	batches := make([][]analytics.Interaction, 0, len(s.readers))
	failed := 0
	for _, r := range s.readers {
		batch, err := r.ReadInteractions(ctx, filter)
		if err != nil {
			s.logger.Warn("interaction reader failed, treating as empty",
				zap.String("source", string(r.Source())),
				zap.Error(err),
			)
			if s.metrics != nil {
				s.metrics.ReaderFailures.WithLabelValues(string(r.Source())).Inc()
			}
			failed++
			continue
		}
		batches = append(batches, batch)
	}
	return batches, failed
}

func unify(batches [][]analytics.Interaction) []analytics.Interaction {
	seen := make(map[string]struct{})
	unified := []analytics.Interaction{}
	for _, batch := range batches {
		for _, in := range batch {
			key := in.DedupKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			unified = append(unified, in)
		}
	}
	sortByTime(unified)
	return unified
}

func reconcileOffers(batches [][]analytics.Interaction) []analytics.Interaction {
	offers := []analytics.Interaction{}
	for _, batch := range batches {
		// Offers kept from earlier shapes, each able to absorb one copy.
		unclaimed := map[string]int{}
		for _, in := range offers {
			unclaimed[in.OfferKey()]++
		}

		for _, in := range batch {
			if in.Kind.Canonical() != activity.KindCashOffer || in.Detail == nil || in.Detail.CashOffer == nil {
				continue
			}
			key := in.OfferKey()
			if unclaimed[key] > 0 {
				unclaimed[key]--
				continue
			}
			offers = append(offers, in)
		}
	}
	sortByTime(offers)
	return offers
}

func sortByTime(in []analytics.Interaction) {
	sort.SliceStable(in, func(i, j int) bool {
		return in[i].OccurredAt.Before(in[j].OccurredAt)
	})
}

// ========== Funnel ==========

type funnelFlags struct {
	viewed, simulated, testDrove, offered, accepted bool
}

// Funnel counts distinct customers per stage. When no customer grouping
// is possible it falls back to raw per-kind event counts and says so in
// the report source.
func (s *AnalyticsService) Funnel(ctx context.Context, window analytics.Window) (*analytics.FunnelReport, error) {
	key := "funnel:" + window.Key()
	var cached analytics.FunnelReport
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	batches, failed := s.readAll(ctx, analytics.InteractionFilter{Window: window})

	byPhone := map[string]*funnelFlags{}
	for _, in := range unify(batches) {
		f, ok := byPhone[in.Phone]
		if !ok {
			f = &funnelFlags{}
			byPhone[in.Phone] = f
		}
		switch kind := in.Kind.Canonical(); {
		case kind == activity.KindViewDetail:
			f.viewed = true
		case kind == activity.KindCreditSimulation:
			f.simulated = true
		case kind.IsTestDrive():
			f.testDrove = true
		case kind == activity.KindCashOffer:
			f.offered = true
		}
	}
	// The day key keeps one offer per customer and day; acceptance is read
	// from every distinct offer.
	for _, in := range reconcileOffers(batches) {
		if f, ok := byPhone[in.Phone]; ok && in.Detail.OfferStatus() == activity.OfferAccepted {
			f.accepted = true
		}
	}

	report := &analytics.FunnelReport{Window: window, Source: analytics.FunnelDistinctCustomers}
	var counts [5]int

	if len(byPhone) > 0 {
		for _, f := range byPhone {
			counts[0] += b2i(f.viewed)
			counts[1] += b2i(f.simulated)
			counts[2] += b2i(f.testDrove)
			counts[3] += b2i(f.offered)
			counts[4] += b2i(f.accepted)
		}
	} else {
		report.Source = analytics.FunnelRawEvents

		raw, err := s.repo.RawKindCounts(ctx, window)
		if err != nil || raw == nil {
			s.logger.Warn("raw funnel counts failed, reporting empty funnel", zap.Error(err))
			raw = &analytics.StageCounts{}
		}
		counts = [5]int{raw.Views, raw.CreditSimulations, raw.TestDrives, raw.CashOffers, raw.AcceptedOffers}

		// An empty window is not a degradation.
		if failed > 0 || counts != [5]int{} {
			s.reportFunnelFallback(window, failed)
		}
	}

	for i, name := range analytics.StageNames {
		report.Stages = append(report.Stages, analytics.Stage{Name: name, Count: counts[i]})
		report.Conversions = append(report.Conversions, analytics.Conversion{
			Name:    name,
			Percent: conversionRate(counts[i], counts[0]),
		})
	}
	report.Insights = funnelInsights(report.Stages)

	s.toCache(ctx, key, report)
	return report, nil
}

func (s *AnalyticsService) reportFunnelFallback(window analytics.Window, failedReaders int) {
	s.logger.Warn("funnel fell back to raw event counts",
		zap.String("window", window.Key()),
		zap.Int("failed_readers", failedReaders),
	)
	if s.metrics != nil {
		s.metrics.AnalyticsFallback.WithLabelValues("funnel").Inc()
	}
	if s.alerter != nil {
		s.alerter.BroadcastSystemAlert(&wstypes.SystemAlertData{
			Severity: "warning",
			Title:    "Funnel on raw events",
			Message:  "no customer-level interactions in window " + window.Key() + ", stage counts are raw event totals",
		})
	}
}

// conversionRate is part/base*100 at 2 decimals, kept inside [0, 100].
// A base that is not positive yields 0.
func conversionRate(part, base int) float64 {
	if base <= 0 || part <= 0 {
		return 0
	}
	if part >= base {
		return 100
	}
	return rules.RoundTo(float64(part)/float64(base)*100, 2)
}

// funnelInsights annotates the funnel. It only reads stages.
func funnelInsights(stages []analytics.Stage) []analytics.Insight {
	insights := []analytics.Insight{}
	if len(stages) < 2 {
		return insights
	}

	worst, worstDrop := -1, 0.0
	for i := 0; i+1 < len(stages); i++ {
		from := stages[i].Count
		if from <= 0 {
			continue
		}
		drop := float64(from-stages[i+1].Count) / float64(from) * 100
		if drop > worstDrop {
			worst, worstDrop = i+1, drop
		}
	}
	if worst > 0 && worstDrop > 50 {
		insights = append(insights, analytics.Insight{
			Level: "warning",
			Stage: stages[worst].Name,
			Message: fmt.Sprintf("%.2f%% of customers drop off between %s and %s",
				rules.RoundTo(worstDrop, 2), stages[worst-1].Name, stages[worst].Name),
		})
	}

	first, last := stages[0].Count, stages[len(stages)-1].Count
	if first > 0 {
		if overall := conversionRate(last, first); overall < 5 {
			insights = append(insights, analytics.Insight{
				Level:   "alert",
				Stage:   stages[len(stages)-1].Name,
				Message: fmt.Sprintf("overall conversion is %.2f%%, below 5%%", overall),
			})
		}
	}
	return insights
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ========== Vehicle performance ==========

// VehiclePerformance scores every vehicle with interactions in the window,
// best first.
func (s *AnalyticsService) VehiclePerformance(ctx context.Context, window analytics.Window) ([]analytics.VehiclePerformance, error) {
	key := "vehicles:" + window.Key()
	var cached []analytics.VehiclePerformance
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	byVehicle := map[uuid.UUID]*analytics.VehiclePerformance{}
	for _, in := range s.UnifiedInteractions(ctx, analytics.InteractionFilter{Window: window}) {
		p, ok := byVehicle[in.VehicleID]
		if !ok {
			p = &analytics.VehiclePerformance{VehicleID: in.VehicleID}
			byVehicle[in.VehicleID] = p
		}
		switch kind := in.Kind.Canonical(); {
		case kind == activity.KindViewDetail:
			p.Views++
		case kind == activity.KindCreditSimulation:
			p.CreditSimulations++
		case kind.IsTestDrive():
			p.TestDrives++
		case kind == activity.KindCashOffer:
			p.CashOffers++
		}
	}

	ids := make([]uuid.UUID, 0, len(byVehicle))
	for id := range byVehicle {
		ids = append(ids, id)
	}
	labels, err := s.repo.VehicleLabels(ctx, ids)
	if err != nil {
		s.logger.Warn("vehicle labels unavailable", zap.Error(err))
		labels = map[uuid.UUID]string{}
	}

	out := make([]analytics.VehiclePerformance, 0, len(byVehicle))
	for id, p := range byVehicle {
		scorePerformance(p)
		p.Label = labels[id]
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PerformanceScore != out[j].PerformanceScore {
			return out[i].PerformanceScore > out[j].PerformanceScore
		}
		return out[i].VehicleID.String() < out[j].VehicleID.String()
	})

	s.toCache(ctx, key, out)
	return out, nil
}

func scorePerformance(p *analytics.VehiclePerformance) {
	p.PerformanceScore = p.Views*rules.WeightView +
		p.CreditSimulations*rules.WeightCreditSimulation +
		p.TestDrives*rules.WeightTestDrive +
		p.CashOffers*rules.WeightCashOffer

	p.EngagementRate = 0
	if p.Views > 0 {
		engaged := p.CreditSimulations + p.TestDrives + p.CashOffers
		p.EngagementRate = int(rules.RoundTo(float64(engaged)*100/float64(p.Views), 0))
	}
}

// ========== Customer journey ==========

func (s *AnalyticsService) CustomerJourney(ctx context.Context) (*analytics.JourneyReport, error) {
	key := "journey"
	var cached analytics.JourneyReport
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		s.logger.Error("failed to load customers for journey", zap.Error(err))
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}

	now := s.now()
	report := &analytics.JourneyReport{
		TotalCustomers:       len(customers),
		StatusDistribution:   make(map[customer.Status]int, len(customer.Statuses)),
		PriorityDistribution: make(map[customer.Priority]int, len(customer.Priorities)),
	}
	for _, st := range customer.Statuses {
		report.StatusDistribution[st] = 0
	}
	for _, p := range customer.Priorities {
		report.PriorityDistribution[p] = 0
	}

	totalScore := 0
	for i := range customers {
		p := rules.BuildProfile(&customers[i], now)
		report.StatusDistribution[p.Status]++
		report.PriorityDistribution[p.Priority]++
		totalScore += p.EngagementScore
		if p.ReadyForFollowUp {
			report.ReadyForFollowUp++
		}
	}
	if len(customers) > 0 {
		report.AverageEngagementScore = rules.RoundTo(float64(totalScore)/float64(len(customers)), 2)
	}

	s.toCache(ctx, key, report)
	return report, nil
}

// ========== Cache ==========

// Refresh drops every cached report so the next read recomputes it.
func (s *AnalyticsService) Refresh(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, "*"); err != nil {
		s.logger.Error("failed to invalidate analytics cache", zap.Error(err))
		return fmt.Errorf("failed to invalidate analytics cache: %w", err)
	}
	s.logger.Info("analytics cache invalidated")
	return nil
}

func (s *AnalyticsService) fromCache(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetJSON(ctx, key, dest)
	switch {
	case err != nil:
		s.logger.Warn("analytics cache read failed", zap.String("key", key), zap.Error(err))
		s.countCache("error")
	case hit:
		s.countCache("hit")
	default:
		s.countCache("miss")
	}
	return err == nil && hit
}

func (s *AnalyticsService) toCache(ctx context.Context, key string, value any) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("analytics cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *AnalyticsService) countCache(result string) {
	if s.metrics != nil {
		s.metrics.AnalyticsCache.WithLabelValues(result).Inc()
	}
}
