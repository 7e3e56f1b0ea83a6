package analytics

// internal/domain/analytics/entity.go
import (
	"fmt"
	"time"

	"showroom-service/internal/domain/activity"
	"showroom-service/internal/domain/customer"

	"github.com/google/uuid"
)

type Source string
type FunnelSource string

const (
	// SourceEmbedded marks interactions read from vehicles.interactions.
	SourceEmbedded Source = "embedded"
	// SourceLegacy marks interactions read from the activities log.
	SourceLegacy Source = "legacy"

	FunnelDistinctCustomers FunnelSource = "distinct_customers"
	FunnelRawEvents         FunnelSource = "raw_events"
)

// Funnel stage names in visitor-to-customer order.
const (
	StageVisitor    = "Visitor"
	StageInterested = "Interested"
	StageEngaged    = "Engaged"
	StageHotLead    = "Hot Lead"
	StageCustomer   = "Customer"
)

var StageNames = []string{StageVisitor, StageInterested, StageEngaged, StageHotLead, StageCustomer}

// Window narrows a report to a UTC year or month. Zero fields mean unbounded.
type Window struct {
	Year  int `form:"year" json:"year,omitempty" binding:"omitempty,min=2000,max=2100"`
	Month int `form:"month" json:"month,omitempty" binding:"omitempty,min=1,max=12"`
}

// Bounds returns the half-open [from, to) range of the window.
func (w Window) Bounds() (from, to time.Time, ok bool) {
	if w.Year == 0 {
		return time.Time{}, time.Time{}, false
	}
	if w.Month == 0 {
		from = time.Date(w.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0), true
	}
	from = time.Date(w.Year, time.Month(w.Month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0), true
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	from, to, ok := w.Bounds()
	if !ok {
		return true
	}
	t = t.UTC()
	return !t.Before(from) && t.Before(to)
}

func (w Window) Key() string {
	return fmt.Sprintf("%04d-%02d", w.Year, w.Month)
}

// Interaction is the storage-independent view of one customer action.
type Interaction struct {
	Source       Source           `json:"source"`
	Phone        string           `json:"phone"`
	CustomerName string           `json:"customer_name"`
	VehicleID    uuid.UUID        `json:"vehicle_id"`
	Kind         activity.Kind    `json:"kind"`
	OccurredAt   time.Time        `json:"occurred_at"`
	Detail       *activity.Detail `json:"detail,omitempty"`
}

// DedupKey identifies the same event across storage shapes:
// phone, canonical kind and UTC calendar date.
func (i Interaction) DedupKey() string {
	return i.Phone + "|" + string(i.Kind.Canonical()) + "|" + i.OccurredAt.UTC().Format("2006-01-02")
}

// OfferKey identifies one cash offer across storage shapes: phone, vehicle,
// offered price and UTC calendar date. Unlike DedupKey it separates two
// offers made the same day.
func (i Interaction) OfferKey() string {
	price := 0.0
	if i.Detail != nil && i.Detail.CashOffer != nil {
		price = i.Detail.CashOffer.OfferedPrice
	}
	return fmt.Sprintf("%s|%s|%.2f|%s", i.Phone, i.VehicleID, price, i.OccurredAt.UTC().Format("2006-01-02"))
}

// HistoryEntry converts the interaction into the shape the rule engine consumes.
func (i Interaction) HistoryEntry() customer.HistoryEntry {
	return customer.HistoryEntry{
		VehicleID: i.VehicleID,
		Kind:      i.Kind,
		Detail:    i.Detail,
		Timestamp: i.OccurredAt,
	}
}

type Stage struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Conversion struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

type Insight struct {
	Level   string `json:"level"` // warning, alert
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

type FunnelReport struct {
	Window      Window       `json:"window"`
	Source      FunnelSource `json:"source"`
	Stages      []Stage      `json:"stages"`
	Conversions []Conversion `json:"conversions"`
	Insights    []Insight    `json:"insights"`
}

// StageCounts is the raw per-kind tally used when the per-customer
// grouping produced nothing.
type StageCounts struct {
	Views             int `json:"views"`
	CreditSimulations int `json:"credit_simulations"`
	TestDrives        int `json:"test_drives"`
	CashOffers        int `json:"cash_offers"`
	AcceptedOffers    int `json:"accepted_offers"`
}

type VehiclePerformance struct {
	VehicleID         uuid.UUID `json:"vehicle_id"`
	Label             string    `json:"label,omitempty"`
	Views             int       `json:"views"`
	CreditSimulations int       `json:"credit_simulations"`
	TestDrives        int       `json:"test_drives"`
	CashOffers        int       `json:"cash_offers"`
	PerformanceScore  int       `json:"performance_score"`
	EngagementRate    int       `json:"engagement_rate"`
}

type JourneyReport struct {
	TotalCustomers         int                       `json:"total_customers"`
	StatusDistribution     map[customer.Status]int   `json:"status_distribution"`
	PriorityDistribution   map[customer.Priority]int `json:"priority_distribution"`
	AverageEngagementScore float64                   `json:"average_engagement_score"`
	ReadyForFollowUp       int                       `json:"ready_for_follow_up"`
}
