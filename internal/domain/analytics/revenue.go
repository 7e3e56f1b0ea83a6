package analytics

import "time"

type Granularity string

const (
	GranularityMonthly   Granularity = "monthly"
	GranularityQuarterly Granularity = "quarterly"
)

type ProjectionQuery struct {
	Year        int         `form:"year" binding:"omitempty,min=2000,max=2100"`
	Granularity Granularity `form:"granularity" binding:"omitempty,oneof=monthly quarterly"`
}

type RevenuePoint struct {
	Period       string            `json:"period"` // 2024-03 or 2024-Q1
	Amount       float64           `json:"amount"`
	IsHistorical bool              `json:"is_historical"`
	Confidence   float64           `json:"confidence"`
	Breakdown    *RevenueBreakdown `json:"breakdown,omitempty"`
}

type RevenueBreakdown struct {
	Deals              int     `json:"deals,omitempty"`
	InquiryComponent   float64 `json:"inquiry_component,omitempty"`
	PipelineComponent  float64 `json:"pipeline_component,omitempty"`
	SeasonalMultiplier float64 `json:"seasonal_multiplier,omitempty"`
}

type Pipeline struct {
	PendingOffers       float64 `json:"pending_offers"`
	PendingOfferCount   int     `json:"pending_offer_count"`
	HotLeadCount        int     `json:"hot_lead_count"`
	AverageVehiclePrice float64 `json:"average_vehicle_price"`
	HotLeadEstimate     float64 `json:"hot_lead_estimate"`
	Value               float64 `json:"value"`
}

// MonthlySales is the realised revenue of a calendar month.
type MonthlySales struct {
	Month  time.Month
	Amount float64
	Deals  int
}

// ForecastInputs are the store-level aggregates the projector needs. The
// pending offer fields are filled from the reconciled cash offers.
type ForecastInputs struct {
	RecentInquiries       int
	TotalCustomers        int
	PurchasedCustomers    int
	HotLeadCustomers      int
	AverageAvailablePrice float64
	PendingOffersTotal    float64
	PendingOfferCount     int
}
