package customer

// internal/domain/customer/entity.go
import (
	"time"

	"showroom-service/internal/domain/activity"

	"github.com/google/uuid"
)

type Status string
type Priority string

const (
	StatusNotFollowedUp Status = "Belum Di Follow Up"
	StatusFollowedUp    Status = "Sudah Di Follow Up"
	StatusInterested    Status = "Interested"
	StatusHotLead       Status = "Hot Lead"
	StatusPurchased     Status = "Purchased"

	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// InitialStatus is assigned to customers created by a first interaction.
const InitialStatus = StatusNotFollowedUp

// Statuses lists every lifecycle stage in ascending order.
var Statuses = []Status{StatusNotFollowedUp, StatusFollowedUp, StatusInterested, StatusHotLead, StatusPurchased}

var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Customer is a lead or buyer, keyed by canonical phone number.
type Customer struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	Phone            string         `json:"phone" db:"phone"`
	Name             string         `json:"name" db:"name"`
	Status           Status         `json:"status" db:"status"`
	LastActivity     time.Time      `json:"last_activity" db:"last_activity"`
	InteractionCount int            `json:"interaction_count" db:"interaction_count"`
	History          []HistoryEntry `json:"history" db:"interactions"`
	Summary          Summary        `json:"summary" db:"summary"`
	Notes            string         `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// VehicleSnapshot is the vehicle as it looked when the interaction happened.
type VehicleSnapshot struct {
	Make  string  `json:"make"`
	Model string  `json:"model"`
	Year  int     `json:"year"`
	Price float64 `json:"price"`
}

type HistoryEntry struct {
	ID        string           `json:"id"`
	VehicleID uuid.UUID        `json:"vehicle_id"`
	Vehicle   VehicleSnapshot  `json:"vehicle"`
	Kind      activity.Kind    `json:"kind"`
	Detail    *activity.Detail `json:"detail,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

type FavoriteVehicle struct {
	VehicleID    uuid.UUID `json:"vehicle_id"`
	Label        string    `json:"label"`
	Interactions int       `json:"interactions"`
}

// Summary is derived from History and rebuilt after every append.
type Summary struct {
	Views                  int               `json:"views"`
	CreditSimulations      int               `json:"credit_simulations"`
	TestDrives             int               `json:"test_drives"`
	CashOffers             int               `json:"cash_offers"`
	FavoriteVehicles       []FavoriteVehicle `json:"favorite_vehicles"`
	AverageDiscountPercent float64           `json:"average_discount_percent"`
	MinPriceSeen           float64           `json:"min_price_seen"`
	MaxPriceSeen           float64           `json:"max_price_seen"`
}

// Profile is a customer enriched with the computed lead indicators.
type Profile struct {
	*Customer
	EngagementScore  int      `json:"engagement_score"`
	Priority         Priority `json:"priority"`
	ReadyForFollowUp bool     `json:"ready_for_follow_up"`
}
