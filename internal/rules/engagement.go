package rules

import (
	"fmt"
	"math"
	"sort"
	"time"

	"showroom-service/internal/domain/activity"
	"showroom-service/internal/domain/customer"

	"github.com/google/uuid"
)

const (
	WeightView             = 1
	WeightCreditSimulation = 3
	WeightTestDrive        = 5
	WeightCashOffer        = 7

	maxEngagementScore  = 100
	followUpWindow      = 7 * 24 * time.Hour
	followUpMinScore    = 10
	urgentWindow        = 2 * 24 * time.Hour
	maxFavoriteVehicles = 3
)

// KindWeight is the engagement weight of a single interaction.
func KindWeight(kind activity.Kind) int {
	switch {
	case kind == activity.KindViewDetail:
		return WeightView
	case kind == activity.KindCreditSimulation:
		return WeightCreditSimulation
	case kind.IsTestDrive():
		return WeightTestDrive
	case kind == activity.KindCashOffer:
		return WeightCashOffer
	default:
		return 0
	}
}

// EngagementScore is half the weighted interaction sum, rounded, capped at 100.
func EngagementScore(history []customer.HistoryEntry) int {
	sum := 0
	for _, h := range history {
		sum += KindWeight(h.Kind)
	}
	score := int(math.Round(float64(sum) / 2))
	if score > maxEngagementScore {
		return maxEngagementScore
	}
	return score
}

// ReadyForFollowUp is true for an unconverted customer who was active in
// the last week, showed purchase intent and scores at least 10.
func ReadyForFollowUp(c *customer.Customer, now time.Time) bool {
	if c == nil || c.Status == customer.StatusPurchased {
		return false
	}
	if now.Sub(c.LastActivity) > followUpWindow {
		return false
	}

	highValue := false
	for _, h := range c.History {
		if h.Kind.HighValue() {
			highValue = true
			break
		}
	}
	if !highValue {
		return false
	}
	return EngagementScore(c.History) >= followUpMinScore
}

// Classify assigns a follow-up priority; the first matching level wins.
func Classify(c *customer.Customer, now time.Time) customer.Priority {
	if c == nil {
		return customer.PriorityLow
	}
	counts := countKinds(c.History)

	switch {
	case c.Status == customer.StatusHotLead && now.Sub(c.LastActivity) <= urgentWindow:
		return customer.PriorityUrgent
	case counts.CashOffers > 0 || counts.TestDrives > 1:
		return customer.PriorityHigh
	case c.Status == customer.StatusInterested && counts.CreditSimulations > 0:
		return customer.PriorityMedium
	default:
		return customer.PriorityLow
	}
}

// BuildProfile bundles a customer with its computed indicators.
func BuildProfile(c *customer.Customer, now time.Time) *customer.Profile {
	return &customer.Profile{
		Customer:         c,
		EngagementScore:  EngagementScore(c.History),
		Priority:         Classify(c, now),
		ReadyForFollowUp: ReadyForFollowUp(c, now),
	}
}

// Summarize rebuilds the derived statistics of a history.
func Summarize(history []customer.HistoryEntry) customer.Summary {
	s := countKinds(history)

	type fav struct {
		customer.FavoriteVehicle
		first int
	}
	favs := map[uuid.UUID]*fav{}
	var discountSum float64
	var discountN int

	for i, h := range history {
		f, ok := favs[h.VehicleID]
		if !ok {
			f = &fav{
				FavoriteVehicle: customer.FavoriteVehicle{
					VehicleID: h.VehicleID,
					Label:     snapshotLabel(h.Vehicle),
				},
				first: i,
			}
			favs[h.VehicleID] = f
		}
		f.Interactions++

		if h.Kind == activity.KindCashOffer && h.Detail != nil && h.Detail.CashOffer != nil {
			discountSum += h.Detail.CashOffer.DiscountPercent
			discountN++
		}

		if price := h.Vehicle.Price; price > 0 {
			if s.MinPriceSeen == 0 || price < s.MinPriceSeen {
				s.MinPriceSeen = price
			}
			if price > s.MaxPriceSeen {
				s.MaxPriceSeen = price
			}
		}
	}

	ordered := make([]*fav, 0, len(favs))
	for _, f := range favs {
		ordered = append(ordered, f)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Interactions != ordered[j].Interactions {
			return ordered[i].Interactions > ordered[j].Interactions
		}
		return ordered[i].first < ordered[j].first
	})
	for i := 0; i < len(ordered) && i < maxFavoriteVehicles; i++ {
		s.FavoriteVehicles = append(s.FavoriteVehicles, ordered[i].FavoriteVehicle)
	}

	if discountN > 0 {
		s.AverageDiscountPercent = RoundTo(discountSum/float64(discountN), 2)
	}
	return s
}

func countKinds(history []customer.HistoryEntry) customer.Summary {
	var s customer.Summary
	for _, h := range history {
		switch {
		case h.Kind == activity.KindViewDetail:
			s.Views++
		case h.Kind == activity.KindCreditSimulation:
			s.CreditSimulations++
		case h.Kind.IsTestDrive():
			s.TestDrives++
		case h.Kind == activity.KindCashOffer:
			s.CashOffers++
		}
	}
	return s
}

func snapshotLabel(v customer.VehicleSnapshot) string {
	if v.Make == "" && v.Model == "" {
		return ""
	}
	if v.Year > 0 {
		return fmt.Sprintf("%s %s %d", v.Make, v.Model, v.Year)
	}
	return v.Make + " " + v.Model
}
