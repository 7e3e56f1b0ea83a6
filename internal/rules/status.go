package rules

import (
	"time"

	"showroom-service/internal/domain/activity"
	"showroom-service/internal/domain/customer"
)

// BookingExpiry is how long after its slot a test-drive booking stays active.
const BookingExpiry = 24 * time.Hour

var statusOrder = map[customer.Status]int{
	customer.StatusNotFollowedUp: 1,
	customer.StatusFollowedUp:    2,
	customer.StatusInterested:    3,
	customer.StatusHotLead:       4,
	customer.StatusPurchased:     5,
}

// StatusOrder returns the position of s in the lifecycle, 0 when unknown.
func StatusOrder(s customer.Status) int {
	return statusOrder[s]
}

// SuggestedStatus maps an activity kind to the stage it implies.
func SuggestedStatus(kind activity.Kind) (customer.Status, bool) {
	switch {
	case kind == activity.KindCreditSimulation:
		return customer.StatusInterested, true
	case kind.IsTestDrive():
		return customer.StatusHotLead, true
	case kind == activity.KindCashOffer:
		return customer.StatusHotLead, true
	default:
		return "", false
	}
}

// Escalate returns the status after kind happened. It only ever moves
// forward; lowering a status is a manual admin action.
func Escalate(current customer.Status, kind activity.Kind) customer.Status {
	suggested, ok := SuggestedStatus(kind)
	if !ok {
		return current
	}
	if StatusOrder(suggested) > StatusOrder(current) {
		return suggested
	}
	return current
}

// ExpiredBookingCutoff is the instant before which a booking slot counts as expired.
func ExpiredBookingCutoff(now time.Time) time.Time {
	return now.Add(-BookingExpiry)
}
