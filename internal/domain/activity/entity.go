package activity

// internal/domain/activity/entity.go
import (
	"time"

	"github.com/google/uuid"
)

type Kind string
type OfferStatus string

const (
	KindViewDetail       Kind = "view_detail"
	KindCashOffer        Kind = "beli_cash"
	KindCreditSimulation Kind = "simulasi_kredit"
	KindTestDriveBooking Kind = "booking_test_drive"

	// KindTestDrive is the history/analytics spelling of a test-drive booking.
	KindTestDrive Kind = "test_drive"

	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)

// RecordableKinds lists the kinds accepted by the activity recorder.
var RecordableKinds = []Kind{KindViewDetail, KindCashOffer, KindCreditSimulation, KindTestDriveBooking}

// Recordable reports whether k is one of the four recordable kinds.
func (k Kind) Recordable() bool {
	for _, rk := range RecordableKinds {
		if k == rk {
			return true
		}
	}
	return false
}

// Canonical folds the booking spelling into KindTestDrive so that both
// storage shapes compare equal.
func (k Kind) Canonical() Kind {
	if k == KindTestDriveBooking {
		return KindTestDrive
	}
	return k
}

func (k Kind) IsTestDrive() bool {
	return k == KindTestDrive || k == KindTestDriveBooking
}

// HighValue reports whether k signals purchase intent beyond browsing.
func (k Kind) HighValue() bool {
	return k == KindCreditSimulation || k == KindCashOffer || k.IsTestDrive()
}

func (s OfferStatus) Valid() bool {
	return s == OfferPending || s == OfferAccepted || s == OfferRejected
}

// Terminal is true for decided offers.
func (s OfferStatus) Terminal() bool {
	return s == OfferAccepted || s == OfferRejected
}

// Activity is an entry of the append-only activity log.
type Activity struct {
	ID         uuid.UUID `json:"id" db:"id"`
	CustomerID uuid.UUID `json:"customer_id" db:"customer_id"`
	VehicleID  uuid.UUID `json:"vehicle_id" db:"vehicle_id"`
	Kind       Kind      `json:"kind" db:"kind"`
	Detail     *Detail   `json:"additional_data,omitempty" db:"additional_data"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
