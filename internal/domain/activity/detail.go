package activity

import (
	"errors"
	"fmt"
	"time"
)

// Detail carries the kind-specific payload of an interaction. At most one
// field is set and it must match the interaction kind.
type Detail struct {
	CreditSimulation *CreditSimulationDetail `json:"credit_simulation,omitempty"`
	TestDrive        *TestDriveDetail        `json:"test_drive,omitempty"`
	CashOffer        *CashOfferDetail        `json:"cash_offer,omitempty"`
}

type CreditSimulationDetail struct {
	DownPayment        float64 `json:"down_payment"`
	TenorMonths        int     `json:"tenor_months"`
	MonthlyInstallment float64 `json:"monthly_installment"`
}

type TestDriveDetail struct {
	ScheduledAt time.Time `json:"scheduled_at"`
	Notes       string    `json:"notes,omitempty"`
}

type CashOfferDetail struct {
	OfferedPrice    float64     `json:"offered_price"`
	OriginalPrice   float64     `json:"original_price"`
	Discount        float64     `json:"discount"`
	DiscountPercent float64     `json:"discount_percent"`
	Status          OfferStatus `json:"status"`
	Notes           string      `json:"notes,omitempty"`
}

var errPayloadMismatch = errors.New("detail payload does not match activity kind")

// Validate checks the payload against the kind it was recorded with.
// A nil detail is accepted for every kind except cash offers.
func (d *Detail) Validate(kind Kind) error {
	if kind == KindCashOffer && (d == nil || d.CashOffer == nil) {
		return errors.New("cash offer detail is required")
	}
	if d == nil {
		return nil
	}

	switch kind.Canonical() {
	case KindViewDetail:
		if d.CreditSimulation != nil || d.TestDrive != nil || d.CashOffer != nil {
			return errPayloadMismatch
		}
	case KindCreditSimulation:
		if d.TestDrive != nil || d.CashOffer != nil {
			return errPayloadMismatch
		}
		if cs := d.CreditSimulation; cs != nil {
			if cs.DownPayment < 0 || cs.MonthlyInstallment < 0 || cs.TenorMonths < 0 {
				return errors.New("credit simulation amounts must not be negative")
			}
		}
	case KindTestDrive:
		if d.CreditSimulation != nil || d.CashOffer != nil {
			return errPayloadMismatch
		}
	case KindCashOffer:
		if d.CreditSimulation != nil || d.TestDrive != nil {
			return errPayloadMismatch
		}
		if d.CashOffer.OfferedPrice <= 0 {
			return errors.New("offered price must be positive")
		}
		if d.CashOffer.Status != "" && !d.CashOffer.Status.Valid() {
			return fmt.Errorf("unknown cash offer status %q", d.CashOffer.Status)
		}
	default:
		return fmt.Errorf("unknown activity kind %q", kind)
	}
	return nil
}

// OfferStatus returns the cash offer status or "" when the detail has none.
func (d *Detail) OfferStatus() OfferStatus {
	if d == nil || d.CashOffer == nil {
		return ""
	}
	return d.CashOffer.Status
}
