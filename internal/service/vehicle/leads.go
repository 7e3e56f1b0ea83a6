// internal/service/vehicle/leads.go
package vehicle

import (
	"context"
	"fmt"
	"sort"
	"time"

	"showroom-service/internal/domain/activity"
	"showroom-service/internal/domain/customer"
	"showroom-service/internal/domain/vehicle"
	wstypes "showroom-service/internal/domain/websocket"
	xerrors "showroom-service/internal/pkg/errors"
	"showroom-service/internal/rules"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// CashOfferResult pairs the stored offer with the rule outcome shown to the visitor.
type CashOfferResult struct {
	Offer      vehicle.CashOffer         `json:"offer"`
	Validation rules.CashOfferValidation `json:"validation"`
}

// loadForLead returns the vehicle when it can still take leads.
func (s *VehicleService) loadForLead(ctx context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status == vehicle.StatusSold {
		return nil, fmt.Errorf("vehicle %s already sold: %w", id, xerrors.ErrConflict)
	}
	return v, nil
}

func (s *VehicleService) record(ctx context.Context, contact vehicle.LeadContact, vehicleID uuid.UUID, kind activity.Kind, detail *activity.Detail) (*customer.Customer, error) {
	rec, err := s.recorder.RecordDetailed(ctx, &activity.RecordRequest{
		Name:      contact.Name,
		Phone:     contact.Phone,
		VehicleID: vehicleID.String(),
		Kind:      kind,
		Detail:    detail,
	})
	if err != nil {
		return nil, err
	}
	return rec.Customer, nil
}

// RecordView logs a catalog detail view for an identified visitor
func (s *VehicleService) RecordView(ctx context.Context, vehicleID uuid.UUID, req *vehicle.ViewRequest) (*customer.Customer, error) {
	return s.record(ctx, req.LeadContact, vehicleID, activity.KindViewDetail, nil)
}

// BookTestDrive reserves a test-drive slot. A vehicle takes one active
// booking per UTC calendar day.
func (s *VehicleService) BookTestDrive(ctx context.Context, vehicleID uuid.UUID, req *vehicle.BookTestDriveRequest) (*vehicle.TestDriveBooking, error) {
	now := s.now().UTC()
	scheduled := req.ScheduledAt.UTC()
	if !scheduled.After(now) {
		return nil, xerrors.Invalid("test drive must be scheduled in the future")
	}

	v, err := s.loadForLead(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	day := scheduled.Format("2006-01-02")
	for _, b := range s.activeBookings(v, now) {
		if b.ScheduledAt.UTC().Format("2006-01-02") == day {
			return nil, fmt.Errorf("vehicle already booked on %s: %w", day, xerrors.ErrConflict)
		}
	}

	c, err := s.record(ctx, req.LeadContact, vehicleID, activity.KindTestDriveBooking, &activity.Detail{
		TestDrive: &activity.TestDriveDetail{ScheduledAt: scheduled, Notes: req.Notes},
	})
	if err != nil {
		return nil, err
	}

	booking := vehicle.TestDriveBooking{
		ID:           ulid.Make().String(),
		CustomerName: c.Name,
		Phone:        c.Phone,
		ScheduledAt:  scheduled,
		Notes:        req.Notes,
		CreatedAt:    now,
	}
	if err := s.repo.AppendTestDriveBooking(ctx, vehicleID, booking); err != nil {
		s.logger.Error("failed to store test drive booking", zap.String("vehicle_id", vehicleID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to store test drive booking: %w", err)
	}

	s.logger.Info("test drive booked",
		zap.String("vehicle_id", vehicleID.String()),
		zap.String("booking_id", booking.ID),
		zap.Time("scheduled_at", scheduled),
	)
	return &booking, nil
}

// ActiveBookings lists the bookings of a vehicle that have not expired, soonest first
func (s *VehicleService) ActiveBookings(ctx context.Context, vehicleID uuid.UUID) ([]vehicle.TestDriveBooking, error) {
	v, err := s.repo.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	return s.activeBookings(v, s.now().UTC()), nil
}

func (s *VehicleService) activeBookings(v *vehicle.Vehicle, now time.Time) []vehicle.TestDriveBooking {
	cutoff := rules.ExpiredBookingCutoff(now)
	active := []vehicle.TestDriveBooking{}
	for _, b := range v.Interactions.TestDriveBookings {
		if b.ScheduledAt.After(cutoff) {
			active = append(active, b)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].ScheduledAt.Before(active[j].ScheduledAt)
	})
	return active
}

// ValidateCashOffer runs the discount rule without recording anything
func (s *VehicleService) ValidateCashOffer(req *vehicle.ValidateOfferRequest) rules.CashOfferValidation {
	return rules.ValidateCashOfferWith(req.VehiclePrice, req.OfferedPrice, s.maxDiscount())
}

// SubmitCashOffer stores a pending cash offer that passed the discount rule
func (s *VehicleService) SubmitCashOffer(ctx context.Context, vehicleID uuid.UUID, req *vehicle.CashOfferRequest) (*CashOfferResult, error) {
	v, err := s.loadForLead(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	validation := rules.ValidateCashOfferWith(v.Price, req.OfferedPrice, s.maxDiscount())
	if !validation.Valid {
		s.countOffer("rejected_rule")
		return nil, xerrors.Invalid("%s", validation.Message)
	}

	c, err := s.record(ctx, req.LeadContact, vehicleID, activity.KindCashOffer, &activity.Detail{
		CashOffer: &activity.CashOfferDetail{
			OfferedPrice:    req.OfferedPrice,
			OriginalPrice:   v.Price,
			Discount:        validation.Discount,
			DiscountPercent: validation.DiscountPercent,
			Status:          activity.OfferPending,
			Notes:           req.Notes,
		},
	})
	if err != nil {
		return nil, err
	}

	offer := vehicle.CashOffer{
		ID:              ulid.Make().String(),
		CustomerName:    c.Name,
		Phone:           c.Phone,
		OfferedPrice:    req.OfferedPrice,
		OriginalPrice:   v.Price,
		Discount:        validation.Discount,
		DiscountPercent: validation.DiscountPercent,
		Status:          activity.OfferPending,
		Notes:           req.Notes,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.AppendCashOffer(ctx, vehicleID, offer); err != nil {
		s.logger.Error("failed to store cash offer", zap.String("vehicle_id", vehicleID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to store cash offer: %w", err)
	}

	s.countOffer("submitted")
	s.logger.Info("cash offer submitted",
		zap.String("vehicle_id", vehicleID.String()),
		zap.String("offer_id", offer.ID),
		zap.Float64("offered_price", offer.OfferedPrice),
		zap.Float64("discount_percent", offer.DiscountPercent),
	)
	return &CashOfferResult{Offer: offer, Validation: validation}, nil
}

// SimulateCredit quotes a monthly installment. An advertised plan with the
// same tenor and the vehicle's own down payment is quoted as advertised.
func (s *VehicleService) SimulateCredit(ctx context.Context, vehicleID uuid.UUID, req *vehicle.CreditSimulationRequest) (*vehicle.CreditSimulationResult, error) {
	v, err := s.loadForLead(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	downPayment := req.DownPayment
	if downPayment == 0 {
		downPayment = v.DownPayment
	}
	if downPayment >= v.Price {
		return nil, xerrors.Invalid("down payment must be below the price")
	}

	installment := advertisedInstallment(v, downPayment, req.TenorMonths)
	if installment == 0 {
		installment = rules.FlatInstallment(v.Price, downPayment, req.TenorMonths, s.opts.CreditFlatRatePercent)
	}

	c, err := s.record(ctx, req.LeadContact, vehicleID, activity.KindCreditSimulation, &activity.Detail{
		CreditSimulation: &activity.CreditSimulationDetail{
			DownPayment:        downPayment,
			TenorMonths:        req.TenorMonths,
			MonthlyInstallment: installment,
		},
	})
	if err != nil {
		return nil, err
	}

	sim := vehicle.CreditSimulation{
		ID:                 ulid.Make().String(),
		CustomerName:       c.Name,
		Phone:              c.Phone,
		DownPayment:        downPayment,
		TenorMonths:        req.TenorMonths,
		MonthlyInstallment: installment,
		CreatedAt:          s.now().UTC(),
	}
	if err := s.repo.AppendCreditSimulation(ctx, vehicleID, sim); err != nil {
		s.logger.Error("failed to store credit simulation", zap.String("vehicle_id", vehicleID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to store credit simulation: %w", err)
	}

	return &vehicle.CreditSimulationResult{
		VehicleID:          vehicleID.String(),
		Price:              v.Price,
		DownPayment:        downPayment,
		Principal:          v.Price - downPayment,
		TenorMonths:        req.TenorMonths,
		MonthlyInstallment: installment,
	}, nil
}

func advertisedInstallment(v *vehicle.Vehicle, downPayment float64, tenor int) float64 {
	if downPayment != v.DownPayment {
		return 0
	}
	for _, plan := range []vehicle.Installment{v.InstallmentA, v.InstallmentB} {
		if plan.TenorMonths == tenor && plan.MonthlyPayment > 0 {
			return plan.MonthlyPayment
		}
	}
	return 0
}

// ========== Admin decisions ==========

// DecideCashOffer accepts or rejects a pending offer. Accepting sells the
// vehicle and marks the buyer as Purchased.
func (s *VehicleService) DecideCashOffer(ctx context.Context, vehicleID uuid.UUID, offerID string, status activity.OfferStatus) (*vehicle.CashOffer, error) {
	if !status.Terminal() {
		return nil, xerrors.Invalid("status must be accepted or rejected")
	}

	v, err := s.repo.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	offer, ok := v.Interactions.FindCashOffer(offerID)
	if !ok {
		return nil, fmt.Errorf("cash offer %s: %w", offerID, xerrors.ErrNotFound)
	}
	if offer.Status.Terminal() {
		return nil, fmt.Errorf("cash offer already %s: %w", offer.Status, xerrors.ErrConflict)
	}
	if status == activity.OfferAccepted && v.Status == vehicle.StatusSold {
		return nil, fmt.Errorf("vehicle %s already sold: %w", vehicleID, xerrors.ErrConflict)
	}

	decidedAt := s.now().UTC()
	if err := s.repo.UpdateCashOfferStatus(ctx, vehicleID, offerID, status, decidedAt); err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) || xerrors.Is(err, xerrors.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to decide cash offer", zap.String("offer_id", offerID), zap.Error(err))
		return nil, fmt.Errorf("failed to decide cash offer: %w", err)
	}
	offer.Status = status
	offer.DecidedAt = &decidedAt

	buyer, err := s.recorder.SettlePendingOffer(ctx, offer.Phone, vehicleID, status)
	if err != nil {
		s.logger.Error("failed to settle logged offer", zap.String("offer_id", offerID), zap.Error(err))
		return nil, fmt.Errorf("failed to settle logged offer: %w", err)
	}
	if status == activity.OfferAccepted && buyer != nil {
		if err := s.customers.UpdateStatus(ctx, buyer.ID, customer.StatusPurchased); err != nil {
			s.logger.Error("failed to mark customer purchased", zap.String("customer_id", buyer.ID.String()), zap.Error(err))
			return nil, fmt.Errorf("failed to mark customer purchased: %w", err)
		}
	}

	s.countOffer(string(status))
	if s.notifier != nil {
		s.notifier.PublishOfferDecision(wstypes.OfferDecisionEvent{
			VehicleID:    vehicleID.String(),
			VehicleLabel: v.Label(),
			OfferID:      offerID,
			Phone:        offer.Phone,
			OfferedPrice: offer.OfferedPrice,
			Status:       string(status),
			DecidedAt:    decidedAt,
		})
	}

	s.logger.Info("cash offer decided",
		zap.String("vehicle_id", vehicleID.String()),
		zap.String("offer_id", offerID),
		zap.String("status", string(status)),
	)
	return offer, nil
}

func (s *VehicleService) maxDiscount() float64 {
	if s.opts.MaxCashDiscountPercent > 0 {
		return s.opts.MaxCashDiscountPercent
	}
	return rules.MaxCashDiscountPercent
}

func (s *VehicleService) countOffer(result string) {
	if s.metrics != nil {
		s.metrics.CashOffers.WithLabelValues(result).Inc()
	}
}
