// internal/service/activity/recorder.go
package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"showroom-service/internal/domain/activity"
	"showroom-service/internal/domain/customer"
	"showroom-service/internal/domain/vehicle"
	wstypes "showroom-service/internal/domain/websocket"
	"showroom-service/internal/metrics"
	xerrors "showroom-service/internal/pkg/errors"
	"showroom-service/internal/pkg/phone"
	"showroom-service/internal/rules"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// CustomerStore is the part of the customer repository the recorder writes to.
type CustomerStore interface {
	FindByPhone(ctx context.Context, phone string) (*customer.Customer, error)
	Create(ctx context.Context, c *customer.Customer) error
	SaveInteraction(ctx context.Context, c *customer.Customer) error
}

type VehicleFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*vehicle.Vehicle, error)
}

// LeadNotifier receives every successfully recorded interaction.
type LeadNotifier interface {
	PublishLead(event wstypes.LeadEvent)
}

type Recorder struct {
	customers  CustomerStore
	vehicles   VehicleFinder
	activities activity.Repository
	notifier   LeadNotifier
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time

	maxDiscount float64
}

// NewRecorder builds the recorder. notifier and m may be nil.
func NewRecorder(
	customers CustomerStore,
	vehicles VehicleFinder,
	activities activity.Repository,
	notifier LeadNotifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Recorder {
	return &Recorder{
		customers:  customers,
		vehicles:   vehicles,
		activities: activities,
		notifier:   notifier,
		metrics:    m,
		logger:     logger,
		now:        time.Now,

		maxDiscount: rules.MaxCashDiscountPercent,
	}
}

// SetMaxCashDiscountPercent overrides the discount ceiling applied to
// recorded cash offers. Non-positive values are ignored.
func (r *Recorder) SetMaxCashDiscountPercent(percent float64) {
	if percent > 0 {
		r.maxDiscount = percent
	}
}

// Recorded carries what callers need after a successful Record.
type Recorded struct {
	Customer    *customer.Customer
	Activity    *activity.Activity
	NewCustomer bool
}

// Record upserts the customer keyed by canonical phone and appends the
// interaction to the activity log. Validation and missing vehicles return
// an error and no result; persistence failures return a failed result.
func (r *Recorder) Record(ctx context.Context, req *activity.RecordRequest) (*activity.RecordResult, error) {
	rec, err := r.record(ctx, req)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrInvalidInput) || xerrors.Is(err, xerrors.ErrNotFound) || xerrors.Is(err, xerrors.ErrConflict) {
			return nil, err
		}
		return &activity.RecordResult{Success: false, Error: "failed to record activity"}, err
	}
	return &activity.RecordResult{Success: true, CustomerID: rec.Customer.ID.String()}, nil
}

// RecordDetailed is Record for in-process callers that need the stored values.
func (r *Recorder) RecordDetailed(ctx context.Context, req *activity.RecordRequest) (*Recorded, error) {
	return r.record(ctx, req)
}

func (r *Recorder) record(ctx context.Context, req *activity.RecordRequest) (*Recorded, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, xerrors.Invalid("name is required")
	}

	canonical := phone.Format(req.Phone)
	if !phone.Valid(canonical) {
		return nil, xerrors.Invalid("invalid phone number %q", req.Phone)
	}

	if !req.Kind.Recordable() {
		return nil, xerrors.Invalid("unknown activity kind %q", req.Kind)
	}
	if err := req.Detail.Validate(req.Kind); err != nil {
		return nil, xerrors.Invalid("%s", err.Error())
	}

	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		return nil, xerrors.Invalid("invalid vehicle id %q", req.VehicleID)
	}

	v, err := r.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return nil, fmt.Errorf("vehicle %s: %w", vehicleID, xerrors.ErrNotFound)
		}
		r.logger.Error("failed to load vehicle", zap.String("vehicle_id", vehicleID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to load vehicle: %w", err)
	}

	detail := req.Detail
	if req.Kind == activity.KindCashOffer {
		if detail, err = r.priceCashOffer(v, req.Detail.CashOffer); err != nil {
			return nil, err
		}
	}

	now := r.now().UTC()
	entry := customer.HistoryEntry{
		ID:        ulid.Make().String(),
		VehicleID: vehicleID,
		Vehicle:   v.Snapshot(),
		Kind:      req.Kind,
		Detail:    detail,
		Timestamp: now,
	}

	c, created, err := r.upsertCustomer(ctx, name, canonical, entry)
	if err != nil {
		r.logger.Error("failed to save customer",
			zap.String("phone", canonical),
			zap.String("kind", string(req.Kind)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}

	a := &activity.Activity{
		CustomerID: c.ID,
		VehicleID:  vehicleID,
		Kind:       req.Kind,
		Detail:     detail,
		CreatedAt:  now,
	}
	if err := r.activities.Create(ctx, a); err != nil {
		r.logger.Error("failed to append activity",
			zap.String("customer_id", c.ID.String()),
			zap.String("kind", string(req.Kind)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to append activity: %w", err)
	}

	if r.metrics != nil {
		r.metrics.ActivitiesRecorded.WithLabelValues(string(req.Kind)).Inc()
	}

	if r.notifier != nil {
		r.notifier.PublishLead(wstypes.LeadEvent{
			CustomerID:   c.ID.String(),
			Name:         c.Name,
			Phone:        c.Phone,
			VehicleID:    vehicleID.String(),
			VehicleLabel: v.Label(),
			Kind:         string(req.Kind),
			Status:       string(c.Status),
			NewCustomer:  created,
			OccurredAt:   now,
		})
	}

	r.logger.Info("activity recorded",
		zap.String("customer_id", c.ID.String()),
		zap.String("vehicle_id", vehicleID.String()),
		zap.String("kind", string(req.Kind)),
		zap.String("status", string(c.Status)),
		zap.Bool("new_customer", created),
	)

	return &Recorded{Customer: c, Activity: a, NewCustomer: created}, nil
}

// priceCashOffer derives the offer terms from the vehicle price and applies
// the discount ceiling. Client-sent price, discount and status are ignored;
// a new offer is always pending.
func (r *Recorder) priceCashOffer(v *vehicle.Vehicle, in *activity.CashOfferDetail) (*activity.Detail, error) {
	if v.Status == vehicle.StatusSold {
		return nil, fmt.Errorf("vehicle %s already sold: %w", v.ID, xerrors.ErrConflict)
	}

	validation := rules.ValidateCashOfferWith(v.Price, in.OfferedPrice, r.maxDiscount)
	if !validation.Valid {
		if r.metrics != nil {
			r.metrics.CashOffers.WithLabelValues("rejected_rule").Inc()
		}
		return nil, xerrors.Invalid("%s", validation.Message)
	}

	offer := *in
	offer.OriginalPrice = v.Price
	offer.Discount = validation.Discount
	offer.DiscountPercent = validation.DiscountPercent
	offer.Status = activity.OfferPending
	return &activity.Detail{CashOffer: &offer}, nil
}

// upsertCustomer finds the customer by phone and applies entry, creating
// the customer on first contact. Losing a create race to a concurrent
// request falls back to updating the winner's row once.
func (r *Recorder) upsertCustomer(ctx context.Context, name, canonical string, entry customer.HistoryEntry) (*customer.Customer, bool, error) {
	c, err := r.customers.FindByPhone(ctx, canonical)
	switch {
	case err == nil:
		applyInteraction(c, name, entry)
		return c, false, r.customers.SaveInteraction(ctx, c)

	case !xerrors.Is(err, xerrors.ErrNotFound):
		return nil, false, err
	}

	c = &customer.Customer{
		Phone:     canonical,
		Status:    customer.InitialStatus,
		CreatedAt: entry.Timestamp,
	}
	applyInteraction(c, name, entry)

	err = r.customers.Create(ctx, c)
	if !errors.Is(err, xerrors.ErrDuplicateEntry) {
		return c, err == nil, err
	}

	r.logger.Warn("customer created concurrently, updating existing row", zap.String("phone", canonical))

	existing, err := r.customers.FindByPhone(ctx, canonical)
	if err != nil {
		return nil, false, err
	}
	applyInteraction(existing, name, entry)
	return existing, false, r.customers.SaveInteraction(ctx, existing)
}

func applyInteraction(c *customer.Customer, name string, entry customer.HistoryEntry) {
	c.Name = name
	c.LastActivity = entry.Timestamp
	c.InteractionCount++
	c.History = append(c.History, entry)
	c.Status = rules.Escalate(c.Status, entry.Kind)
	c.Summary = rules.Summarize(c.History)
}

// PatchCashOfferStatus decides a pending cash offer in the activity log.
func (r *Recorder) PatchCashOfferStatus(ctx context.Context, activityID uuid.UUID, status activity.OfferStatus) error {
	if !status.Terminal() {
		return xerrors.Invalid("status must be accepted or rejected")
	}

	a, err := r.activities.FindByID(ctx, activityID)
	if err != nil {
		return err
	}
	if a.Kind != activity.KindCashOffer {
		return xerrors.Invalid("activity %s is not a cash offer", activityID)
	}
	if current := a.Detail.OfferStatus(); current.Terminal() {
		return fmt.Errorf("cash offer already %s: %w", current, xerrors.ErrConflict)
	}

	if err := r.activities.PatchOfferStatus(ctx, activityID, status); err != nil {
		r.logger.Error("failed to patch offer status", zap.String("activity_id", activityID.String()), zap.Error(err))
		return fmt.Errorf("failed to patch offer status: %w", err)
	}

	r.logger.Info("cash offer status patched",
		zap.String("activity_id", activityID.String()),
		zap.String("status", string(status)),
	)
	return nil
}

// SettlePendingOffer patches the newest pending log offer of the customer
// behind phone on vehicleID. A missing entry is not an error: offers
// made before the log existed only live in the vehicle row.
func (r *Recorder) SettlePendingOffer(ctx context.Context, canonicalPhone string, vehicleID uuid.UUID, status activity.OfferStatus) (*customer.Customer, error) {
	c, err := r.customers.FindByPhone(ctx, canonicalPhone)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	a, err := r.activities.FindPendingOffer(ctx, c.ID, vehicleID)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	return c, r.PatchCashOfferStatus(ctx, a.ID, status)
}
