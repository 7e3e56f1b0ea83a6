// internal/service/vehicle/vehicle.go
package vehicle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"showroom-service/internal/domain/activity"
	"showroom-service/internal/domain/customer"
	"showroom-service/internal/domain/vehicle"
	wstypes "showroom-service/internal/domain/websocket"
	"showroom-service/internal/metrics"
	xerrors "showroom-service/internal/pkg/errors"
	activitysvc "showroom-service/internal/service/activity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LeadRecorder is the activity recorder as seen by the storefront flows.
type LeadRecorder interface {
	RecordDetailed(ctx context.Context, req *activity.RecordRequest) (*activitysvc.Recorded, error)
	SettlePendingOffer(ctx context.Context, phone string, vehicleID uuid.UUID, status activity.OfferStatus) (*customer.Customer, error)
}

type CustomerStatusUpdater interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status customer.Status) error
}

type OfferNotifier interface {
	PublishOfferDecision(event wstypes.OfferDecisionEvent)
}

// Options carries the configurable business constants.
type Options struct {
	MaxCashDiscountPercent float64
	CreditFlatRatePercent  float64
}

type VehicleService struct {
	repo      vehicle.Repository
	recorder  LeadRecorder
	customers CustomerStatusUpdater
	notifier  OfferNotifier
	metrics   *metrics.Metrics
	opts      Options
	logger    *zap.Logger
	now       func() time.Time
}

func NewVehicleService(
	repo vehicle.Repository,
	recorder LeadRecorder,
	customers CustomerStatusUpdater,
	notifier OfferNotifier,
	m *metrics.Metrics,
	opts Options,
	logger *zap.Logger,
) *VehicleService {
	return &VehicleService{
		repo:      repo,
		recorder:  recorder,
		customers: customers,
		notifier:  notifier,
		metrics:   m,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// ========== Inventory ==========

// CreateVehicle adds a unit to inventory as available
func (s *VehicleService) CreateVehicle(ctx context.Context, req *vehicle.CreateVehicleRequest) (*vehicle.Vehicle, error) {
	plate := normalizePlate(req.PlateNumber)
	if plate == "" {
		return nil, xerrors.Invalid("plate number is required")
	}
	if req.DownPayment >= req.Price {
		return nil, xerrors.Invalid("down payment must be below the price")
	}

	exists, err := s.repo.ExistsByPlateNumber(ctx, plate)
	if err != nil {
		return nil, fmt.Errorf("failed to check plate number: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("plate number %s already registered: %w", plate, xerrors.ErrConflict)
	}

	v := &vehicle.Vehicle{
		Make:          strings.TrimSpace(req.Make),
		Model:         strings.TrimSpace(req.Model),
		Year:          req.Year,
		Color:         req.Color,
		Mileage:       req.Mileage,
		PlateNumber:   plate,
		ChassisNumber: req.ChassisNumber,
		EngineNumber:  req.EngineNumber,
		BPKBNumber:    req.BPKBNumber,
		Price:         req.Price,
		DownPayment:   req.DownPayment,
		InstallmentA:  req.InstallmentA,
		InstallmentB:  req.InstallmentB,
		Status:        vehicle.StatusAvailable,
		Photos:        req.Photos,
		Description:   req.Description,
	}

	if err := s.repo.Create(ctx, v); err != nil {
		if xerrors.Is(err, xerrors.ErrDuplicateEntry) {
			return nil, fmt.Errorf("plate number %s already registered: %w", plate, xerrors.ErrConflict)
		}
		s.logger.Error("failed to create vehicle", zap.String("plate", plate), zap.Error(err))
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	s.logger.Info("vehicle created",
		zap.String("vehicle_id", v.ID.String()),
		zap.String("label", v.Label()),
	)
	return v, nil
}

// GetVehicle returns the full admin view of a vehicle
func (s *VehicleService) GetVehicle(ctx context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateVehicle applies the non-nil fields of req
func (s *VehicleService) UpdateVehicle(ctx context.Context, id uuid.UUID, req *vehicle.UpdateVehicleRequest) (*vehicle.Vehicle, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.PlateNumber != nil {
		plate := normalizePlate(*req.PlateNumber)
		if plate == "" {
			return nil, xerrors.Invalid("plate number must not be empty")
		}
		if plate != v.PlateNumber {
			exists, err := s.repo.ExistsByPlateNumber(ctx, plate)
			if err != nil {
				return nil, fmt.Errorf("failed to check plate number: %w", err)
			}
			if exists {
				return nil, fmt.Errorf("plate number %s already registered: %w", plate, xerrors.ErrConflict)
			}
		}
		v.PlateNumber = plate
	}
	if req.Make != nil {
		v.Make = strings.TrimSpace(*req.Make)
	}
	if req.Model != nil {
		v.Model = strings.TrimSpace(*req.Model)
	}
	if req.Year != nil {
		v.Year = *req.Year
	}
	if req.Color != nil {
		v.Color = *req.Color
	}
	if req.Mileage != nil {
		v.Mileage = *req.Mileage
	}
	if req.ChassisNumber != nil {
		v.ChassisNumber = *req.ChassisNumber
	}
	if req.EngineNumber != nil {
		v.EngineNumber = *req.EngineNumber
	}
	if req.BPKBNumber != nil {
		v.BPKBNumber = *req.BPKBNumber
	}
	if req.Price != nil {
		v.Price = *req.Price
	}
	if req.DownPayment != nil {
		v.DownPayment = *req.DownPayment
	}
	if req.InstallmentA != nil {
		v.InstallmentA = *req.InstallmentA
	}
	if req.InstallmentB != nil {
		v.InstallmentB = *req.InstallmentB
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, xerrors.Invalid("unknown vehicle status %q", *req.Status)
		}
		v.Status = *req.Status
	}
	if req.Photos != nil {
		v.Photos = req.Photos
	}
	if req.Description != nil {
		v.Description = *req.Description
	}

	if v.DownPayment >= v.Price {
		return nil, xerrors.Invalid("down payment must be below the price")
	}

	if err := s.repo.Update(ctx, v); err != nil {
		if xerrors.Is(err, xerrors.ErrDuplicateEntry) {
			return nil, fmt.Errorf("plate number %s already registered: %w", v.PlateNumber, xerrors.ErrConflict)
		}
		s.logger.Error("failed to update vehicle", zap.String("vehicle_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}

	s.logger.Info("vehicle updated", zap.String("vehicle_id", id.String()))
	return v, nil
}

// ListVehicles retrieves inventory with filters
func (s *VehicleService) ListVehicles(ctx context.Context, filters *vehicle.ListFilters) (*vehicle.ListResponse, error) {
	normalizePage(filters)

	vehicles, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}

	return &vehicle.ListResponse{
		Vehicles:   vehicles,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages(total, filters.PageSize),
	}, nil
}

// MarkSold flips a vehicle to terjual
func (s *VehicleService) MarkSold(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.UpdateStatus(ctx, id, vehicle.StatusSold); err != nil {
		return err
	}
	s.logger.Info("vehicle marked sold", zap.String("vehicle_id", id.String()))
	return nil
}

// ========== Public catalog ==========

// ListAvailable is the storefront listing: available units only, public fields only
func (s *VehicleService) ListAvailable(ctx context.Context, filters *vehicle.ListFilters) (*vehicle.CatalogResponse, error) {
	filters.Status = vehicle.StatusAvailable
	normalizePage(filters)

	vehicles, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}

	public := make([]vehicle.PublicVehicle, 0, len(vehicles))
	for i := range vehicles {
		public = append(public, vehicles[i].Public())
	}

	return &vehicle.CatalogResponse{
		Vehicles:   public,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages(total, filters.PageSize),
	}, nil
}

func (s *VehicleService) GetPublic(ctx context.Context, id uuid.UUID) (*vehicle.PublicVehicle, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := v.Public()
	return &p, nil
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), " "))
}

func normalizePage(filters *vehicle.ListFilters) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}
}

func totalPages(total int64, pageSize int) int {
	pages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		pages++
	}
	return pages
}
