// internal/handlers/vehicle/vehicle.go
package vehicle

import (
	"context"
	"net/http"

	"showroom-service/internal/domain/activity"
	"showroom-service/internal/domain/customer"
	"showroom-service/internal/domain/vehicle"
	"showroom-service/internal/pkg/response"
	"showroom-service/internal/rules"
	service "showroom-service/internal/service/vehicle"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Service is implemented by service/vehicle.VehicleService.
type Service interface {
	CreateVehicle(ctx context.Context, req *vehicle.CreateVehicleRequest) (*vehicle.Vehicle, error)
	GetVehicle(ctx context.Context, id uuid.UUID) (*vehicle.Vehicle, error)
	UpdateVehicle(ctx context.Context, id uuid.UUID, req *vehicle.UpdateVehicleRequest) (*vehicle.Vehicle, error)
	ListVehicles(ctx context.Context, filters *vehicle.ListFilters) (*vehicle.ListResponse, error)
	MarkSold(ctx context.Context, id uuid.UUID) error
	ListAvailable(ctx context.Context, filters *vehicle.ListFilters) (*vehicle.CatalogResponse, error)
	GetPublic(ctx context.Context, id uuid.UUID) (*vehicle.PublicVehicle, error)

	RecordView(ctx context.Context, vehicleID uuid.UUID, req *vehicle.ViewRequest) (*customer.Customer, error)
	BookTestDrive(ctx context.Context, vehicleID uuid.UUID, req *vehicle.BookTestDriveRequest) (*vehicle.TestDriveBooking, error)
	ActiveBookings(ctx context.Context, vehicleID uuid.UUID) ([]vehicle.TestDriveBooking, error)
	ValidateCashOffer(req *vehicle.ValidateOfferRequest) rules.CashOfferValidation
	SubmitCashOffer(ctx context.Context, vehicleID uuid.UUID, req *vehicle.CashOfferRequest) (*service.CashOfferResult, error)
	SimulateCredit(ctx context.Context, vehicleID uuid.UUID, req *vehicle.CreditSimulationRequest) (*vehicle.CreditSimulationResult, error)
	DecideCashOffer(ctx context.Context, vehicleID uuid.UUID, offerID string, status activity.OfferStatus) (*vehicle.CashOffer, error)
}

type VehicleHandler struct {
	vehicles Service
}

func NewVehicleHandler(vehicles Service) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles}
}

func vehicleID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid vehicle ID", err)
		return uuid.Nil, false
	}
	return id, true
}

// ========== Storefront Endpoints ==========

// ListCatalog lists vehicles that are still for sale
func (h *VehicleHandler) ListCatalog(c *gin.Context) {
	var filters vehicle.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.vehicles.ListAvailable(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list vehicles", err)
		return
	}

	response.Success(c, http.StatusOK, "vehicles retrieved", result)
}

// GetCatalogVehicle returns the public view of a vehicle
func (h *VehicleHandler) GetCatalogVehicle(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	result, err := h.vehicles.GetPublic(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "vehicle not found", err)
		return
	}

	response.Success(c, http.StatusOK, "vehicle retrieved", result)
}

// RecordView logs a detail view by an identified visitor
func (h *VehicleHandler) RecordView(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	var req vehicle.ViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	if _, err := h.vehicles.RecordView(c.Request.Context(), id, &req); err != nil {
		response.FromError(c, "failed to record view", err)
		return
	}

	response.Success(c, http.StatusCreated, "view recorded", nil)
}

// BookTestDrive schedules a test drive
func (h *VehicleHandler) BookTestDrive(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	var req vehicle.BookTestDriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	booking, err := h.vehicles.BookTestDrive(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, "failed to book test drive", err)
		return
	}

	response.Success(c, http.StatusCreated, "test drive booked", booking)
}

// SubmitCashOffer records a cash offer once it passes the discount rule
func (h *VehicleHandler) SubmitCashOffer(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	var req vehicle.CashOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.vehicles.SubmitCashOffer(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, "cash offer not accepted", err)
		return
	}

	response.Success(c, http.StatusCreated, "cash offer submitted", result)
}

// SimulateCredit computes a monthly installment and records the simulation
func (h *VehicleHandler) SimulateCredit(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	var req vehicle.CreditSimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.vehicles.SimulateCredit(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, "failed to simulate credit", err)
		return
	}

	response.Success(c, http.StatusOK, "credit simulated", result)
}

// ValidateCashOffer checks an offer without recording anything
func (h *VehicleHandler) ValidateCashOffer(c *gin.Context) {
	var req vehicle.ValidateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	response.Success(c, http.StatusOK, "offer validated", h.vehicles.ValidateCashOffer(&req))
}

// ========== Admin Endpoints ==========

func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var req vehicle.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.vehicles.CreateVehicle(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create vehicle", err)
		return
	}

	response.Success(c, http.StatusCreated, "vehicle created successfully", result)
}

func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	result, err := h.vehicles.GetVehicle(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "vehicle not found", err)
		return
	}

	response.Success(c, http.StatusOK, "vehicle retrieved", result)
}

func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	var req vehicle.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.vehicles.UpdateVehicle(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, "failed to update vehicle", err)
		return
	}

	response.Success(c, http.StatusOK, "vehicle updated successfully", result)
}

func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	var filters vehicle.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.vehicles.ListVehicles(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list vehicles", err)
		return
	}

	response.Success(c, http.StatusOK, "vehicles retrieved", result)
}

func (h *VehicleHandler) MarkSold(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	if err := h.vehicles.MarkSold(c.Request.Context(), id); err != nil {
		response.FromError(c, "failed to mark vehicle sold", err)
		return
	}

	response.Success(c, http.StatusOK, "vehicle marked as sold", nil)
}

func (h *VehicleHandler) ListBookings(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	result, err := h.vehicles.ActiveBookings(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "failed to list bookings", err)
		return
	}

	response.Success(c, http.StatusOK, "bookings retrieved", result)
}

// DecideCashOffer accepts or rejects a pending cash offer
func (h *VehicleHandler) DecideCashOffer(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	var req vehicle.DecideOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.vehicles.DecideCashOffer(c.Request.Context(), id, c.Param("offer_id"), req.Status)
	if err != nil {
		response.FromError(c, "failed to decide cash offer", err)
		return
	}

	response.Success(c, http.StatusOK, "cash offer "+string(req.Status), result)
}
