// internal/handlers/customer/customer.go
package customer

import (
	"context"
	"net/http"
	"strconv"

	"showroom-service/internal/domain/analytics"
	"showroom-service/internal/domain/customer"
	"showroom-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Service is implemented by service/customer.CustomerService.
type Service interface {
	ListCustomers(ctx context.Context, filters *customer.ListFilters) (*customer.ListResponse, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*customer.Profile, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status customer.Status) error
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error
	FollowUpQueue(ctx context.Context, limit int) ([]*customer.Profile, error)
	Interactions(ctx context.Context, id uuid.UUID, window analytics.Window) ([]analytics.Interaction, error)
	Stats(ctx context.Context) (*customer.Stats, error)
}

type CustomerHandler struct {
	customerService Service
}

func NewCustomerHandler(customerService Service) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

func customerID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid customer ID", err)
		return uuid.Nil, false
	}
	return id, true
}

// ListCustomers lists customers with filters
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	var filters customer.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.customerService.ListCustomers(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list customers", err)
		return
	}

	response.Success(c, http.StatusOK, "customers retrieved", result)
}

// GetCustomer retrieves a customer with engagement score and priority
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	result, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "customer not found", err)
		return
	}

	response.Success(c, http.StatusOK, "customer retrieved", result)
}

// UpdateStatus sets a customer's status manually
func (h *CustomerHandler) UpdateStatus(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	var req customer.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	if err := h.customerService.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		response.FromError(c, "failed to update customer status", err)
		return
	}

	response.Success(c, http.StatusOK, "customer status updated", gin.H{"id": id, "status": req.Status})
}

// UpdateNotes replaces the sales notes on a customer
func (h *CustomerHandler) UpdateNotes(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	var req customer.UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	if err := h.customerService.UpdateNotes(c.Request.Context(), id, req.Notes); err != nil {
		response.FromError(c, "failed to update customer notes", err)
		return
	}

	response.Success(c, http.StatusOK, "customer notes updated", nil)
}

// FollowUps returns the prioritised follow-up queue
func (h *CustomerHandler) FollowUps(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.customerService.FollowUpQueue(c.Request.Context(), limit)
	if err != nil {
		response.FromError(c, "failed to build follow-up queue", err)
		return
	}

	response.Success(c, http.StatusOK, "follow-up queue retrieved", result)
}

// Interactions returns the unified interaction history of a customer
func (h *CustomerHandler) Interactions(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	var window analytics.Window
	if err := c.ShouldBindQuery(&window); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.customerService.Interactions(c.Request.Context(), id, window)
	if err != nil {
		response.FromError(c, "failed to load interactions", err)
		return
	}

	response.Success(c, http.StatusOK, "interactions retrieved", result)
}

// GetStats returns customer statistics
func (h *CustomerHandler) GetStats(c *gin.Context) {
	result, err := h.customerService.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to get customer stats", err)
		return
	}

	response.Success(c, http.StatusOK, "customer statistics", result)
}
