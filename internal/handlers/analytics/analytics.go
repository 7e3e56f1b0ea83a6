// internal/handlers/analytics/analytics.go
package analytics

import (
	"context"
	"net/http"

	"showroom-service/internal/domain/analytics"
	"showroom-service/internal/pkg/phone"
	"showroom-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Reports is implemented by service/analytics.AnalyticsService.
type Reports interface {
	UnifiedInteractions(ctx context.Context, filter analytics.InteractionFilter) []analytics.Interaction
	Funnel(ctx context.Context, window analytics.Window) (*analytics.FunnelReport, error)
	VehiclePerformance(ctx context.Context, window analytics.Window) ([]analytics.VehiclePerformance, error)
	CustomerJourney(ctx context.Context) (*analytics.JourneyReport, error)
	Refresh(ctx context.Context) error
}

// Projector is implemented by service/revenue.RevenueService.
type Projector interface {
	Project(ctx context.Context, query *analytics.ProjectionQuery) ([]analytics.RevenuePoint, error)
	Pipeline(ctx context.Context) *analytics.Pipeline
}

type AnalyticsHandler struct {
	reports Reports
	revenue Projector
}

func NewAnalyticsHandler(reports Reports, revenue Projector) *AnalyticsHandler {
	return &AnalyticsHandler{reports: reports, revenue: revenue}
}

func bindWindow(c *gin.Context) (analytics.Window, bool) {
	var window analytics.Window
	if err := c.ShouldBindQuery(&window); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return window, false
	}
	if window.Month != 0 && window.Year == 0 {
		response.Error(c, http.StatusBadRequest, "month requires year", nil)
		return window, false
	}
	return window, true
}

// Funnel returns the conversion funnel for a year or month
func (h *AnalyticsHandler) Funnel(c *gin.Context) {
	window, ok := bindWindow(c)
	if !ok {
		return
	}

	result, err := h.reports.Funnel(c.Request.Context(), window)
	if err != nil {
		response.FromError(c, "failed to build funnel", err)
		return
	}

	response.Success(c, http.StatusOK, "funnel retrieved", result)
}

// Refresh drops cached reports
func (h *AnalyticsHandler) Refresh(c *gin.Context) {
	if err := h.reports.Refresh(c.Request.Context()); err != nil {
		response.FromError(c, "failed to refresh analytics", err)
		return
	}

	response.Success(c, http.StatusOK, "analytics cache cleared", nil)
}

// Vehicles ranks vehicles by weighted engagement
func (h *AnalyticsHandler) Vehicles(c *gin.Context) {
	window, ok := bindWindow(c)
	if !ok {
		return
	}

	result, err := h.reports.VehiclePerformance(c.Request.Context(), window)
	if err != nil {
		response.FromError(c, "failed to build vehicle performance", err)
		return
	}

	response.Success(c, http.StatusOK, "vehicle performance retrieved", result)
}

// Journey summarises customer status and priority distributions
func (h *AnalyticsHandler) Journey(c *gin.Context) {
	result, err := h.reports.CustomerJourney(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to build customer journey", err)
		return
	}

	response.Success(c, http.StatusOK, "customer journey retrieved", result)
}

// Interactions lists the deduplicated interaction stream, optionally for one phone
func (h *AnalyticsHandler) Interactions(c *gin.Context) {
	window, ok := bindWindow(c)
	if !ok {
		return
	}

	filter := analytics.InteractionFilter{Window: window}
	if raw := c.Query("phone"); raw != "" {
		filter.Phone = phone.Format(raw)
	}

	response.Success(c, http.StatusOK, "interactions retrieved", h.reports.UnifiedInteractions(c.Request.Context(), filter))
}

// Revenue returns monthly or quarterly revenue for a year
func (h *AnalyticsHandler) Revenue(c *gin.Context) {
	var query analytics.ProjectionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.revenue.Project(c.Request.Context(), &query)
	if err != nil {
		response.FromError(c, "failed to project revenue", err)
		return
	}

	response.Success(c, http.StatusOK, "revenue projection retrieved", result)
}

// Pipeline reports pending offers and the hot-lead estimate
func (h *AnalyticsHandler) Pipeline(c *gin.Context) {
	response.Success(c, http.StatusOK, "pipeline retrieved", h.revenue.Pipeline(c.Request.Context()))
}
