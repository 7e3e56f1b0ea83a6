// internal/handlers/activity/activity.go
package activity

import (
	"context"
	"net/http"

	"showroom-service/internal/domain/activity"
	"showroom-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Recorder is implemented by the activity recorder service.
type Recorder interface {
	Record(ctx context.Context, req *activity.RecordRequest) (*activity.RecordResult, error)
	PatchCashOfferStatus(ctx context.Context, activityID uuid.UUID, status activity.OfferStatus) error
}

type ActivityHandler struct {
	recorder Recorder
}

func NewActivityHandler(recorder Recorder) *ActivityHandler {
	return &ActivityHandler{recorder: recorder}
}

// Record stores one storefront interaction (public, rate limited)
func (h *ActivityHandler) Record(c *gin.Context) {
	var req activity.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.recorder.Record(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to record activity", err)
		return
	}

	response.Success(c, http.StatusCreated, "activity recorded", result)
}

// PatchOfferStatus settles a logged cash offer (admin)
func (h *ActivityHandler) PatchOfferStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid activity ID", err)
		return
	}

	var req activity.PatchOfferStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	if err := h.recorder.PatchCashOfferStatus(c.Request.Context(), id, req.Status); err != nil {
		response.FromError(c, "failed to update offer status", err)
		return
	}

	response.Success(c, http.StatusOK, "offer status updated", gin.H{"id": id, "status": req.Status})
}
