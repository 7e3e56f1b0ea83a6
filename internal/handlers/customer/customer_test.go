package customer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"showroom-service/internal/domain/customer"
	xerrors "showroom-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type stubService struct {
	Service
	limit  int
	status customer.Status
}

func (s *stubService) FollowUpQueue(_ context.Context, limit int) ([]*customer.Profile, error) {
	s.limit = limit
	return []*customer.Profile{}, nil
}

func (s *stubService) UpdateStatus(_ context.Context, _ uuid.UUID, status customer.Status) error {
	if !status.Valid() {
		return xerrors.Invalid("unknown status %q", status)
	}
	s.status = status
	return nil
}

func newRouter(s *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCustomerHandler(s)
	r := gin.New()
	r.GET("/customers/follow-ups", h.FollowUps)
	r.PUT("/customers/:id/status", h.UpdateStatus)
	return r
}

func TestFollowUpsLimit(t *testing.T) {
	s := &stubService{}
	r := newRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/customers/follow-ups?limit=5", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, s.limit)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/customers/follow-ups", nil))
	assert.Equal(t, 20, s.limit)
}

func TestUpdateStatus(t *testing.T) {
	s := &stubService{}
	r := newRouter(s)
	put := func(path, body string) int {
		req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	id := uuid.NewString()
	assert.Equal(t, http.StatusOK, put("/customers/"+id+"/status", `{"status":"Hot Lead"}`))
	assert.Equal(t, customer.StatusHotLead, s.status)
	assert.Equal(t, http.StatusBadRequest, put("/customers/"+id+"/status", `{"status":"Cold"}`))
	assert.Equal(t, http.StatusBadRequest, put("/customers/x/status", `{"status":"Hot Lead"}`))
}
