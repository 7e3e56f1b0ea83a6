package activity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"showroom-service/internal/domain/activity"
	xerrors "showroom-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type stubRecorder struct {
	err     error
	patched map[uuid.UUID]activity.OfferStatus
}

func (s *stubRecorder) Record(_ context.Context, req *activity.RecordRequest) (*activity.RecordResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &activity.RecordResult{Success: true, CustomerID: "c-1"}, nil
}

func (s *stubRecorder) PatchCashOfferStatus(_ context.Context, id uuid.UUID, status activity.OfferStatus) error {
	if s.err != nil {
		return s.err
	}
	s.patched[id] = status
	return nil
}

func router(rec *stubRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewActivityHandler(rec)
	r := gin.New()
	r.POST("/activities", h.Record)
	r.PATCH("/activities/:id/offer-status", h.PatchOfferStatus)
	return r
}

func send(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecord(t *testing.T) {
	body := `{"name":"Budi","phone":"0812-3456-7890","vehicle_id":"` + uuid.NewString() + `","kind":"view_detail"}`

	w := send(router(&stubRecorder{}), http.MethodPost, "/activities", body)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"customer_id":"c-1"`)

	w = send(router(&stubRecorder{}), http.MethodPost, "/activities", `{"name":"Budi"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(router(&stubRecorder{err: xerrors.Invalid("phone is not a valid Indonesian number")}), http.MethodPost, "/activities", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "phone is not a valid Indonesian number")

	w = send(router(&stubRecorder{err: xerrors.ErrNotFound}), http.MethodPost, "/activities", body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatchOfferStatus(t *testing.T) {
	rec := &stubRecorder{patched: map[uuid.UUID]activity.OfferStatus{}}
	id := uuid.New()

	w := send(router(rec), http.MethodPatch, "/activities/"+id.String()+"/offer-status", `{"status":"accepted"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, activity.OfferAccepted, rec.patched[id])

	w = send(router(rec), http.MethodPatch, "/activities/"+id.String()+"/offer-status", `{"status":"pending"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(router(rec), http.MethodPatch, "/activities/nope/offer-status", `{"status":"accepted"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	rec.err = xerrors.ErrConflict
	w = send(router(rec), http.MethodPatch, "/activities/"+id.String()+"/offer-status", `{"status":"rejected"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}
