package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"showroom-service/internal/metrics"
	"showroom-service/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator map[string]*jwt.Claims

func (s stubValidator) ValidateToken(_ context.Context, token string) (*jwt.Claims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("unknown token")
}

type stubShared struct {
	err   error
	calls int
}

func (s *stubShared) CheckAPIRateLimit(context.Context, string, string, int64, time.Duration) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.calls <= 2, nil
}

func do(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminOnly(t *testing.T) {
	m := NewAuthMiddleware(stubValidator{
		"admin":  {Roles: []string{jwt.RoleAdmin}},
		"viewer": {Roles: []string{"viewer"}},
	})
	r := gin.New()
	r.GET("/admin", append(m.AdminOnly(), func(c *gin.Context) {
		c.String(http.StatusOK, MustGetClaims(c).Roles[0])
	})...)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin", "forged").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", "viewer").Code)

	w := do(r, http.MethodGet, "/admin", "admin")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, jwt.RoleAdmin, w.Body.String())

	// websocket clients pass the token as a query parameter
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/admin?token=admin", "").Code)
}

func TestLeadRateLimiterUsesSharedCounter(t *testing.T) {
	shared := &stubShared{}
	r := gin.New()
	r.POST("/leads", NewLeadRateLimiter(shared, 30, zap.NewNop()).Handler(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/leads", "").Code)
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/leads", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/leads", "").Code)
}

func TestLeadRateLimiterFallsBackToLocalBucket(t *testing.T) {
	r := gin.New()
	limiter := NewLeadRateLimiter(&stubShared{err: errors.New("redis down")}, 2, zap.NewNop())
	r.POST("/leads", limiter.Handler(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/leads", "").Code)
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/leads", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/leads", "").Code)
}

func TestRecoveryAndMetrics(t *testing.T) {
	m := metrics.New("test")
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.Collectors()...)

	r := gin.New()
	r.Use(MetricsMiddleware(m), RecoveryMiddleware(zap.NewNop()))
	r.GET("/boom/:id", func(*gin.Context) { panic("boom") })

	w := do(r, http.MethodGet, "/boom/7", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() != "test_http_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["route"] == "/boom/:id" && labels["status"] == "500" {
				found = true
				assert.Equal(t, 1.0, metric.GetCounter().GetValue())
			}
		}
	}
	assert.True(t, found)
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://showroom.test"}))
	r.POST("/api", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api", nil)
	req.Header.Set("Origin", "https://showroom.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://showroom.test", w.Header().Get("Access-Control-Allow-Origin"))
}
