package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/djassa/djassa-backend/pkg/config"
)

func testRouter() http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.Payment.Mode = config.PaymentModeSimulation
	return NewRouter(cfg, nil, nil, nil, nil, nil, nil, nil)
}

func TestRouterHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	testRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRouterExposesMetrics(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	testRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterRejectsUnidentifiedRequests(t *testing.T) {
	for _, path := range []string{
		"/api/v1/orders",
		"/api/v1/payments",
		"/api/v1/products/" + uuid.NewString() + "/buybox",
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		testRouter().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouterWebhookBypassesActorMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments/orange_money", nil)
	testRouter().ServeHTTP(rec, req)

	// No identity headers and still not a 401: the route is open, the
	// nil service guard answers instead.
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
