package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"unifeed/internal/controllers"
	"unifeed/internal/structures"
	"unifeed/internal/testutil"

	"github.com/stretchr/testify/assert"
)

type zeroSessions struct{}

func (zeroSessions) Len() int { return 0 }

func TestNewHandler_Health(t *testing.T) {
	conf := &structures.Config{}
	h := NewHandler(controllers.NewHealthController(zeroSessions{}), conf, &testutil.MockLogger{},
		InitRoutes(newTestController(conf), conf), testutil.NewMockMetrics())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code, "metrics endpoint is off unless enabled")
}

func TestNewHandler_RoutesThroughMiddleware(t *testing.T) {
	conf := &structures.Config{}
	logger := &testutil.MockLogger{}
	h := NewHandler(controllers.NewHealthController(zeroSessions{}), conf, logger,
		InitRoutes(newTestController(conf), conf), testutil.NewMockMetrics())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/timeline", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
