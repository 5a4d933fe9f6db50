package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"unifeed/internal/changefeed"
	"unifeed/internal/controllers"
	"unifeed/internal/services"
	"unifeed/internal/sources"
	"unifeed/internal/structures"
	"unifeed/internal/testutil"
	"unifeed/internal/timeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(conf *structures.Config) *controllers.ApiController {
	backend := testutil.NewMockBackend()
	logger := &testutil.MockLogger{}
	metrics := testutil.NewMockMetrics()
	aggregator := timeline.NewAggregator(conf, sources.NewAdapters(backend), backend, metrics, logger)
	manager := services.NewSessionManager(conf, services.NewSessionRegistry(), aggregator, backend,
		testutil.NewMockKVStore(), &testutil.MockNotifier{}, changefeed.NoopSubscriber{}, metrics, logger)
	return controllers.NewApiController(logger, manager)
}

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	conf := &structures.Config{ChangeFeed: structures.ChangeFeedConfig{Transport: "none"}}
	router := InitRoutes(newTestController(conf), conf)

	mux := http.NewServeMux()
	for _, r := range router.GetRoutes() {
		mux.Handle(r.Url, r.Handler)
	}
	return mux
}

func TestInitRoutes_RegistersSevenRoutes(t *testing.T) {
	conf := &structures.Config{}
	router := InitRoutes(newTestController(conf), conf)
	routes := router.GetRoutes()

	require.Len(t, routes, 7)

	urls := make([]string, len(routes))
	for i, r := range routes {
		urls[i] = r.Url
	}

	assert.Contains(t, urls, "/timeline")
	assert.Contains(t, urls, "/timeline/refresh")
	assert.Contains(t, urls, "/entries/reaction")
	assert.Contains(t, urls, "/entries/bookmark")
	assert.Contains(t, urls, "/entries/comment")
	assert.Contains(t, urls, "/entries/delete")
	assert.Contains(t, urls, "/session/close")
}

func TestInitRoutes_MethodEnforcement(t *testing.T) {
	mux := newTestMux(t)

	// GET /timeline with POST should fail
	req := httptest.NewRequest(http.MethodPost, "/timeline", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodGet, rr.Header().Get("Allow"))

	// POST /entries/reaction with GET should fail
	req = httptest.NewRequest(http.MethodGet, "/entries/reaction", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestInitRoutes_ViewerRequired(t *testing.T) {
	mux := newTestMux(t)

	for _, path := range []string{"/timeline/refresh", "/session/close"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}
