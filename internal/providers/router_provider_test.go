package providers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dummyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestRouterProvider_RecordsMethodAndUrl(t *testing.T) {
	rp := NewRouterProvider()
	rp.Get("/timeline", dummyHandler())
	rp.Post("/entries/reaction", dummyHandler())

	routes := rp.GetRoutes()
	require.Len(t, routes, 2)
	assert.Equal(t, http.MethodGet, routes[0].Method)
	assert.Equal(t, "/timeline", routes[0].Url)
	assert.Equal(t, http.MethodPost, routes[1].Method)
	assert.Equal(t, "/entries/reaction", routes[1].Url)
}

func TestRouterProvider_GetRoutesReturnsCopy(t *testing.T) {
	rp := NewRouterProvider()
	rp.Get("/timeline", dummyHandler())

	routes := rp.GetRoutes()
	routes[0].Url = "/changed"

	assert.Equal(t, "/timeline", rp.GetRoutes()[0].Url)
}

func TestRouterProvider_RouteServesItsMethod(t *testing.T) {
	rp := NewRouterProvider()
	rp.Post("/timeline/refresh", dummyHandler())
	route := rp.GetRoutes()[0]

	rr := httptest.NewRecorder()
	route.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/timeline/refresh", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())

	rr = httptest.NewRecorder()
	route.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/timeline/refresh", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
}

func TestMethodHandler(t *testing.T) {
	tests := []struct {
		name    string
		allowed string
		method  string
		status  int
	}{
		{"get allowed", http.MethodGet, http.MethodGet, http.StatusOK},
		{"post on get route", http.MethodGet, http.MethodPost, http.StatusMethodNotAllowed},
		{"get on post route", http.MethodPost, http.MethodGet, http.StatusMethodNotAllowed},
		{"delete on post route", http.MethodPost, http.MethodDelete, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			methodHandler(tt.allowed, dummyHandler()).ServeHTTP(rr, httptest.NewRequest(tt.method, "/x", nil))
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}
