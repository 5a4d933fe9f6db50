package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounter int

func (c fixedCounter) Len() int { return int(c) }

func TestHealth_ReportsSessions(t *testing.T) {
	hc := NewHealthController(fixedCounter(2))

	rr := httptest.NewRecorder()
	hc.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Sessions)
	assert.Equal(t, "0s", resp.Uptime)

	started, err := time.Parse(time.RFC3339, resp.StartedAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), started, 2*time.Second)
}

func TestHealth_UptimeInWholeSeconds(t *testing.T) {
	hc := NewHealthController(fixedCounter(0))
	hc.startTime = time.Now().Add(-(time.Hour + time.Minute + 1500*time.Millisecond))

	rr := httptest.NewRecorder()
	hc.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "1h1m1s", resp.Uptime)
	assert.Equal(t, int64(3661), resp.UptimeSeconds)
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	hc := NewHealthController(fixedCounter(0))

	rr := httptest.NewRecorder()
	hc.Health(rr, httptest.NewRequest(http.MethodPost, "/health", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodGet, rr.Header().Get("Allow"))
}
