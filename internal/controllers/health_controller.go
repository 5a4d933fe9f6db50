package controllers

import (
	"net/http"
	"time"
	"unifeed/internal/providers"
)

type HealthController struct {
	sessions  providers.SessionCounter
	startTime time.Time
}

type healthResponse struct {
	Status        string `json:"status"`
	StartedAt     string `json:"started_at"`
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Sessions      int    `json:"sessions"`
}

// Health reports liveness and the number of open viewer sessions.
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime).Truncate(time.Second)
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		StartedAt:     hc.startTime.UTC().Format(time.RFC3339),
		Uptime:        uptime.String(),
		UptimeSeconds: int64(uptime / time.Second),
		Sessions:      hc.sessions.Len(),
	})
}

func NewHealthController(sessions providers.SessionCounter) *HealthController {
	return &HealthController{
		sessions:  sessions,
		startTime: time.Now(),
	}
}
