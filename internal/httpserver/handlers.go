package httpserver

import (
	"encoding/json"
	"net/http"
	"time"
)

type statusResponse struct {
	State          string           `json:"state"`
	Uptime         string           `json:"uptime"`
	StartTime      time.Time        `json:"startTime"`
	UptimeSec      float64          `json:"uptimeSeconds"`
	Components     map[string]probe `json:"components"`
	ActiveEpisodes []episodeStatus  `json:"activeEpisodes"`
}

type probe struct {
	Healthy   bool      `json:"healthy"`
	CheckedAt time.Time `json:"checkedAt"`
	Error     string    `json:"error,omitempty"`
}

type episodeStatus struct {
	InstanceID string    `json:"instanceId"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Since      time.Time `json:"since"`
	Notified   bool      `json:"notified"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	if !s.appState.IsHealthy() || !s.health.Healthy() {
		w.WriteHeader(http.StatusServiceUnavailable)

		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if !s.appState.IsReady() {
		w.WriteHeader(http.StatusServiceUnavailable)

		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uptime := s.appState.GetUptime()

	components := make(map[string]probe)
	for name, result := range s.health.Results() {
		p := probe{
			Healthy:   result.Err == nil,
			CheckedAt: result.CheckedAt,
		}

		if result.Err != nil {
			p.Error = result.Err.Error()
		}

		components[name] = p
	}

	episodes := s.episodes.ActiveEpisodes()
	active := make([]episodeStatus, 0, len(episodes))

	for _, ep := range episodes {
		active = append(active, episodeStatus{
			InstanceID: ep.InstanceID,
			Name:       ep.Name,
			Category:   ep.Category,
			Since:      ep.Since,
			Notified:   ep.Notified,
		})
	}

	response := statusResponse{
		State:          string(s.appState.GetState()),
		Uptime:         uptime.String(),
		StartTime:      s.appState.GetStartTime(),
		UptimeSec:      uptime.Seconds(),
		Components:     components,
		ActiveEpisodes: active,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.ErrorContext(ctx, "failed to encode status response",
			"error", err,
		)
	}
}
