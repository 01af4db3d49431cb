package httpserver

import (
	"time"

	"github.com/fleetguard/fleetguard-controller/internal/infra/appstate"
	"github.com/fleetguard/fleetguard-controller/internal/infra/health"
	"github.com/fleetguard/fleetguard-controller/internal/logic/tracker"
)

// appstater is an internal interface for application state management.
type appstater interface {
	GetState() appstate.State
	IsHealthy() bool
	IsReady() bool
	GetUptime() time.Duration
	GetStartTime() time.Time
}

// healthChecker exposes the latest component ping results.
type healthChecker interface {
	Healthy() bool
	Results() map[string]health.Result
}

// episodeSource exposes the tracker's current breach state.
type episodeSource interface {
	ActiveEpisodes() []tracker.Episode
}
