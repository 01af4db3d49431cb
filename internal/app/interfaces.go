package app

import (
	"context"
	"os"
	"time"

	"github.com/fleetguard/fleetguard-controller/internal/infra/appstate"
	"github.com/fleetguard/fleetguard-controller/internal/infra/shutdown"
)

// appstater defines the interface for application state management.
type appstater interface {
	RegisterShutdowner(shutdowner shutdown.Shutdowner)
	Quit() <-chan os.Signal
	SetStarting(ctx context.Context) error
	SetRunning(ctx context.Context) error
	SetTerminating(ctx context.Context) error
	GetState() appstate.State
	GetStartTime() time.Time
	GetUptime() time.Duration
	IsHealthy() bool
	IsReady() bool
	Shutdown(ctx context.Context) error
}

// appServer is a long-running component with a startup handshake.
type appServer interface {
	Start(ctx context.Context) error
	Ready() <-chan struct{}
	shutdown.Shutdowner
}
