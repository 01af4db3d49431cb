package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fleetguard/fleetguard-controller/internal/adapters/outbound/panel"
	"github.com/fleetguard/fleetguard-controller/internal/adapters/outbound/webhook"
	"github.com/fleetguard/fleetguard-controller/internal/config"
	"github.com/fleetguard/fleetguard-controller/internal/httpserver"
	"github.com/fleetguard/fleetguard-controller/internal/infra/health"
	"github.com/fleetguard/fleetguard-controller/internal/infra/shutdown"
	"github.com/fleetguard/fleetguard-controller/internal/logic/summary"
	"github.com/fleetguard/fleetguard-controller/internal/logic/tracker"
	"github.com/fleetguard/fleetguard-controller/internal/logic/watch"
)

const readyTimeout = 10 * time.Second

type App struct {
	logger     *slog.Logger
	appState   appstater
	components []appServer
}

// New creates a new application instance with all dependencies wired.
func New(logger *slog.Logger, cfg *config.Config, appState appstater) (*App, error) {
	trk := tracker.New(tracker.Thresholds{
		ReportAfter:         cfg.ReportAfter,
		KillAfter:           cfg.KillAfter,
		KillAfterByCategory: cfg.KillAfterByCategory,
	})

	// Secondary adapters (panel API, notification webhook)
	panelRepo := panel.New(
		logger,
		cfg.PanelURL,
		cfg.ApplicationToken,
		cfg.ClientToken,
		cfg.ExcludedCategories,
	)
	notifier := webhook.New(logger, cfg.WebhookURL)

	// Logic service (inject repository and notifier adapters)
	watchService := watch.New(
		logger,
		panelRepo,
		notifier,
		trk,
		cfg.BatchSize,
		cfg.BatchDelay,
		cfg.CycleDelay,
	)

	healthRegistry := health.New(logger, cfg.HealthInterval)
	httpServer := httpserver.New(logger, appState, healthRegistry, trk, cfg.HTTPPort)
	metricsServer := httpserver.NewMetricsServer(logger, cfg.MetricsPort)

	for _, pinger := range []health.Pinger{watchService, httpServer, metricsServer} {
		if err := healthRegistry.Register(pinger); err != nil {
			return nil, fmt.Errorf("register pinger: %w", err)
		}
	}

	components := []appServer{
		watchService,
		healthRegistry,
		metricsServer,
		httpServer,
	}

	if cfg.SummarySchedule != "" {
		summaryService, err := summary.New(logger, notifier, trk, cfg.SummarySchedule)
		if err != nil {
			return nil, fmt.Errorf("new summary service: %w", err)
		}

		components = append(components, summaryService)
	}

	return &App{
		logger:     logger,
		appState:   appState,
		components: components,
	}, nil
}

// Run starts all components and blocks until a termination signal arrives,
// then shuts everything down gracefully.
func (a *App) Run(originCtx context.Context) error {
	ctx, cancel := context.WithCancel(originCtx)
	defer cancel()

	signalHandler := shutdown.New(a.logger, a.appState)

	go signalHandler.HandleSignals(ctx, cancel)

	if err := a.appState.SetStarting(ctx); err != nil {
		return fmt.Errorf("set starting application state: %w", err)
	}

	for _, component := range a.components {
		if err := component.Start(ctx); err != nil {
			return fmt.Errorf("start %s: %w", component.Name(), err)
		}

		a.appState.RegisterShutdowner(component)
	}

	for _, component := range a.components {
		select {
		case <-component.Ready():
		case <-ctx.Done():
			return a.appState.Shutdown(ctx)
		case <-time.After(readyTimeout):
			return fmt.Errorf("component %s did not become ready", component.Name())
		}
	}

	if err := a.appState.SetRunning(ctx); err != nil {
		return fmt.Errorf("set running application state: %w", err)
	}

	a.logger.InfoContext(ctx, "fleetguard controller running")

	<-ctx.Done()

	if err := a.appState.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
