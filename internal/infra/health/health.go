package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const pingTimeout = 5 * time.Second

// Pinger is implemented by components that expose a liveness probe.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// Result is the outcome of the most recent ping of one component.
type Result struct {
	CheckedAt time.Time
	Err       error
}

// Registry polls registered component pings on a fixed interval and keeps
// the latest result per component for the health and status endpoints.
type Registry struct {
	logger     *slog.Logger
	interval   time.Duration
	mu         sync.RWMutex
	pingers    map[string]Pinger
	results    map[string]Result
	ready      chan struct{}
	doneCh     chan struct{}
	inShutdown atomic.Bool
}

// New creates a health registry with the given ping interval.
func New(logger *slog.Logger, interval time.Duration) *Registry {
	return &Registry{
		logger:   logger,
		interval: interval,
		pingers:  make(map[string]Pinger),
		results:  make(map[string]Result),
		ready:    make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Name returns the name of the health registry component.
func (r *Registry) Name() string {
	return "health-registry"
}

// Register adds a component to the ping loop.
func (r *Registry) Register(pinger Pinger) error {
	if pinger == nil {
		return fmt.Errorf("register pinger: pinger cannot be nil")
	}

	name := pinger.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pingers[name]; exists {
		return fmt.Errorf("register pinger %s: %w", name, ErrAlreadyRegistered)
	}

	r.pingers[name] = pinger

	r.logger.Info("pinger registered", "name", name)

	return nil
}

// Start starts the ping loop in a goroutine.
func (r *Registry) Start(ctx context.Context) error {
	if r.inShutdown.Load() {
		r.logger.InfoContext(ctx, "health registry is shutting down, skipping start")

		return nil
	}

	go r.run(ctx)

	return nil
}

// Ready returns a channel that is closed when the ping loop has started.
func (r *Registry) Ready() <-chan struct{} {
	return r.ready
}

// Shutdown waits for the ping loop to exit.
func (r *Registry) Shutdown(ctx context.Context) error {
	if !r.inShutdown.CompareAndSwap(false, true) {
		r.logger.ErrorContext(ctx, "health registry is already shutting down, skipping shutdown")

		return nil
	}

	defer func() {
		r.logger.InfoContext(ctx, "health registry shut downed")
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before health loop exited: %w", ctx.Err())
	case <-r.doneCh:
	}

	return nil
}

// Healthy reports whether every checked component's latest ping succeeded.
// Components not yet checked do not count against health.
func (r *Registry) Healthy() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, result := range r.results {
		if result.Err != nil {
			return false
		}
	}

	return true
}

// Results returns a copy of the latest ping results keyed by component name.
func (r *Registry) Results() map[string]Result {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Result, len(r.results))
	for name, result := range r.results {
		out[name] = result
	}

	return out
}

func (r *Registry) run(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	close(r.ready)

	for {
		r.checkAll(ctx)

		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "terminating health loop")

			return
		case <-ticker.C:
		}
	}
}

func (r *Registry) checkAll(ctx context.Context) {
	r.mu.RLock()
	pingers := make([]Pinger, 0, len(r.pingers))

	for _, pinger := range r.pingers {
		pingers = append(pingers, pinger)
	}
	r.mu.RUnlock()

	for _, pinger := range pingers {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := pinger.Ping(pingCtx)

		cancel()

		if err != nil {
			r.logger.WarnContext(ctx, "component ping failed",
				"component", pinger.Name(),
				"reason", err,
			)
		}

		r.mu.Lock()
		r.results[pinger.Name()] = Result{
			CheckedAt: time.Now(),
			Err:       err,
		}
		r.mu.Unlock()
	}
}
