package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fleetguard/fleetguard-controller/internal/infra/metrics"
	"github.com/fleetguard/fleetguard-controller/internal/logic/tracker"
)

// Service drives the repeating poll cycle: directory refresh, batched
// concurrent fetch+evaluate, cooldown sleep. Batches are strictly
// sequential, so no two evaluations of the same instance ever overlap.
type Service struct {
	logger           *slog.Logger
	repo             Repository
	notifier         Notifier
	tracker          *tracker.Tracker
	batchSize        int
	batchDelay       time.Duration
	cycleDelay       time.Duration
	ready            chan struct{}
	doneCh           chan struct{}
	inShutdown       atomic.Bool
	mu               sync.RWMutex
	lastCycleEndTime time.Time
}

// New creates a new watch service.
func New(
	logger *slog.Logger,
	repo Repository,
	notifier Notifier,
	trk *tracker.Tracker,
	batchSize int,
	batchDelay time.Duration,
	cycleDelay time.Duration,
) *Service {
	return &Service{
		logger:     logger,
		repo:       repo,
		notifier:   notifier,
		tracker:    trk,
		batchSize:  batchSize,
		batchDelay: batchDelay,
		cycleDelay: cycleDelay,
		ready:      make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Name returns the name of the watch service component.
func (s *Service) Name() string {
	return "watch-service"
}

func (s *Service) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "watch service is shutting down, skipping start")

		return nil
	}

	go s.RunCommand(ctx)

	return nil
}

// Ready returns a channel that is closed when the poll loop has started.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

func (s *Service) Ping(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ready:
		lastCycleAge := s.getLastCycleAge()
		if lastCycleAge > 2*s.cycleDelay {
			return fmt.Errorf("last poll cycle was too long ago: %s", lastCycleAge.Round(time.Second).String())
		}

		return nil
	default:
		return fmt.Errorf("watch service is not ready")
	}
}

func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "watch service is already shutting down, skipping shutdown")

		return nil
	}

	defer func() {
		s.logger.InfoContext(ctx, "watch service shut downed")
	}()

	s.logger.InfoContext(ctx, "shutting down watch service")

	// RunCommand exits on context cancellation; wait for it here.
	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before watch loop exited: %w", ctx.Err())
	case <-s.doneCh:
		s.logger.InfoContext(ctx, "watch loop exited")
	}

	return nil
}

// RunCommand runs poll cycles forever, sleeping the inter-cycle delay after
// each pass. A failed cycle never terminates the loop; the sleep is honored
// either way so an upstream outage cannot turn into a crash loop.
func (s *Service) RunCommand(ctx context.Context) {
	defer close(s.doneCh)

	logger := s.logger.With("watch", "RunCommand")

	close(s.ready)

	for {
		err := s.CycleCommand(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "poll cycle degraded", "reason", err)
		}

		s.setLastCycleEndTime()

		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "terminating main watch loop")

			return
		case <-time.After(s.cycleDelay):
		}
	}
}

// CycleCommand runs one poll cycle. A directory listing failure degrades
// the whole cycle to a no-op and is returned as the cycle error.
func (s *Service) CycleCommand(ctx context.Context) error {
	logger := s.logger.With("watch", "CycleCommand")

	metrics.RecordPollCycle()

	instances, err := s.repo.ListInstancesQuery(ctx)
	if err != nil {
		metrics.RecordDirectoryFailure()

		return fmt.Errorf("list instances: %w", err)
	}

	logger.DebugContext(ctx, "starting to process instances", "count", len(instances))

	for start := 0; start < len(instances); start += s.batchSize {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "context done, stopping poll cycle")

			return nil
		default:
		}

		end := min(start+s.batchSize, len(instances))
		s.processBatch(ctx, logger, instances[start:end])

		if end == len(instances) {
			break
		}

		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "context done, stopping poll cycle")

			return nil
		// pause between batches to avoid overwhelming the panel API
		case <-time.After(s.batchDelay):
		}
	}

	metrics.SetActiveBreachEpisodes(s.tracker.ActiveCount())

	logger.InfoContext(ctx, "poll cycle completed",
		"instances", len(instances),
		"activeEpisodes", s.tracker.ActiveCount(),
	)

	return nil
}

// processBatch fetches and evaluates all instances of one batch
// concurrently and joins them before returning. Per-instance failures come
// back as values and are logged; they never abort the batch.
func (s *Service) processBatch(
	ctx context.Context,
	logger *slog.Logger,
	batch []tracker.Instance,
) {
	grp := new(errgroup.Group)
	errs := make([]error, len(batch))

	for i := range batch {
		inst := batch[i]

		grp.Go(func() error {
			errs[i] = s.processInstance(ctx, inst)

			return nil
		})
	}

	// Wait never fails here; tasks report through the errs slice.
	_ = grp.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}

		logger.ErrorContext(ctx, "process instance error",
			"instance", batch[i].ID,
			"name", batch[i].Name,
			"reason", err,
		)
	}
}

func (s *Service) processInstance(ctx context.Context, inst tracker.Instance) error {
	logger := s.logger.With(
		"instance", inst.ID,
		"name", inst.Name,
		"category", inst.Category,
		"watch", "processInstance",
	)

	snap, err := s.repo.GetResourcesQuery(ctx, inst.ID)
	if err != nil {
		metrics.RecordSnapshotFetchFailure(inst.ID)

		return fmt.Errorf("get resources: %w", err)
	}

	action := s.tracker.Evaluate(inst, *snap, time.Now())

	switch action {
	case tracker.ActionNotify:
		s.reportOveruse(ctx, logger, inst, *snap)
	case tracker.ActionTerminate:
		s.terminateInstance(ctx, logger, inst, *snap)
	case tracker.ActionNone:
	}

	return nil
}

func (s *Service) reportOveruse(
	ctx context.Context,
	logger *slog.Logger,
	inst tracker.Instance,
	snap tracker.Snapshot,
) {
	metrics.RecordOveruseNotification(inst.Category)

	if err := s.notifier.NotifyOveruse(ctx, inst, snap); err != nil {
		// Best effort: the episode stays notified even when delivery fails.
		logger.ErrorContext(ctx, "deliver overuse report failed", "reason", err)

		return
	}

	logger.InfoContext(ctx, "overuse reported",
		"cpu", snap.CPUPercent,
		"memoryBytes", snap.MemoryBytes,
		"diskBytes", snap.DiskBytes,
	)
}

// terminateInstance issues the kill command and then the audit
// notification. Both sub-steps are best effort and the tracker state change
// is already committed, so neither failure is retried or rolled back.
func (s *Service) terminateInstance(
	ctx context.Context,
	logger *slog.Logger,
	inst tracker.Instance,
	snap tracker.Snapshot,
) {
	metrics.RecordTermination(inst.Category)

	if err := s.repo.KillInstanceCommand(ctx, inst.ID); err != nil {
		logger.ErrorContext(ctx, "kill instance failed", "reason", err)
	} else {
		logger.InfoContext(ctx, "instance terminated",
			"cpu", snap.CPUPercent,
			"memoryBytes", snap.MemoryBytes,
			"diskBytes", snap.DiskBytes,
		)
	}

	if err := s.notifier.NotifyTermination(ctx, inst, snap); err != nil {
		logger.ErrorContext(ctx, "deliver termination audit failed", "reason", err)
	}
}

func (s *Service) getLastCycleAge() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return time.Since(s.lastCycleEndTime)
}

func (s *Service) setLastCycleEndTime() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastCycleEndTime = time.Now()
}
