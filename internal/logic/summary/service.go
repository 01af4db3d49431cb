package summary

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	cron "github.com/netresearch/go-cron"

	"github.com/fleetguard/fleetguard-controller/internal/config"
)

// Service delivers a fleet usage summary to the notification channel on a
// cron schedule. It is optional; the app only constructs it when a schedule
// is configured.
type Service struct {
	logger     *slog.Logger
	sender     Sender
	stats      StatsSource
	schedule   cron.Schedule
	ready      chan struct{}
	doneCh     chan struct{}
	inShutdown atomic.Bool
}

// New creates a summary service for the given cron spec. The spec defaults
// to UTC unless it carries a CRON_TZ=/TZ= prefix.
func New(
	logger *slog.Logger,
	sender Sender,
	stats StatsSource,
	spec string,
) (*Service, error) {
	schedule, err := config.ParseSummarySchedule(spec)
	if err != nil {
		return nil, fmt.Errorf("summary schedule: %w", err)
	}

	return &Service{
		logger:   logger,
		sender:   sender,
		stats:    stats,
		schedule: schedule,
		ready:    make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Name returns the name of the summary service component.
func (s *Service) Name() string {
	return "summary-service"
}

func (s *Service) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "summary service is shutting down, skipping start")

		return nil
	}

	go s.run(ctx)

	return nil
}

// Ready returns a channel that is closed when the schedule loop has started.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "summary service is already shutting down, skipping shutdown")

		return nil
	}

	defer func() {
		s.logger.InfoContext(ctx, "summary service shut downed")
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before summary loop exited: %w", ctx.Err())
	case <-s.doneCh:
	}

	return nil
}

func (s *Service) run(ctx context.Context) {
	defer close(s.doneCh)

	close(s.ready)

	for {
		next := s.schedule.Next(time.Now())

		s.logger.DebugContext(ctx, "next summary scheduled", "at", next)

		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "terminating summary loop")

			return
		case <-time.After(time.Until(next)):
		}

		s.report(ctx)
	}
}

// report sends one summary. Delivery failures are logged and swallowed;
// the next scheduled occurrence retries naturally.
func (s *Service) report(ctx context.Context) {
	episodes := s.stats.ActiveEpisodes()

	if err := s.sender.NotifySummary(ctx, episodes); err != nil {
		s.logger.ErrorContext(ctx, "deliver fleet summary failed", "reason", err)

		return
	}

	s.logger.InfoContext(ctx, "fleet summary delivered", "activeEpisodes", len(episodes))
}
