// AngelaMos | 2026
// scheduler.go

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/carterperez-dev/barbermaster/internal/metrics"
)

const (
	jobPurgeExpired = "purge-expired"
	purgeTimeout    = 30 * time.Second
)

type Purger interface {
	PurgeExpired(ctx context.Context) (codes, tokens int64, err error)
}

// Scheduler runs periodic housekeeping for onboarding records.
type Scheduler struct {
	cron    gocron.Scheduler
	purger  Purger
	metrics *metrics.JobMetrics
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(purger Purger, interval time.Duration, m *metrics.JobMetrics) (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:    cron,
		purger:  purger,
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
	}

	_, err = cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.purgeExpired),
		gocron.WithName(jobPurgeExpired),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("register %s job: %w", jobPurgeExpired, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	slog.Info("scheduler started", "jobs", len(s.cron.Jobs()))
	s.cron.Start()
}

// Stop cancels in-flight jobs and waits for them to return.
func (s *Scheduler) Stop() error {
	s.cancel()
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	return nil
}

func (s *Scheduler) purgeExpired() {
	ctx, cancel := context.WithTimeout(s.ctx, purgeTimeout)
	defer cancel()

	start := time.Now()
	codes, tokens, err := s.purger.PurgeExpired(ctx)
	s.metrics.ObserveDuration(jobPurgeExpired, time.Since(start))

	if err != nil {
		s.metrics.IncFailure(jobPurgeExpired)
		slog.ErrorContext(ctx, "purge expired records failed", "error", err)
		return
	}

	s.metrics.IncSuccess(jobPurgeExpired)
	s.metrics.AddPurged("verification_code", codes)
	s.metrics.AddPurged("reset_token", tokens)

	if codes > 0 || tokens > 0 {
		slog.InfoContext(ctx, "purged expired records",
			"codes", codes,
			"reset_tokens", tokens,
		)
	}
}
