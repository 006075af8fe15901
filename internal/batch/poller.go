package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/thedavidhackett/draft-two/internal/apperr"
	"github.com/thedavidhackett/draft-two/internal/logger"
)

// DefaultPollInterval is the fixed cadence between status checks.
const DefaultPollInterval = 30 * time.Second

// Clock abstracts time so polling can be simulated in tests.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock returns a Clock backed by the time package.
func RealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type PollerConfig struct {
	Interval time.Duration
	// MaxWait bounds the total wait; zero waits forever.
	MaxWait time.Duration
}

// PollResult is the outcome of a wait: either the job reached a terminal status
// or the wait timed out with the job still in flight.
type PollResult struct {
	Job      Job
	Queries  int
	TimedOut bool
}

// Poller queries a job at a fixed interval until it is terminal.
type Poller struct {
	svc    StatusGetter
	cfg    PollerConfig
	clock  Clock
	logger logger.Logger
}

func NewPoller(svc StatusGetter, cfg PollerConfig, clock Clock, log logger.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if clock == nil {
		clock = RealClock()
	}
	return &Poller{svc: svc, cfg: cfg, clock: clock, logger: log}
}

// Wait blocks until the job is Completed, Failed or Cancelled, the optional
// max wait elapses, or ctx is done. Failed and Cancelled are returned as normal
// results. Failed status checks are logged and retried unless the error says
// retrying cannot help (bad credential, unknown job).
func (p *Poller) Wait(ctx context.Context, jobID string) (PollResult, error) {
	start := p.clock.Now()
	result := PollResult{Job: Job{ID: jobID}}
	var lastStatus Status

	p.logger.Info(ctx, "Waiting for batch job %s to complete (polling every %s)", jobID, p.cfg.Interval)

	for {
		job, err := p.svc.GetJob(ctx, jobID)
		result.Queries++

		switch {
		case err != nil && ctx.Err() != nil:
			return result, ctx.Err()
		case err != nil && !retryableStatusError(err):
			return result, fmt.Errorf("get batch job %s: %w", jobID, err)
		case err != nil:
			p.logger.Warn(ctx, "Status check %d for batch job %s failed, retrying: %v", result.Queries, jobID, err)
		default:
			result.Job = job
			if job.Status != lastStatus {
				p.logger.Info(ctx, "Current batch status: %s", job.Status)
				lastStatus = job.Status
			}
			if job.Status.Terminal() {
				return result, nil
			}
		}

		wait := p.cfg.Interval
		if p.cfg.MaxWait > 0 {
			left := p.cfg.MaxWait - p.clock.Now().Sub(start)
			if left <= 0 {
				p.logger.Warn(ctx, "Batch job %s not finished after %s, giving up without cancelling it", jobID, p.cfg.MaxWait)
				result.TimedOut = true
				return result, nil
			}
			wait = min(wait, left)
		}

		if err := p.clock.Sleep(ctx, wait); err != nil {
			return result, err
		}
	}
}

// retryableStatusError retries uncoded errors and coded ones marked
// retryable. A TRANSPORT error without the flag (a 4xx other than 404/429)
// will not go away by asking again.
func retryableStatusError(err error) bool {
	if apperr.CodeOf(err) == "" {
		return true
	}
	return apperr.IsRetryable(err)
}
