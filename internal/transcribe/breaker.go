package transcribe

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/thedavidhackett/draft-two/internal/apperr"
	"github.com/thedavidhackett/draft-two/internal/logger"
)

type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a trial call.
	OpenTimeout time.Duration
}

type breakerTranscriber struct {
	next Transcriber
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker stops calling next after repeated failures so a dead backend
// fails the remaining samples fast instead of each waiting for a timeout.
func WithBreaker(next Transcriber, name string, cfg BreakerConfig, log logger.Logger) Transcriber {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 3
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn(context.Background(), "Transcription backend %s circuit %s -> %s", name, from, to)
		},
	}

	return &breakerTranscriber{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *breakerTranscriber) Transcribe(ctx context.Context, audio Audio) (Transcript, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Transcribe(ctx, audio)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Transcript{}, apperr.New(apperr.CodeTransport, "transcription backend "+b.cb.Name()+" is unavailable").
			WithCause(err).WithRetryable(true).
			WithHint("The backend failed repeatedly; wait a moment and rerun, or switch transcription.backend")
	}
	if err != nil {
		return Transcript{}, err
	}
	return res.(Transcript), nil
}
