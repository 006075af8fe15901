package fanout

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/thedavidhackett/draft-two/internal/apperr"
	"github.com/thedavidhackett/draft-two/internal/logger"
)

const DefaultMaxInFlight = 4

// Func performs one call for task index over a shared payload.
type Func[T any] func(ctx context.Context, index int, payload []byte) (T, error)

// Outcome is the result of task Index: Value when Err is nil.
type Outcome[T any] struct {
	Index int
	Value T
	Err   error
}

type Config struct {
	MaxInFlight int
	// RequestsPerSecond paces task starts; zero disables pacing.
	RequestsPerSecond float64
}

// Invoker runs the same call many times concurrently and collects the
// outcomes by task index.
type Invoker[T any] struct {
	fn      Func[T]
	cfg     Config
	limiter *rate.Limiter
	logger  logger.Logger
}

func New[T any](fn Func[T], cfg Config, log logger.Logger) *Invoker[T] {
	if cfg.MaxInFlight < 1 {
		cfg.MaxInFlight = DefaultMaxInFlight
	}
	inv := &Invoker[T]{fn: fn, cfg: cfg, logger: log}
	if cfg.RequestsPerSecond > 0 {
		inv.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return inv
}

// InvokeMany runs count tasks over payload with at most MaxInFlight running at
// once. outcomes[i] always belongs to task i whatever the completion order.
// A failing task never cancels its siblings.
func (inv *Invoker[T]) InvokeMany(ctx context.Context, payload []byte, count int) ([]Outcome[T], error) {
	if count < 1 {
		return nil, apperr.Newf(apperr.CodeValidation, "task count must be at least 1 (got %d)", count)
	}

	outcomes := make([]Outcome[T], count)
	var g errgroup.Group
	g.SetLimit(inv.cfg.MaxInFlight)

	for i := 0; i < count; i++ {
		g.Go(func() error {
			outcomes[i] = inv.run(ctx, i, payload)
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	inv.logger.Info(ctx, "Fan-out finished: %d of %d tasks succeeded", count-failed, count)

	return outcomes, nil
}

func (inv *Invoker[T]) run(ctx context.Context, index int, payload []byte) (out Outcome[T]) {
	out.Index = index
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("task %d panicked: %v", index, r)
		}
	}()

	if inv.limiter != nil {
		if err := inv.limiter.Wait(ctx); err != nil {
			out.Err = err
			return out
		}
	}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	out.Value, out.Err = inv.fn(ctx, index, payload)
	if out.Err != nil {
		inv.logger.Warn(ctx, "Task %d failed: %v", index, out.Err)
	}
	return out
}
