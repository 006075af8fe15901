package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thedavidhackett/draft-two/internal/apperr"
	"github.com/thedavidhackett/draft-two/internal/logger"
)

func TestPoller_Wait(t *testing.T) {
	tests := []struct {
		name        string
		statuses    []Status
		wantStatus  Status
		wantQueries int
	}{
		{"queued queued running completed", []Status{StatusQueued, StatusQueued, StatusRunning, StatusCompleted}, StatusCompleted, 4},
		{"already completed", []Status{StatusCompleted}, StatusCompleted, 1},
		{"failed", []Status{StatusRunning, StatusFailed}, StatusFailed, 2},
		{"cancelled", []Status{StatusQueued, StatusCancelled}, StatusCancelled, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService(tt.statuses...)
			clock := newFakeClock()
			p := NewPoller(svc, PollerConfig{}, clock, logger.NewNop())

			res, err := p.Wait(context.Background(), "batch-1")
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, res.Job.Status)
			assert.False(t, res.TimedOut)
			assert.Equal(t, tt.wantQueries, res.Queries)
			assert.Equal(t, tt.wantQueries, svc.getJobs)
			assert.Len(t, clock.sleeps, tt.wantQueries-1)
			for _, d := range clock.sleeps {
				assert.Equal(t, DefaultPollInterval, d)
			}
		})
	}
}

func TestPoller_TransientErrorIsRetried(t *testing.T) {
	svc := newFakeService(StatusRunning, StatusRunning, StatusCompleted)
	svc.statusErr[1] = apperr.New(apperr.CodeTransport, "502 bad gateway").WithRetryable(true)
	clock := newFakeClock()

	res, err := NewPoller(svc, PollerConfig{Interval: time.Second}, clock, logger.NewNop()).
		Wait(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Job.Status)
	assert.Equal(t, 3, res.Queries)
	assert.Len(t, clock.sleeps, 2)
}

func TestPoller_AuthErrorAborts(t *testing.T) {
	svc := newFakeService(StatusRunning)
	svc.statusErr[0] = apperr.New(apperr.CodeAuth, "invalid api key")

	_, err := NewPoller(svc, PollerConfig{}, newFakeClock(), logger.NewNop()).
		Wait(context.Background(), "batch-1")
	assert.True(t, apperr.Is(err, apperr.CodeAuth))
	assert.Equal(t, 1, svc.getJobs)
}

func TestPoller_MaxWait(t *testing.T) {
	svc := newFakeService(StatusRunning)
	clock := newFakeClock()

	res, err := NewPoller(svc, PollerConfig{Interval: 30 * time.Second, MaxWait: 2 * time.Minute}, clock, logger.NewNop()).
		Wait(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.Equal(t, StatusRunning, res.Job.Status)
	assert.Equal(t, 5, res.Queries)
}

func TestPoller_ContextCancelled(t *testing.T) {
	svc := newFakeService(StatusRunning)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPoller(svc, PollerConfig{}, newFakeClock(), logger.NewNop()).Wait(ctx, "batch-1")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPoller_MaxWaitCapsLastSleep(t *testing.T) {
	svc := newFakeService(StatusRunning)
	clock := newFakeClock()
	start := clock.Now()

	res, err := NewPoller(svc, PollerConfig{Interval: 30 * time.Second, MaxWait: 45 * time.Second}, clock, logger.NewNop()).
		Wait(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.Equal(t, []time.Duration{30 * time.Second, 15 * time.Second}, clock.sleeps)
	assert.Equal(t, 45*time.Second, clock.Now().Sub(start))
	assert.Equal(t, 3, res.Queries)
}

func TestPoller_StatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantRetried bool
	}{
		{"rate limited", apperr.New(apperr.CodeTransport, "429").WithRetryable(true), true},
		{"uncoded", errors.New("connection reset by peer"), true},
		{"bad request", apperr.New(apperr.CodeTransport, "400 invalid batch id"), false},
		{"unknown job", apperr.New(apperr.CodeNotFound, "404"), false},
		{"invalid key", apperr.New(apperr.CodeAuth, "401"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService(StatusRunning, StatusCompleted)
			svc.statusErr[0] = tt.err

			res, err := NewPoller(svc, PollerConfig{}, newFakeClock(), logger.NewNop()).
				Wait(context.Background(), "batch-1")
			if tt.wantRetried {
				require.NoError(t, err)
				assert.Equal(t, StatusCompleted, res.Job.Status)
				assert.Equal(t, 2, svc.getJobs)
				return
			}
			require.Error(t, err)
			assert.Equal(t, 1, svc.getJobs)
		})
	}
}
