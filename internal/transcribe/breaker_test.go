package transcribe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thedavidhackett/draft-two/internal/apperr"
	"github.com/thedavidhackett/draft-two/internal/logger"
)

func TestWithBreaker(t *testing.T) {
	next := &fakeTranscriber{err: errors.New("connection refused")}
	tr := WithBreaker(next, "openai", BreakerConfig{ConsecutiveFailures: 2}, logger.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := tr.Transcribe(ctx, Audio{Name: "a.mp3"})
		assert.EqualError(t, err, "connection refused")
	}

	_, err := tr.Transcribe(ctx, Audio{Name: "a.mp3"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeTransport))
	assert.NotEmpty(t, apperr.HintOf(err))
	assert.Equal(t, 2, next.calls, "open breaker must not reach the backend")
}

func TestWithBreaker_PassesResult(t *testing.T) {
	tr := WithBreaker(&fakeTranscriber{text: "ok"}, "local", BreakerConfig{}, logger.NewNop())

	got, err := tr.Transcribe(context.Background(), Audio{Name: "a.mp3"})
	require.NoError(t, err)
	assert.Equal(t, "ok", Render(got))
}
