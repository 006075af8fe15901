package transcribe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thedavidhackett/draft-two/internal/openai"
)

type fakeAudioClient struct {
	res  openai.Transcription
	opts openai.TranscriptionOptions
}

func (f *fakeAudioClient) Transcribe(ctx context.Context, filename string, data []byte, opts openai.TranscriptionOptions) (openai.Transcription, error) {
	f.opts = opts
	return f.res, nil
}

func TestOpenAITranscriber(t *testing.T) {
	client := &fakeAudioClient{res: openai.Transcription{Segments: []openai.TranscriptionSegment{
		{Start: 0, End: 1, Speaker: "A", Text: "hi"},
		{Start: 1, End: 2, Speaker: "B", Text: "hello"},
	}}}

	tr := NewOpenAI(client, openai.TranscriptionOptions{Model: "gpt-4o-transcribe-diarize", Diarize: true})
	got, err := tr.Transcribe(context.Background(), Audio{Name: "a.mp3"})
	require.NoError(t, err)

	assert.True(t, client.opts.Diarize)
	assert.Equal(t, "A: hi\nB: hello", Render(got))
}

func TestOpenAITranscriber_TextOnly(t *testing.T) {
	tr := NewOpenAI(&fakeAudioClient{res: openai.Transcription{Text: "just text"}}, openai.TranscriptionOptions{Model: "whisper-1"})

	got, err := tr.Transcribe(context.Background(), Audio{Name: "a.mp3"})
	require.NoError(t, err)
	assert.Equal(t, "just text", Render(got))
}
