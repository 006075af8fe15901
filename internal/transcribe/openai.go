package transcribe

import (
	"context"

	"github.com/thedavidhackett/draft-two/internal/openai"
)

type audioClient interface {
	Transcribe(ctx context.Context, filename string, data []byte, opts openai.TranscriptionOptions) (openai.Transcription, error)
}

// OpenAITranscriber sends the audio to the hosted transcription endpoint.
type OpenAITranscriber struct {
	client audioClient
	opts   openai.TranscriptionOptions
}

func NewOpenAI(client audioClient, opts openai.TranscriptionOptions) *OpenAITranscriber {
	return &OpenAITranscriber{client: client, opts: opts}
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio Audio) (Transcript, error) {
	res, err := t.client.Transcribe(ctx, audio.Name, audio.Data, t.opts)
	if err != nil {
		return Transcript{}, err
	}

	if len(res.Segments) == 0 {
		return Transcript{Segments: []Segment{{Text: res.Text}}}, nil
	}

	segments := make([]Segment, len(res.Segments))
	for i, s := range res.Segments {
		segments[i] = Segment{Start: s.Start, End: s.End, Speaker: s.Speaker, Text: s.Text}
	}
	return Transcript{Segments: segments}, nil
}
