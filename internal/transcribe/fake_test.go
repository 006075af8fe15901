package transcribe

import (
	"context"
	"errors"
	"sync"
)

type fakeTranscriber struct {
	mu    sync.Mutex
	calls int
	fail  map[int]bool
	err   error
	text  string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio Audio) (Transcript, error) {
	f.mu.Lock()
	n := f.calls
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return Transcript{}, f.err
	}
	if f.fail[n] {
		return Transcript{}, errors.New("backend unavailable")
	}
	return Transcript{Segments: []Segment{{Text: f.text}}}, nil
}
