package transcribe

import "context"

// Transcriber turns one audio recording into timed text segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (Transcript, error)
}

// Audio is a recording to transcribe. Path is the source file when known;
// backends that need a file on disk fall back to writing Data out.
type Audio struct {
	Name string
	Data []byte
	Path string
}

type Segment struct {
	Start   float64
	End     float64
	Speaker string
	Text    string
}

type Transcript struct {
	Segments []Segment
}

// Diarized reports whether any segment carries a speaker label.
func (t Transcript) Diarized() bool {
	for _, s := range t.Segments {
		if s.Speaker != "" {
			return true
		}
	}
	return false
}
