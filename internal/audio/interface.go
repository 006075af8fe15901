package audio

import "context"

// Extractor produces an .mp3 from a YouTube URL, a local video or a local
// audio file.
type Extractor interface {
	// Extract writes <outDir>/<name>.mp3 and returns its path. An empty name
	// falls back to the video title or the source base name.
	Extract(ctx context.Context, source, name, outDir string) (string, error)
}
