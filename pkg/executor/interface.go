package executor

import "context"

// Executor runs external tools (ffmpeg, yt-dlp, whisper.cpp) and returns
// their standard output.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
}
