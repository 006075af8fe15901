package audio

import (
	"github.com/thedavidhackett/draft-two/internal/logger"
	"github.com/thedavidhackett/draft-two/pkg/executor"
)

type Config struct {
	FFmpegPath string
	YTDLPPath  string
	AudioCodec string
	Quality    string
}

type implExtractor struct {
	exec   executor.Executor
	cfg    Config
	logger logger.Logger
}

func New(exec executor.Executor, cfg Config, log logger.Logger) Extractor {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.YTDLPPath == "" {
		cfg.YTDLPPath = "yt-dlp"
	}
	if cfg.AudioCodec == "" {
		cfg.AudioCodec = "libmp3lame"
	}
	if cfg.Quality == "" {
		cfg.Quality = "2"
	}
	return &implExtractor{exec: exec, cfg: cfg, logger: log}
}
