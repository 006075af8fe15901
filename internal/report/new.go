package report

import (
	"context"

	"github.com/thedavidhackett/draft-two/internal/batch"
	"github.com/thedavidhackett/draft-two/internal/logger"
)

// Runner drives one batch to completion.
type Runner interface {
	Run(ctx context.Context, run batch.Run) (*batch.Report, error)
}

type Config struct {
	Model       string
	Temperature *float64
	Repeats     int
	// OutDir is the reports root; each transcript gets its own sub folder.
	OutDir      string
	MetadataDir string
	Docx        bool
}

// Generator turns a transcript into N sampled reports through one batch job.
type Generator struct {
	runner Runner
	cfg    Config
	logger logger.Logger
}

func New(runner Runner, cfg Config, log logger.Logger) *Generator {
	if cfg.Repeats < 1 {
		cfg.Repeats = 1
	}
	return &Generator{runner: runner, cfg: cfg, logger: log}
}
