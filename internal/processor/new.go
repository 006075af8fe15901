package processor

import (
	"github.com/thedavidhackett/draft-two/internal/config"
	"github.com/thedavidhackett/draft-two/internal/logger"
)

// Stages are the collaborators the pipeline chains. Metadata may be nil,
// in which case the prompt is skipped and an existing metadata file is used.
type Stages struct {
	Audio       AudioExtractor
	Transcriber TranscriptionStage
	Metadata    MetadataPrompter
	Reports     ReportGenerator
	Facts       FactExtractor
}

type Options struct {
	Paths            config.PathsConfig
	InstructionsPath string
	// Repeats is the number of report samples; zero keeps the generator default.
	Repeats int
}

type implProcessor struct {
	stages Stages
	opts   Options
	logger logger.Logger
}

// New creates a new Processor instance
func New(stages Stages, opts Options, log logger.Logger) Processor {
	return &implProcessor{
		stages: stages,
		opts:   opts,
		logger: log,
	}
}
