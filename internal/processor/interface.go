package processor

import (
	"context"

	"github.com/thedavidhackett/draft-two/internal/batch"
	"github.com/thedavidhackett/draft-two/internal/metadata"
	"github.com/thedavidhackett/draft-two/internal/report"
)

// Processor runs the whole interview pipeline for one source.
type Processor interface {
	// Process runs every stage for source, naming all artifacts after name,
	// and stops at the first failing stage.
	Process(ctx context.Context, source, name string) (*Result, error)
	// HandleInbox processes a file dropped in the watched inbox and archives
	// it on success.
	HandleInbox(ctx context.Context, path string) error
}

type AudioExtractor interface {
	Extract(ctx context.Context, source, name, outDir string) (string, error)
}

type TranscriptionStage interface {
	Run(ctx context.Context, audioPath, name, outDir string, repeats int) ([]string, error)
}

// MetadataPrompter collects incident metadata interactively.
type MetadataPrompter interface {
	Ask(ctx context.Context) (metadata.Metadata, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, in report.Input) (*report.Result, error)
}

type FactExtractor interface {
	Extract(ctx context.Context, folder string) (*batch.Report, error)
}

// Result lists the artifacts of a pipeline run.
type Result struct {
	AudioPath    string
	Transcript   string
	MetadataPath string
	ReportDir    string
	Facts        *batch.Report
}
