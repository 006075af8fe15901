package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/thedavidhackett/draft-two/internal/metadata"
	"github.com/thedavidhackett/draft-two/internal/report"
	"github.com/thedavidhackett/draft-two/internal/workitem"
)

// Process orchestrates the entire interview processing pipeline
func (p *implProcessor) Process(ctx context.Context, source, name string) (*Result, error) {
	if err := workitem.Key(name).Validate(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	paths := p.opts.Paths
	res := &Result{}

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Starting pipeline for %s: %s", name, source)
	p.logger.Info(ctx, "========================================")

	// Step 1: Extract audio
	p.logger.Info(ctx, "--- Step 1: Extracting Audio ---")
	audioPath, err := p.stages.Audio.Extract(ctx, source, name, paths.Audio)
	if err != nil {
		return res, fmt.Errorf("extract audio: %w", err)
	}
	res.AudioPath = audioPath

	// Step 2: Transcribe
	p.logger.Info(ctx, "--- Step 2: Transcribing Audio ---")
	transcripts, err := p.stages.Transcriber.Run(ctx, audioPath, name, paths.Transcripts, 1)
	if err != nil {
		return res, fmt.Errorf("transcribe: %w", err)
	}
	res.Transcript = transcripts[0]

	// Step 3: Metadata
	res.MetadataPath = metadata.Path(paths.Metadata, name)
	if p.stages.Metadata != nil {
		p.logger.Info(ctx, "--- Step 3: Creating Metadata (Interactive) ---")
		md, err := p.stages.Metadata.Ask(ctx)
		if err != nil {
			return res, fmt.Errorf("create metadata: %w", err)
		}
		if _, err := metadata.Write(paths.Metadata, name, md); err != nil {
			return res, fmt.Errorf("create metadata: %w", err)
		}
		p.logger.Info(ctx, "Metadata successfully saved to %s", res.MetadataPath)
	} else {
		p.logger.Info(ctx, "--- Step 3: Skipping metadata prompt (non-interactive) ---")
	}

	// Step 4: Reports
	p.logger.Info(ctx, "--- Step 4: Processing Reports in Batch ---")
	rep, err := p.stages.Reports.Generate(ctx, report.Input{
		TranscriptPath:   res.Transcript,
		InstructionsPath: p.opts.InstructionsPath,
		MetadataPath:     res.MetadataPath,
		Name:             name,
		Repeats:          p.opts.Repeats,
	})
	if err != nil {
		return res, fmt.Errorf("generate reports: %w", err)
	}
	res.ReportDir = rep.Dir

	// Step 5: Facts
	p.logger.Info(ctx, "--- Step 5: Extracting Atomic Facts ---")
	res.Facts, err = p.stages.Facts.Extract(ctx, rep.Dir)
	if err != nil {
		return res, fmt.Errorf("extract facts: %w", err)
	}

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Pipeline completed successfully!")
	p.logger.Info(ctx, "Reports: %s", res.ReportDir)
	p.logger.Info(ctx, "Facts: %s", paths.Facts)
	p.logger.Info(ctx, "Processing time: %s", time.Since(startTime))
	p.logger.Info(ctx, "========================================")

	return res, nil
}

// HandleInbox runs the pipeline for a file dropped in the inbox, named after
// the file, and archives the source when every stage succeeded.
func (p *implProcessor) HandleInbox(ctx context.Context, path string) error {
	name := string(workitem.KeyFromFilename(path))
	if _, err := p.Process(ctx, path, name); err != nil {
		return err
	}

	if err := p.moveToArchived(ctx, path); err != nil {
		p.logger.Warn(ctx, "Failed to move source to archived folder: %v", err)
	}
	return nil
}
