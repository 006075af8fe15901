package report

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/thedavidhackett/draft-two/internal/apperr"
	"github.com/thedavidhackett/draft-two/internal/batch"
	"github.com/thedavidhackett/draft-two/internal/metadata"
	"github.com/thedavidhackett/draft-two/internal/workitem"
)

type Input struct {
	TranscriptPath   string
	InstructionsPath string
	// MetadataPath defaults to <MetadataDir>/<name>_metadata.txt.
	MetadataPath string
	// Name defaults to the transcript base name.
	Name string
	// Repeats overrides the configured sample count when > 0.
	Repeats int
}

// Result lists where the reports were written.
type Result struct {
	Dir    string
	Report *batch.Report
}

func (g *Generator) Generate(ctx context.Context, in Input) (*Result, error) {
	transcript, err := readInput(in.TranscriptPath, "transcript")
	if err != nil {
		return nil, err
	}
	instructions, err := readInput(in.InstructionsPath, "instructions")
	if err != nil {
		return nil, err
	}

	name := workitem.Key(in.Name)
	if name == "" {
		name = workitem.KeyFromFilename(in.TranscriptPath)
	}
	if err := name.Validate(); err != nil {
		return nil, err
	}

	mdPath := in.MetadataPath
	if mdPath == "" {
		mdPath = metadata.Path(g.cfg.MetadataDir, string(name))
	}
	md, found, err := metadata.Load(mdPath)
	if err != nil {
		return nil, err
	}
	var incident string
	if found {
		incident = md.Context()
	} else {
		g.logger.Warn(ctx, "No metadata found at %s, reports are generated without incident context", mdPath)
	}

	repeats := g.cfg.Repeats
	if in.Repeats > 0 {
		repeats = in.Repeats
	}
	items := make([]workitem.Item, repeats)
	for i := range items {
		items[i] = workitem.Item{
			Key:     workitem.Key(fmt.Sprintf("%s_report_%d", name, i+1)),
			Payload: transcript,
			Path:    in.TranscriptPath,
		}
	}

	requests, err := batch.Build(items, instructions, incident, batch.BuildOptions{
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(g.cfg.OutDir, string(name))
	var sink batch.Sink = batch.NewTextSink(dir)
	if g.cfg.Docx {
		sink = &docxSink{DirSink: batch.NewTextSink(dir), logger: g.logger}
	}

	g.logger.Info(ctx, "Generating %d report(s) for %s with %s", repeats, name, g.cfg.Model)
	report, err := g.runner.Run(ctx, batch.Run{Key: "report:" + string(name), Requests: requests, Sink: sink})
	if err != nil {
		return nil, fmt.Errorf("generate reports for %s: %w", name, err)
	}

	g.logger.Info(ctx, "Reports for %s saved in %s", name, dir)
	return &Result{Dir: dir, Report: report}, nil
}

func readInput(path, what string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", apperr.Newf(apperr.CodeNotFound, "%s file not found: %s", what, path).
			WithHint("Check the path or run the previous pipeline stage first")
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", what, err)
	}
	return string(data), nil
}
