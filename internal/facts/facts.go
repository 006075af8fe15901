package facts

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/thedavidhackett/draft-two/internal/batch"
	"github.com/thedavidhackett/draft-two/internal/logger"
	"github.com/thedavidhackett/draft-two/internal/workitem"
)

const csvHeader = "Fact"

// Runner drives one batch to completion.
type Runner interface {
	Run(ctx context.Context, run batch.Run) (*batch.Report, error)
}

type Config struct {
	Model string
	// Instructions open the user message of every request.
	Instructions string
	OutDir       string
}

// Extractor breaks every report in a folder into one-line facts, one CSV
// per report.
type Extractor struct {
	runner Runner
	cfg    Config
	logger logger.Logger
}

func New(runner Runner, cfg Config, log logger.Logger) *Extractor {
	return &Extractor{runner: runner, cfg: cfg, logger: log}
}

// Extract submits every .txt file in folder as one batch and writes
// <OutDir>/<key>.csv per result. An empty folder is not an error.
func (e *Extractor) Extract(ctx context.Context, folder string) (*batch.Report, error) {
	seq, err := workitem.Scan(folder, ".txt")
	if err != nil {
		return nil, err
	}

	var items []workitem.Item
	for item, err := range seq {
		if err != nil {
			e.logger.Warn(ctx, "Could not read %s, skipping: %v", item.Path, err)
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		e.logger.Warn(ctx, "No .txt files found in %s, no facts extracted", folder)
		return &batch.Report{}, nil
	}

	// The instructions travel in the user message ahead of each report.
	requests, err := batch.Build(items, "", e.cfg.Instructions, batch.BuildOptions{Model: e.cfg.Model})
	if err != nil {
		return nil, err
	}

	sink := &batch.DirSink{Dir: e.cfg.OutDir, Ext: ".csv", Encode: EncodeCSV}
	runKey := "facts:" + filepath.Clean(folder)

	e.logger.Info(ctx, "Extracting facts from %d report(s) in %s", len(items), folder)
	report, err := e.runner.Run(ctx, batch.Run{Key: runKey, Requests: requests, Sink: sink})
	if err != nil {
		return report, fmt.Errorf("extract facts from %s: %w", folder, err)
	}

	e.logger.Info(ctx, "All results saved in separate CSV files in %s", e.cfg.OutDir)
	return report, nil
}

// Facts splits model output into trimmed non-empty lines.
func Facts(content string) []string {
	var facts []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			facts = append(facts, line)
		}
	}
	return facts
}

// EncodeCSV renders content as a one-column CSV with a "Fact" header.
func EncodeCSV(content string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{csvHeader}); err != nil {
		return nil, err
	}
	for _, f := range Facts(content) {
		if err := w.Write([]string{f}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
