package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/thedavidhackett/draft-two/internal/apperr"
	"github.com/thedavidhackett/draft-two/internal/audio"
	"github.com/thedavidhackett/draft-two/internal/batch"
	"github.com/thedavidhackett/draft-two/internal/metadata"
	"github.com/thedavidhackett/draft-two/internal/report"
	"github.com/thedavidhackett/draft-two/internal/watcher"
	"github.com/thedavidhackett/draft-two/internal/workitem"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"run":           runCmd,
	"extract-audio": extractAudioCmd,
	"transcribe":    transcribeCmd,
	"metadata":      metadataCmd,
	"report":        reportCmd,
	"facts":         factsCmd,
	"watch":         watchCmd,
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseArgs accepts flags before, between or after the positional arguments
// and requires exactly want positionals.
func parseArgs(fs *flag.FlagSet, args []string, want ...string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, apperr.Newf(apperr.CodeValidation, "%s: %v", fs.Name(), err)
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
	if len(positional) != len(want) {
		return nil, apperr.Newf(apperr.CodeValidation, "%s expects %d argument(s), got %d", fs.Name(), len(want), len(positional)).
			WithHint(fmt.Sprintf("usage: pipeline %s <%s>", fs.Name(), strings.Join(want, "> <")))
	}
	return positional, nil
}

func runCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("run")
	instructions := fs.String("i", "", "report instructions file")
	repeats := fs.Int("r", 0, "number of reports to sample")
	pos, err := parseArgs(fs, args, "source", "name")
	if err != nil {
		return err
	}

	p, err := a.pipeline(ctx, *instructions, *repeats, true)
	if err != nil {
		return err
	}
	res, err := p.Process(ctx, pos[0], pos[1])
	if err != nil {
		return err
	}

	printf("Reports: %s\n", res.ReportDir)
	printf("%s\n", res.Facts.Summary())
	return nil
}

func extractAudioCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("extract-audio")
	name := fs.String("f", "", "output base name")
	outDir := fs.String("o", "", "output folder")
	pos, err := parseArgs(fs, args, "source")
	if err != nil {
		return err
	}

	path, err := a.audioExtractor().Extract(ctx, pos[0], *name, orDefault(*outDir, a.cfg.Paths.Audio))
	if err != nil {
		return err
	}
	printf("Audio saved to %s\n", path)
	return nil
}

func transcribeCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("transcribe")
	name := fs.String("f", "", "output base name")
	outDir := fs.String("o", "", "output folder")
	repeats := fs.Int("n", a.cfg.Transcription.Repeats, "number of transcripts to sample")
	pos, err := parseArgs(fs, args, "audio")
	if err != nil {
		return err
	}

	stage, err := a.transcriber()
	if err != nil {
		return err
	}
	paths, err := stage.Run(ctx, pos[0], *name, orDefault(*outDir, a.cfg.Paths.Transcripts), *repeats)
	if err != nil {
		return err
	}
	for _, p := range paths {
		printf("Transcript saved to %s\n", p)
	}
	return nil
}

func metadataCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("metadata")
	outDir := fs.String("o", "", "output folder")
	pos, err := parseArgs(fs, args, "name")
	if err != nil {
		return err
	}
	if err := workitem.Key(pos[0]).Validate(); err != nil {
		return err
	}

	md, err := a.metadataForm().Ask(ctx)
	if err != nil {
		return err
	}
	path, err := metadata.Write(orDefault(*outDir, a.cfg.Paths.Metadata), pos[0], md)
	if err != nil {
		return err
	}
	printf("Metadata saved to %s\n", path)
	return nil
}

func reportCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("report")
	instructions := fs.String("i", a.cfg.Report.InstructionsPath, "report instructions file")
	mdPath := fs.String("m", "", "metadata file")
	outDir := fs.String("o", "", "reports root folder")
	repeats := fs.Int("n", 0, "number of reports to sample")
	pos, err := parseArgs(fs, args, "transcript")
	if err != nil {
		return err
	}

	gen, err := a.reportGenerator(ctx, orDefault(*outDir, a.cfg.Paths.Reports))
	if err != nil {
		return err
	}
	res, err := gen.Generate(ctx, report.Input{
		TranscriptPath:   pos[0],
		InstructionsPath: *instructions,
		MetadataPath:     *mdPath,
		Repeats:          *repeats,
	})
	if err != nil {
		return err
	}

	printSummary(res.Report)
	printf("Reports saved in %s\n", res.Dir)
	return nil
}

func factsCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("facts")
	outDir := fs.String("o", "", "output folder")
	pos, err := parseArgs(fs, args, "folder")
	if err != nil {
		return err
	}

	ext, err := a.factExtractor(ctx, orDefault(*outDir, a.cfg.Paths.Facts))
	if err != nil {
		return err
	}
	rep, err := ext.Extract(ctx, pos[0])
	if err != nil {
		return err
	}
	if rep.Submitted == 0 {
		printf("No reports found in %s\n", pos[0])
		return nil
	}
	printSummary(rep)
	return nil
}

func watchCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("watch")
	instructions := fs.String("i", "", "report instructions file")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	p, err := a.pipeline(ctx, *instructions, 0, false)
	if err != nil {
		return err
	}

	w, err := watcher.New(watcher.Config{
		Dir:             a.cfg.Paths.Inbox,
		Extensions:      audio.SupportedExtensions(),
		MaxConcurrent:   a.cfg.Performance.MaxConcurrent,
		SettleDelay:     a.cfg.Performance.SettleDelay,
		ProcessExisting: true,
	}, p.HandleInbox, a.log)
	if err != nil {
		return err
	}
	defer w.Stop()

	a.log.Info(ctx, "========================================")
	a.log.Info(ctx, "Interview pipeline is ready!")
	a.log.Info(ctx, "Monitoring: %s", filepath.Clean(a.cfg.Paths.Inbox))
	a.log.Info(ctx, "Reports: %s", a.cfg.Paths.Reports)
	a.log.Info(ctx, "Facts: %s", a.cfg.Paths.Facts)
	a.log.Info(ctx, "Press Ctrl+C to stop")
	a.log.Info(ctx, "========================================")

	err = w.Start(ctx)
	if ctx.Err() != nil {
		a.log.Info(ctx, "Shutting down gracefully...")
		return nil
	}
	return err
}

func printSummary(rep *batch.Report) {
	printf("%s\n", rep.Summary())
	for key, reason := range rep.Failed {
		printf("  failed %s: %s\n", key, reason)
	}
	for _, key := range rep.Missing {
		printf("  missing %s\n", key)
	}
	for _, path := range rep.RawPaths {
		printf("  raw output kept at %s\n", path)
	}
}
