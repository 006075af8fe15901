package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/thedavidhackett/draft-two/internal/audio"
	"github.com/thedavidhackett/draft-two/internal/batch"
	"github.com/thedavidhackett/draft-two/internal/config"
	"github.com/thedavidhackett/draft-two/internal/facts"
	"github.com/thedavidhackett/draft-two/internal/fanout"
	"github.com/thedavidhackett/draft-two/internal/jobstore"
	"github.com/thedavidhackett/draft-two/internal/logger"
	"github.com/thedavidhackett/draft-two/internal/metadata"
	"github.com/thedavidhackett/draft-two/internal/openai"
	"github.com/thedavidhackett/draft-two/internal/processor"
	"github.com/thedavidhackett/draft-two/internal/report"
	"github.com/thedavidhackett/draft-two/internal/telemetry"
	"github.com/thedavidhackett/draft-two/internal/transcribe"
	"github.com/thedavidhackett/draft-two/pkg/executor"
)

const serviceName = "draft-two"

// app holds the loaded configuration and builds each stage on demand, so a
// command only requires the credentials its stages use.
type app struct {
	cfg    *config.Config
	log    logger.Logger
	exec   executor.Executor
	tracer trace.Tracer
	runner *batch.Runner

	closers []func(ctx context.Context) error
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log := logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format)

	tracer, shutdown, err := telemetry.InitTracer(serviceName, cfg.Telemetry)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		log:     log,
		exec:    executor.New(),
		tracer:  tracer,
		closers: []func(context.Context) error{shutdown},
	}, nil
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn(ctx, "Shutdown: %v", err)
		}
	}
	_ = a.log.Sync()
}

func (a *app) audioExtractor() processor.AudioExtractor {
	return audio.New(a.exec, audio.Config{
		FFmpegPath: a.cfg.FFmpeg.BinaryPath,
		AudioCodec: a.cfg.FFmpeg.AudioCodec,
		Quality:    a.cfg.FFmpeg.Quality,
	}, a.log)
}

func (a *app) transcriber() (*transcribe.Stage, error) {
	tc := a.cfg.Transcription

	var backend transcribe.Transcriber
	switch tc.Backend {
	case "gemini":
		if err := a.cfg.RequireGeminiKeys(); err != nil {
			return nil, err
		}
		backend = transcribe.NewGemini(a.cfg.Gemini.APIKeys, a.cfg.Gemini.Model, tc.Diarize, a.log)
	case "local":
		backend = transcribe.NewLocal(a.exec, transcribe.LocalConfig{
			BinaryPath: a.cfg.Whisper.BinaryPath,
			ModelPath:  a.cfg.Whisper.ModelPath,
			FFmpegPath: a.cfg.FFmpeg.BinaryPath,
			Language:   a.cfg.Whisper.Language,
			Prompt:     a.cfg.Whisper.Prompt,
			Threads:    a.cfg.Whisper.Threads,
			TempDir:    a.cfg.Paths.Temp,
		}, a.log)
	default:
		if err := a.cfg.RequireOpenAIKey(); err != nil {
			return nil, err
		}
		client := openai.New(a.cfg.OpenAI.APIKey, tc.BaseURL, a.log, openai.WithTimeout(tc.Timeout))
		backend = transcribe.NewOpenAI(client, openai.TranscriptionOptions{
			Model:    tc.Model,
			Language: tc.Language,
			Diarize:  tc.Diarize,
		})
	}

	backend = transcribe.WithBreaker(backend, tc.Backend, transcribe.BreakerConfig{}, a.log)
	return transcribe.NewStage(backend, fanout.Config{
		MaxInFlight:       tc.MaxInFlight,
		RequestsPerSecond: tc.RequestsPerSecond,
	}, a.log), nil
}

// batchRunner wires the OpenAI batch API, the job store and the tracer.
func (a *app) batchRunner(ctx context.Context) (*batch.Runner, error) {
	if a.runner != nil {
		return a.runner, nil
	}
	if err := a.cfg.RequireOpenAIKey(); err != nil {
		return nil, err
	}
	client := openai.New(a.cfg.OpenAI.APIKey, a.cfg.OpenAI.BaseURL, a.log, openai.WithTimeout(a.cfg.OpenAI.Timeout))

	store, err := a.jobStore(ctx)
	if err != nil {
		return nil, err
	}

	bc := a.cfg.Batch
	a.runner = batch.NewRunner(client, store, batch.RunnerConfig{
		Endpoint:       bc.Endpoint,
		Window:         bc.CompletionWindow,
		SubmitAttempts: bc.SubmitAttempts,
		PollInterval:   bc.PollInterval,
		MaxWait:        bc.MaxWait,
	}, batch.RealClock(), a.tracer, a.log)
	return a.runner, nil
}

func (a *app) jobStore(ctx context.Context) (batch.JobStore, error) {
	sc := a.cfg.JobStore
	if sc.Backend != "redis" {
		return jobstore.NewFileStore(sc.Path), nil
	}

	client, err := jobstore.DialRedis(ctx, sc.RedisAddr)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	return jobstore.NewRedisStore(client, sc.RedisPrefix), nil
}

func (a *app) reportGenerator(ctx context.Context, outDir string) (*report.Generator, error) {
	runner, err := a.batchRunner(ctx)
	if err != nil {
		return nil, err
	}
	rc := a.cfg.Report
	return report.New(runner, report.Config{
		Model:       rc.Model,
		Temperature: rc.Temperature,
		Repeats:     rc.Repeats,
		OutDir:      outDir,
		MetadataDir: a.cfg.Paths.Metadata,
		Docx:        rc.Docx,
	}, a.log), nil
}

func (a *app) factExtractor(ctx context.Context, outDir string) (*facts.Extractor, error) {
	runner, err := a.batchRunner(ctx)
	if err != nil {
		return nil, err
	}
	return facts.New(runner, facts.Config{
		Model:        a.cfg.Facts.Model,
		Instructions: a.cfg.Facts.Instructions,
		OutDir:       outDir,
	}, a.log), nil
}

func (a *app) metadataForm() *metadata.Form {
	return metadata.NewForm(os.Stdin, os.Stdout, time.Now)
}

// pipeline builds the full stage sequencer. interactive controls whether
// the metadata prompt runs.
func (a *app) pipeline(ctx context.Context, instructions string, repeats int, interactive bool) (processor.Processor, error) {
	// fail on missing credentials before any slow stage runs
	if err := a.cfg.RequireOpenAIKey(); err != nil {
		return nil, err
	}

	stage, err := a.transcriber()
	if err != nil {
		return nil, err
	}
	reports, err := a.reportGenerator(ctx, a.cfg.Paths.Reports)
	if err != nil {
		return nil, err
	}
	extractor, err := a.factExtractor(ctx, a.cfg.Paths.Facts)
	if err != nil {
		return nil, err
	}

	stages := processor.Stages{
		Audio:       a.audioExtractor(),
		Transcriber: stage,
		Reports:     reports,
		Facts:       extractor,
	}
	if interactive {
		stages.Metadata = a.metadataForm()
	}

	if instructions == "" {
		instructions = a.cfg.Report.InstructionsPath
	}
	return processor.New(stages, processor.Options{
		Paths:            a.cfg.Paths,
		InstructionsPath: instructions,
		Repeats:          repeats,
	}, a.log), nil
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

func printf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format, args...)
}
