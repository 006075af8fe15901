package config

import (
	"fmt"
	"time"
)

type Config struct {
	OpenAI        OpenAIConfig        `yaml:"openai"`
	Batch         BatchConfig         `yaml:"batch"`
	Report        ReportConfig        `yaml:"report"`
	Facts         FactsConfig         `yaml:"facts"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Gemini        GeminiConfig        `yaml:"gemini"`
	Whisper       WhisperConfig       `yaml:"whisper"`
	FFmpeg        FFmpegConfig        `yaml:"ffmpeg"`
	Paths         PathsConfig         `yaml:"paths"`
	JobStore      JobStoreConfig      `yaml:"job_store"`
	Logging       LoggingConfig       `yaml:"logging"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
	Performance   PerformanceConfig   `yaml:"performance"`
}

type OpenAIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// APIKey is read from OPENAI_API_KEY, never from the YAML file.
	APIKey string `yaml:"-"`
}

type BatchConfig struct {
	PollInterval     time.Duration `yaml:"poll_interval"`
	MaxWait          time.Duration `yaml:"max_wait"`
	Endpoint         string        `yaml:"endpoint"`
	CompletionWindow string        `yaml:"completion_window"`
	SubmitAttempts   int           `yaml:"submit_attempts"`
}

type ReportConfig struct {
	Model            string   `yaml:"model"`
	Temperature      *float64 `yaml:"temperature"`
	Repeats          int      `yaml:"repeats"`
	InstructionsPath string   `yaml:"instructions_path"`
	Docx             bool     `yaml:"docx"`
}

type FactsConfig struct {
	Model        string `yaml:"model"`
	Instructions string `yaml:"instructions"`
}

type TranscriptionConfig struct {
	Backend           string        `yaml:"backend"` // openai, gemini or local
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	Language          string        `yaml:"language"`
	Diarize           bool          `yaml:"diarize"`
	Repeats           int           `yaml:"repeats"`
	MaxInFlight       int           `yaml:"max_in_flight"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
}

type GeminiConfig struct {
	Model string `yaml:"model"`
	// APIKeys is read from GEMINI_API_KEYS (comma separated).
	APIKeys []string `yaml:"-"`
}

type WhisperConfig struct {
	ModelPath  string `yaml:"model_path"`
	BinaryPath string `yaml:"binary_path"`
	Language   string `yaml:"language"`
	Prompt     string `yaml:"prompt"`
	Threads    int    `yaml:"threads"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	AudioCodec string `yaml:"audio_codec"`
	Quality    string `yaml:"quality"`
}

type PathsConfig struct {
	Audio       string `yaml:"audio"`
	Transcripts string `yaml:"transcripts"`
	Metadata    string `yaml:"metadata"`
	Reports     string `yaml:"reports"`
	Facts       string `yaml:"facts"`
	Inbox       string `yaml:"inbox"`
	Archived    string `yaml:"archived"`
	Temp        string `yaml:"temp"`
}

type JobStoreConfig struct {
	Backend     string `yaml:"backend"` // file or redis
	Path        string `yaml:"path"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TelemetryConfig struct {
	Exporter string `yaml:"exporter"` // none, stdout or otlp
	Endpoint string `yaml:"endpoint"`
}

type PerformanceConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent"`
	SettleDelay   time.Duration `yaml:"settle_delay"`
}

// Validate checks enumerated values and fills defaults for everything unset.
func (c *Config) Validate() error {
	switch c.Transcription.Backend {
	case "":
		c.Transcription.Backend = "openai"
	case "openai", "gemini", "local":
	default:
		return fmt.Errorf("transcription.backend must be one of openai, gemini, local (got %q)", c.Transcription.Backend)
	}
	if c.Transcription.Backend == "local" {
		if c.Whisper.ModelPath == "" {
			return fmt.Errorf("whisper.model_path is required for the local backend")
		}
		if c.Whisper.BinaryPath == "" {
			return fmt.Errorf("whisper.binary_path is required for the local backend")
		}
	}

	switch c.JobStore.Backend {
	case "":
		c.JobStore.Backend = "file"
	case "file":
	case "redis":
		if c.JobStore.RedisAddr == "" {
			return fmt.Errorf("job_store.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("job_store.backend must be file or redis (got %q)", c.JobStore.Backend)
	}

	switch c.Telemetry.Exporter {
	case "":
		c.Telemetry.Exporter = "none"
	case "none", "stdout", "otlp":
	default:
		return fmt.Errorf("telemetry.exporter must be none, stdout or otlp (got %q)", c.Telemetry.Exporter)
	}

	if c.Batch.PollInterval < 0 || c.Batch.MaxWait < 0 {
		return fmt.Errorf("batch.poll_interval and batch.max_wait must not be negative")
	}
	if c.Report.Repeats < 0 || c.Transcription.Repeats < 0 {
		return fmt.Errorf("repeats must not be negative")
	}

	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.Timeout == 0 {
		c.OpenAI.Timeout = 2 * time.Minute
	}

	if c.Batch.PollInterval == 0 {
		c.Batch.PollInterval = 30 * time.Second
	}
	if c.Batch.Endpoint == "" {
		c.Batch.Endpoint = "/v1/chat/completions"
	}
	if c.Batch.CompletionWindow == "" {
		c.Batch.CompletionWindow = "24h"
	}
	if c.Batch.SubmitAttempts == 0 {
		c.Batch.SubmitAttempts = 3
	}

	if c.Report.Model == "" {
		c.Report.Model = "gpt-4-turbo"
	}
	if c.Report.Temperature == nil {
		zero := 0.0
		c.Report.Temperature = &zero
	}
	if c.Report.Repeats == 0 {
		c.Report.Repeats = 5
	}
	if c.Report.InstructionsPath == "" {
		c.Report.InstructionsPath = "data/raw/instructions.txt"
	}

	if c.Facts.Model == "" {
		c.Facts.Model = "gpt-5.2"
	}
	if c.Facts.Instructions == "" {
		c.Facts.Instructions = "Please breakdown the following report into independent facts. Write exactly one fact per line."
	}

	if c.Transcription.BaseURL == "" {
		c.Transcription.BaseURL = c.OpenAI.BaseURL
	}
	if c.Transcription.Model == "" {
		if c.Transcription.Diarize {
			c.Transcription.Model = "gpt-4o-transcribe-diarize"
		} else {
			c.Transcription.Model = "whisper-1"
		}
	}
	if c.Transcription.Repeats == 0 {
		c.Transcription.Repeats = 1
	}
	if c.Transcription.MaxInFlight == 0 {
		c.Transcription.MaxInFlight = 4
	}
	if c.Transcription.Timeout == 0 {
		c.Transcription.Timeout = 10 * time.Minute
	}

	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 8
	}
	if c.FFmpeg.BinaryPath == "" {
		c.FFmpeg.BinaryPath = "ffmpeg"
	}
	if c.FFmpeg.AudioCodec == "" {
		c.FFmpeg.AudioCodec = "libmp3lame"
	}
	if c.FFmpeg.Quality == "" {
		c.FFmpeg.Quality = "2"
	}

	c.Paths.applyDefaults()

	if c.JobStore.Path == "" {
		c.JobStore.Path = "data/jobs.yaml"
	}
	if c.JobStore.RedisPrefix == "" {
		c.JobStore.RedisPrefix = "draft-two:jobs:"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = "localhost:4317"
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}
	if c.Performance.SettleDelay == 0 {
		c.Performance.SettleDelay = 500 * time.Millisecond
	}

	return nil
}

func (p *PathsConfig) applyDefaults() {
	defaults := []struct {
		field *string
		value string
	}{
		{&p.Audio, "data/audio"},
		{&p.Transcripts, "data/text_files"},
		{&p.Metadata, "data/metadata"},
		{&p.Reports, "data/ai_police_reports"},
		{&p.Facts, "data/atomic_facts"},
		{&p.Inbox, "data/inbox"},
		{&p.Archived, "data/archived"},
		{&p.Temp, "data/temp"},
	}
	for _, d := range defaults {
		if *d.field == "" {
			*d.field = d.value
		}
	}
}
