package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/thedavidhackett/draft-two/internal/logger"
	"github.com/thedavidhackett/draft-two/pkg/executor"
)

type LocalConfig struct {
	BinaryPath string
	ModelPath  string
	FFmpegPath string
	Language   string
	Prompt     string
	Threads    int
	// TempDir holds per-call work dirs; empty uses the OS default.
	TempDir string
}

// LocalTranscriber runs a whisper.cpp binary. The audio is first converted
// to 16kHz mono WAV, the input format whisper.cpp expects.
type LocalTranscriber struct {
	exec   executor.Executor
	cfg    LocalConfig
	logger logger.Logger
}

func NewLocal(exec executor.Executor, cfg LocalConfig, log logger.Logger) *LocalTranscriber {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.Language == "" {
		cfg.Language = "auto"
	}
	if cfg.Threads == 0 {
		cfg.Threads = 4
	}
	return &LocalTranscriber{exec: exec, cfg: cfg, logger: log}
}

func (t *LocalTranscriber) Transcribe(ctx context.Context, audio Audio) (Transcript, error) {
	if t.cfg.TempDir != "" {
		if err := os.MkdirAll(t.cfg.TempDir, 0755); err != nil {
			return Transcript{}, fmt.Errorf("create temp dir: %w", err)
		}
	}
	// Isolated work dir per call so repeated samples do not collide.
	workDir, err := os.MkdirTemp(t.cfg.TempDir, "whisper-*")
	if err != nil {
		return Transcript{}, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	src := audio.Path
	if src == "" {
		src = filepath.Join(workDir, "input"+filepath.Ext(audio.Name))
		if err := os.WriteFile(src, audio.Data, 0644); err != nil {
			return Transcript{}, fmt.Errorf("write audio: %w", err)
		}
	}

	wavPath := filepath.Join(workDir, "audio.wav")
	// -ar 16000 -ac 1: 16kHz mono, pcm_s16le: 16-bit PCM
	ffArgs := []string{
		"-i", src,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		wavPath,
	}
	if _, err := t.exec.Execute(ctx, t.cfg.FFmpegPath, ffArgs...); err != nil {
		return Transcript{}, fmt.Errorf("ffmpeg convert to wav: %w", err)
	}

	t.logger.Info(ctx, "Starting local transcription with %d threads: %s", t.cfg.Threads, audio.Name)

	outputPrefix := filepath.Join(workDir, "transcript")
	args := []string{
		"-m", t.cfg.ModelPath,
		"-f", wavPath,
		"-osrt",
		"-l", t.cfg.Language,
		"-t", strconv.Itoa(t.cfg.Threads),
		"-ml", "0",
		"-bo", "5",
		"--output-file", outputPrefix,
	}
	if t.cfg.Prompt != "" {
		args = append(args, "--prompt", t.cfg.Prompt)
	}
	if _, err := t.exec.Execute(ctx, t.cfg.BinaryPath, args...); err != nil {
		return Transcript{}, fmt.Errorf("whisper transcribe: %w", err)
	}

	srt, err := os.ReadFile(outputPrefix + ".srt")
	if err != nil {
		return Transcript{}, fmt.Errorf("read whisper output: %w", err)
	}
	segments, err := parseSRT(string(srt))
	if err != nil {
		return Transcript{}, fmt.Errorf("parse whisper output: %w", err)
	}

	t.logger.Info(ctx, "Local transcription completed: %s (%d segments)", audio.Name, len(segments))
	return Transcript{Segments: segments}, nil
}
