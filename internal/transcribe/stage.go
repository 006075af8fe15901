package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/thedavidhackett/draft-two/internal/apperr"
	"github.com/thedavidhackett/draft-two/internal/fanout"
	"github.com/thedavidhackett/draft-two/internal/logger"
	"github.com/thedavidhackett/draft-two/internal/workitem"
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
	".webm": true,
}

// Stage transcribes an audio file into the transcripts folder, optionally
// sampling the same recording several times.
type Stage struct {
	transcriber Transcriber
	fanout      fanout.Config
	logger      logger.Logger
}

func NewStage(t Transcriber, cfg fanout.Config, log logger.Logger) *Stage {
	return &Stage{transcriber: t, fanout: cfg, logger: log}
}

// Run writes <name>.txt, or <name>_<i>.txt (1-based) for each successful
// sample when repeats > 1. It fails only if every sample failed.
func (s *Stage) Run(ctx context.Context, audioPath, name, outDir string, repeats int) ([]string, error) {
	info, err := os.Stat(audioPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.Newf(apperr.CodeNotFound, "audio file not found: %s", audioPath).
			WithHint("Run extract-audio first or check the path")
	}
	if err != nil {
		return nil, fmt.Errorf("stat audio: %w", err)
	}
	if info.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(audioPath))] {
		return nil, apperr.Newf(apperr.CodeValidation, "unsupported audio file: %s", audioPath).
			WithHint("Provide an .mp3, .wav, .m4a, .flac, .ogg or .webm file")
	}

	key := workitem.Key(name)
	if name == "" {
		key = workitem.KeyFromFilename(audioPath)
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	audio := Audio{Name: filepath.Base(audioPath), Data: data, Path: audioPath}
	s.logger.Info(ctx, "Transcribing %s (%d bytes)", audioPath, len(data))

	if repeats <= 1 {
		t, err := s.transcriber.Transcribe(ctx, audio)
		if err != nil {
			return nil, fmt.Errorf("transcribe %s: %w", audio.Name, err)
		}
		path, err := s.write(outDir, string(key), t)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	return s.runRepeated(ctx, audio, key, outDir, repeats)
}

func (s *Stage) runRepeated(ctx context.Context, audio Audio, key workitem.Key, outDir string, repeats int) ([]string, error) {
	call := func(ctx context.Context, index int, payload []byte) (Transcript, error) {
		a := audio
		a.Data = payload
		return s.transcriber.Transcribe(ctx, a)
	}

	outcomes, err := fanout.New(call, s.fanout, s.logger).InvokeMany(ctx, audio.Data, repeats)
	if err != nil {
		return nil, err
	}

	var paths []string
	var firstErr error
	for _, o := range outcomes {
		n := o.Index + 1
		if o.Err != nil {
			s.logger.Error(ctx, "Transcription %d of %d for %s failed: %v", n, repeats, key, o.Err)
			if firstErr == nil {
				firstErr = o.Err
			}
			continue
		}
		path, err := s.write(outDir, fmt.Sprintf("%s_%d", key, n), o.Value)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("all %d transcriptions of %s failed: %w", repeats, key, firstErr)
	}
	s.logger.Info(ctx, "Saved %d of %d transcriptions of %s", len(paths), repeats, key)
	return paths, nil
}

func (s *Stage) write(outDir, base string, t Transcript) (string, error) {
	path := filepath.Join(outDir, base+".txt")
	if err := os.WriteFile(path, []byte(Render(t)), 0644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}
