package transcribe

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/thedavidhackett/draft-two/internal/apperr"
	"github.com/thedavidhackett/draft-two/internal/logger"
)

const (
	geminiPrompt = `Transcribe this interview recording verbatim. Return only the transcript text, without commentary or timestamps.`

	geminiDiarizePrompt = `Transcribe this interview recording verbatim. Put every speaker turn on its own line in the form "Speaker N: text", numbering speakers in order of first appearance. Return only the transcript.`
)

var reSpeakerLine = regexp.MustCompile(`^([^:]{1,40}):\s+(.+)$`)

// GenerateFunc sends contents to a Gemini model with one API key.
type GenerateFunc func(ctx context.Context, apiKey, model string, contents []*genai.Content) (string, error)

// GeminiTranscriber transcribes with a Gemini model, rotating through API
// keys when one is rate limited.
type GeminiTranscriber struct {
	mu         sync.Mutex
	apiKeys    []string
	currentKey int

	model    string
	diarize  bool
	generate GenerateFunc
	logger   logger.Logger
}

func NewGemini(apiKeys []string, model string, diarize bool, log logger.Logger) *GeminiTranscriber {
	return &GeminiTranscriber{
		apiKeys:  apiKeys,
		model:    model,
		diarize:  diarize,
		generate: generateContent,
		logger:   log,
	}
}

func (t *GeminiTranscriber) Transcribe(ctx context.Context, audio Audio) (Transcript, error) {
	if len(t.apiKeys) == 0 {
		return Transcript{}, apperr.New(apperr.CodeAuth, "no Gemini API keys configured").
			WithHint("Set GEMINI_API_KEYS to one or more comma separated keys")
	}

	prompt := geminiPrompt
	if t.diarize {
		prompt = geminiDiarizePrompt
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(audio.Data, audioMIMEType(audio.Name)),
		}, genai.RoleUser),
	}

	var lastErr error
	for range len(t.apiKeys) {
		idx, key := t.key()

		text, err := t.generate(ctx, key, t.model, contents)
		if err != nil {
			if isQuotaError(err) {
				t.logger.Warn(ctx, "Key %d rate limited, rotating...", idx+1)
				t.rotateKey(idx)
				lastErr = err
				continue
			}
			return Transcript{}, apperr.New(apperr.CodeTransport, "gemini transcribe "+audio.Name).WithCause(err)
		}

		return Transcript{Segments: t.parse(text)}, nil
	}

	return Transcript{}, apperr.New(apperr.CodeTransport, "all Gemini API keys exhausted").
		WithCause(lastErr).WithRetryable(true)
}

func (t *GeminiTranscriber) key() (int, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentKey, t.apiKeys[t.currentKey]
}

// rotateKey moves past idx unless another caller already rotated.
func (t *GeminiTranscriber) rotateKey(idx int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.currentKey == idx {
		t.currentKey = (t.currentKey + 1) % len(t.apiKeys)
	}
}

func (t *GeminiTranscriber) parse(text string) []Segment {
	var segments []Segment
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if t.diarize {
			if m := reSpeakerLine.FindStringSubmatch(line); m != nil {
				segments = append(segments, Segment{Speaker: strings.ToUpper(strings.TrimSpace(m[1])), Text: m[2]})
				continue
			}
		}
		segments = append(segments, Segment{Text: line})
	}
	return segments
}

func generateContent(ctx context.Context, apiKey, model string, contents []*genai.Content) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", err
	}

	if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		var text string
		for _, part := range result.Candidates[0].Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}
		return text, nil
	}

	return "", fmt.Errorf("empty response from Gemini")
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func audioMIMEType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	default:
		return "audio/mpeg"
	}
}
