package openai

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
)

// Transcribe sends one audio file to /audio/transcriptions and returns the
// segmented transcript.
func (c *Client) Transcribe(ctx context.Context, filename string, data []byte, opts TranscriptionOptions) (Transcription, error) {
	format := "verbose_json"
	if opts.Diarize {
		format = "diarized_json"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"model":           opts.Model,
		"response_format": format,
	}
	if opts.Language != "" {
		fields["language"] = opts.Language
	}
	if opts.Prompt != "" && !opts.Diarize {
		fields["prompt"] = opts.Prompt
	}
	if opts.Diarize {
		fields["chunking_strategy"] = "auto"
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return Transcription{}, fmt.Errorf("write %s field: %w", k, err)
		}
	}
	if !opts.Diarize {
		if err := w.WriteField("timestamp_granularities[]", "segment"); err != nil {
			return Transcription{}, fmt.Errorf("write granularity field: %w", err)
		}
	}

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return Transcription{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return Transcription{}, fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return Transcription{}, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return Transcription{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp transcriptionResponse
	if err := c.doJSON(ctx, "transcribe "+filename, req, &resp); err != nil {
		return Transcription{}, err
	}

	c.logger.Debug(ctx, "Transcribed %s: %d segments", filename, len(resp.Segments))
	return Transcription{Text: resp.Text, Language: resp.Language, Segments: resp.Segments}, nil
}
