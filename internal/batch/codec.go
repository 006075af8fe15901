package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/thedavidhackett/draft-two/internal/workitem"
)

type requestLine struct {
	CustomID string      `json:"custom_id"`
	Method   string      `json:"method"`
	URL      string      `json:"url"`
	Body     requestBody `json:"body"`
}

type requestBody struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// Encode serializes requests as JSONL, one request line per request.
func Encode(requests []Request, endpoint string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for _, r := range requests {
		line := requestLine{
			CustomID: string(r.CustomID),
			Method:   http.MethodPost,
			URL:      endpoint,
			Body: requestBody{
				Model:       r.Model,
				Messages:    r.Messages,
				Temperature: r.Temperature,
			},
		}
		if err := enc.Encode(line); err != nil {
			return nil, fmt.Errorf("encode request %s: %w", r.CustomID, err)
		}
	}
	return buf.Bytes(), nil
}

type resultLine struct {
	CustomID string          `json:"custom_id"`
	Response *resultResponse `json:"response"`
	Error    *resultError    `json:"error"`
}

type resultResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
}

type resultBody struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *resultError `json:"error"`
}

type resultError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *resultError) String() string {
	switch {
	case e.Code != "" && e.Message != "":
		return e.Code + ": " + e.Message
	case e.Message != "":
		return e.Message
	case e.Code != "":
		return e.Code
	}
	return "unspecified error"
}

// Line is the decode outcome of one output line: exactly one of Result or Err
// is set. A line with Err set is malformed and carries the raw text untouched.
type Line struct {
	Number int
	Raw    string
	Result *Result
	Err    error
}

func (l Line) Malformed() bool {
	return l.Result == nil
}

// DecodeLine parses one result line. Remote per-request failures decode to a
// Result with Err set; anything that does not fit the wire format is malformed.
func DecodeLine(number int, raw string) Line {
	line := Line{Number: number, Raw: raw}

	var rl resultLine
	if err := json.Unmarshal([]byte(raw), &rl); err != nil {
		line.Err = fmt.Errorf("invalid json: %w", err)
		return line
	}
	if rl.CustomID == "" {
		line.Err = fmt.Errorf("missing custom_id")
		return line
	}
	key := workitem.Key(rl.CustomID)

	if rl.Error != nil {
		line.Result = &Result{CustomID: key, Err: rl.Error.String()}
		return line
	}
	if rl.Response == nil || len(rl.Response.Body) == 0 {
		line.Err = fmt.Errorf("missing response body for %s", key)
		return line
	}

	var body resultBody
	if err := json.Unmarshal(rl.Response.Body, &body); err != nil {
		line.Err = fmt.Errorf("invalid response body for %s: %w", key, err)
		return line
	}

	if rl.Response.StatusCode >= 400 || body.Error != nil {
		detail := fmt.Sprintf("status %d", rl.Response.StatusCode)
		if body.Error != nil {
			detail = body.Error.String()
		}
		line.Result = &Result{CustomID: key, Err: detail}
		return line
	}

	if len(body.Choices) == 0 || body.Choices[0].Message.Content == nil {
		line.Err = fmt.Errorf("no message content for %s", key)
		return line
	}

	line.Result = &Result{CustomID: key, Content: *body.Choices[0].Message.Content}
	return line
}

// splitLines splits a JSONL artifact into lines, dropping the trailing CR of
// CRLF input. Blank lines are kept so line numbers stay accurate.
func splitLines(content []byte) []string {
	lines := strings.Split(string(content), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
