package openai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/thedavidhackett/draft-two/internal/apperr"
)

const maxErrorBody = 512

// statusError classifies a non-2xx response.
func statusError(op string, status int, body []byte) error {
	msg := fmt.Sprintf("%s: openai api error (status %d): %s", op, status, errorMessage(body))

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.New(apperr.CodeAuth, msg).
			WithHint("Check that OPENAI_API_KEY is valid and has access to the Batch API")
	case status == http.StatusNotFound:
		return apperr.New(apperr.CodeNotFound, msg)
	case status == http.StatusTooManyRequests || status >= 500:
		return apperr.New(apperr.CodeTransport, msg).WithRetryable(true)
	default:
		return apperr.New(apperr.CodeTransport, msg)
	}
}

// transportError classifies a failure to get any response at all.
func transportError(op string, err error) error {
	return apperr.New(apperr.CodeTransport, op).WithCause(err).WithRetryable(true).
		WithHint("Check your network connection and the openai.base_url setting")
}

func errorMessage(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
