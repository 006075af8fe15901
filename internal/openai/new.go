package openai

import (
	"net/http"
	"strings"
	"time"

	"github.com/thedavidhackett/draft-two/internal/logger"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// Client talks to the OpenAI REST API: file upload, batch jobs and audio
// transcription. It is safe for concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  logger.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

func New(apiKey, baseURL string, log logger.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
		logger:  log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
