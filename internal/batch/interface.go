package batch

import (
	"context"

	"github.com/thedavidhackett/draft-two/internal/workitem"
)

// Service is the remote asynchronous inference job service: upload, create,
// poll and fetch. internal/openai provides the HTTP implementation.
type Service interface {
	StatusGetter
	FileGetter
	CreateFile(ctx context.Context, name string, data []byte) (string, error)
	CreateJob(ctx context.Context, fileID, endpoint, window string, metadata map[string]string) (Job, error)
}

// StatusGetter is the part of Service the poller needs.
type StatusGetter interface {
	GetJob(ctx context.Context, jobID string) (Job, error)
}

// FileGetter is the part of Service the demultiplexer needs.
type FileGetter interface {
	GetFileContent(ctx context.Context, fileID string) ([]byte, error)
}

// Sink receives demultiplexed results, one artifact per correlation key.
type Sink interface {
	WriteResult(ctx context.Context, key workitem.Key, content string) (string, error)
	// WriteRaw preserves an unparsable output artifact verbatim.
	WriteRaw(ctx context.Context, name string, data []byte) (string, error)
}

// JobStore persists the remote job id of a run so an interrupted process can
// resume polling instead of resubmitting.
type JobStore interface {
	Save(ctx context.Context, runKey, jobID string) error
	Load(ctx context.Context, runKey string) (string, bool, error)
	Delete(ctx context.Context, runKey string) error
}
