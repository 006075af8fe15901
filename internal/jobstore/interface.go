package jobstore

import "context"

// Store records the remote job id of an in-flight batch by run key so an
// interrupted process resumes polling instead of resubmitting.
type Store interface {
	Save(ctx context.Context, runKey, jobID string) error
	// Load returns found=false when no job is recorded for runKey.
	Load(ctx context.Context, runKey string) (jobID string, found bool, err error)
	Delete(ctx context.Context, runKey string) error
}
