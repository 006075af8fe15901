package batch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/thedavidhackett/draft-two/internal/apperr"
	"github.com/thedavidhackett/draft-two/internal/logger"
)

// Submitter uploads a serialized batch and creates the remote job for it.
type Submitter struct {
	svc      Service
	endpoint string
	window   string
	logger   logger.Logger
	newRunID func() string
}

func NewSubmitter(svc Service, endpoint, window string, log logger.Logger) *Submitter {
	return &Submitter{
		svc:      svc,
		endpoint: endpoint,
		window:   window,
		logger:   log,
		newRunID: uuid.NewString,
	}
}

// Submit is the only place a remote job identity is created. A failed call
// leaves nothing for the caller to reuse: a retry must call Submit again.
func (s *Submitter) Submit(ctx context.Context, requests []Request) (Job, error) {
	if len(requests) == 0 {
		return Job{}, apperr.New(apperr.CodeValidation, "no requests to submit")
	}

	data, err := Encode(requests, s.endpoint)
	if err != nil {
		return Job{}, fmt.Errorf("encode batch: %w", err)
	}

	runID := s.newRunID()
	s.logger.Info(ctx, "Uploading batch file with %d requests (run %s)", len(requests), runID)

	fileID, err := s.svc.CreateFile(ctx, "batch-"+runID+".jsonl", data)
	if err != nil {
		return Job{}, fmt.Errorf("upload batch file: %w", asTransport(err))
	}
	s.logger.Info(ctx, "File uploaded with ID: %s", fileID)

	job, err := s.svc.CreateJob(ctx, fileID, s.endpoint, s.window, map[string]string{"run_id": runID})
	if err != nil {
		s.logger.Warn(ctx, "Batch file %s was uploaded but job creation failed (run %s); the file will not be reused", fileID, runID)
		return Job{}, fmt.Errorf("create batch job: %w", asTransport(err))
	}
	if job.ID == "" {
		s.logger.Warn(ctx, "Service accepted batch file %s but returned no job id (run %s)", fileID, runID)
		return Job{}, apperr.New(apperr.CodeTransport, "create batch job: service returned no job id")
	}

	s.logger.Info(ctx, "Batch job created with ID: %s (status %s)", job.ID, job.Status)
	return job, nil
}

// asTransport classifies errors the service did not classify itself.
func asTransport(err error) error {
	if apperr.CodeOf(err) != "" {
		return err
	}
	return apperr.New(apperr.CodeTransport, "batch service call failed").WithCause(err).WithRetryable(true)
}
