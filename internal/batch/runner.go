package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/thedavidhackett/draft-two/internal/apperr"
	"github.com/thedavidhackett/draft-two/internal/logger"
)

const defaultSubmitRetryDelay = 5 * time.Second

type RunnerConfig struct {
	Endpoint         string
	Window           string
	SubmitAttempts   int
	SubmitRetryDelay time.Duration
	PollInterval     time.Duration
	MaxWait          time.Duration
}

// Run is one batch to drive to completion. Key names the run in the job
// store so an interrupted process resumes the same remote job.
type Run struct {
	Key      string
	Requests []Request
	Sink     Sink
}

// Runner chains submit, poll and demux for a single batch.
type Runner struct {
	store     JobStore
	submitter *Submitter
	poller    *Poller
	demuxer   *Demuxer
	cfg       RunnerConfig
	clock     Clock
	tracer    trace.Tracer
	logger    logger.Logger
}

func NewRunner(svc Service, store JobStore, cfg RunnerConfig, clock Clock, tracer trace.Tracer, log logger.Logger) *Runner {
	if cfg.SubmitAttempts < 1 {
		cfg.SubmitAttempts = 1
	}
	if cfg.SubmitRetryDelay <= 0 {
		cfg.SubmitRetryDelay = defaultSubmitRetryDelay
	}
	if clock == nil {
		clock = RealClock()
	}

	return &Runner{
		store:     store,
		submitter: NewSubmitter(svc, cfg.Endpoint, cfg.Window, log),
		poller:    NewPoller(svc, PollerConfig{Interval: cfg.PollInterval, MaxWait: cfg.MaxWait}, clock, log),
		demuxer:   NewDemuxer(svc, log),
		cfg:       cfg,
		clock:     clock,
		tracer:    tracer,
		logger:    log,
	}
}

// Run resumes the job recorded for run.Key or submits a new one, waits for it
// and writes its results. Failed and Cancelled jobs are returned as errors
// without demuxing. A timed out wait keeps the job id recorded.
func (r *Runner) Run(ctx context.Context, run Run) (report *Report, err error) {
	ctx, span := r.tracer.Start(ctx, "batch.run", trace.WithAttributes(
		attribute.String("batch.run_key", run.Key),
		attribute.Int("batch.requests", len(run.Requests)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	jobID, resumed, err := r.store.Load(ctx, run.Key)
	if err != nil {
		return nil, fmt.Errorf("load job id for %s: %w", run.Key, err)
	}

	if resumed {
		r.logger.Info(ctx, "Resuming batch job %s for %s", jobID, run.Key)
	} else if jobID, err = r.start(ctx, run); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("batch.job_id", jobID), attribute.Bool("batch.resumed", resumed))

	result, err := r.poll(ctx, jobID)
	if err != nil && resumed && apperr.Is(err, apperr.CodeNotFound) {
		// the recorded job is gone remotely; waiting on it can never succeed
		r.logger.Warn(ctx, "Recorded batch job %s for %s no longer exists, submitting a new one", jobID, run.Key)
		r.forget(ctx, run.Key)
		if jobID, err = r.start(ctx, run); err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.String("batch.job_id", jobID))
		result, err = r.poll(ctx, jobID)
	}
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			r.forget(ctx, run.Key)
			return nil, apperr.Newf(apperr.CodeNotFound, "batch job %s is unknown to the remote service", jobID).
				WithCause(err).
				WithHint("The recorded job id was cleared. Rerun the same command to submit a new job")
		}
		return nil, err
	}

	job := result.Job
	switch {
	case result.TimedOut:
		return nil, apperr.Newf(apperr.CodeTimedOut,
			"batch job %s still %s after %s", jobID, job.Status, r.cfg.MaxWait).
			WithHint("The job keeps running remotely. Run the same command again to resume waiting for it")
	case job.Status == StatusFailed:
		r.forget(ctx, run.Key)
		return nil, apperr.Newf(apperr.CodeRemoteJobFailed,
			"batch job %s failed (remote status %q)%s", jobID, job.RemoteStatus, remoteDetail(job)).
			WithHint("Check the request file and model name, then rerun to submit a new job")
	case job.Status == StatusCancelled:
		r.forget(ctx, run.Key)
		return nil, apperr.Newf(apperr.CodeRemoteJobCancelled, "batch job %s was cancelled%s", jobID, remoteDetail(job)).
			WithHint("Rerun to submit a new job")
	}

	report, err = r.demux(ctx, job, run)
	if err != nil && !demuxDone(err) {
		return report, err
	}
	r.forget(ctx, run.Key)
	return report, err
}

// start submits run and records the new job id.
func (r *Runner) start(ctx context.Context, run Run) (string, error) {
	job, err := r.submit(ctx, run)
	if err != nil {
		return "", err
	}
	if err := r.store.Save(ctx, run.Key, job.ID); err != nil {
		r.logger.Warn(ctx, "Could not record batch job %s for %s, an interrupted run will resubmit: %v", job.ID, run.Key, err)
	}
	return job.ID, nil
}

func (r *Runner) submit(ctx context.Context, run Run) (Job, error) {
	ctx, span := r.tracer.Start(ctx, "batch.submit")
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= r.cfg.SubmitAttempts; attempt++ {
		job, err := r.submitter.Submit(ctx, run.Requests)
		if err == nil {
			span.SetAttributes(attribute.Int("batch.submit_attempts", attempt))
			return job, nil
		}
		lastErr = err

		if !apperr.IsRetryable(err) || attempt == r.cfg.SubmitAttempts {
			break
		}
		r.logger.Warn(ctx, "Submit attempt %d/%d for %s failed, retrying in %s: %v",
			attempt, r.cfg.SubmitAttempts, run.Key, r.cfg.SubmitRetryDelay, err)
		if err := r.clock.Sleep(ctx, r.cfg.SubmitRetryDelay); err != nil {
			lastErr = err
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return Job{}, fmt.Errorf("submit batch %s: %w", run.Key, lastErr)
}

func (r *Runner) poll(ctx context.Context, jobID string) (PollResult, error) {
	ctx, span := r.tracer.Start(ctx, "batch.poll", trace.WithAttributes(attribute.String("batch.job_id", jobID)))
	defer span.End()

	result, err := r.poller.Wait(ctx, jobID)
	span.SetAttributes(
		attribute.Int("batch.poll_queries", result.Queries),
		attribute.String("batch.status", string(result.Job.Status)),
		attribute.Bool("batch.timed_out", result.TimedOut),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, fmt.Errorf("wait for batch job %s: %w", jobID, err)
	}
	return result, nil
}

func (r *Runner) demux(ctx context.Context, job Job, run Run) (*Report, error) {
	ctx, span := r.tracer.Start(ctx, "batch.demux", trace.WithAttributes(attribute.String("batch.job_id", job.ID)))
	defer span.End()

	report, err := r.demuxer.Demux(ctx, job, run.Requests, run.Sink)
	if report != nil {
		span.SetAttributes(
			attribute.Int("batch.recovered", report.Recovered()),
			attribute.Int("batch.malformed", len(report.Malformed)),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return report, err
}

// forget clears the recorded job id; the job is finished either way.
func (r *Runner) forget(ctx context.Context, key string) {
	if err := r.store.Delete(ctx, key); err != nil {
		r.logger.Warn(ctx, "Could not clear recorded batch job for %s: %v", key, err)
	}
}

// demuxDone reports whether a demux error still consumed the job output, so
// re-polling the same job would not recover more.
func demuxDone(err error) bool {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Code {
	case apperr.CodeUnknownKey, apperr.CodePartialParse, apperr.CodeMissingOutput:
		return true
	}
	return false
}

func remoteDetail(job Job) string {
	if len(job.Errors) == 0 {
		return ""
	}
	return ": " + strings.Join(job.Errors, "; ")
}
