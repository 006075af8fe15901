package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/thedavidhackett/draft-two/internal/apperr"
	"github.com/thedavidhackett/draft-two/internal/logger"
	"github.com/thedavidhackett/draft-two/internal/workitem"
)

const snippetLen = 120

// Report describes what a demux pass recovered from a completed job.
type Report struct {
	JobID     string
	Submitted int
	// Written maps each recovered key to the artifact written for it.
	Written    map[workitem.Key]string
	Failed     map[workitem.Key]string
	Malformed  []Line
	Unknown    []workitem.Key
	Duplicates []workitem.Key
	Missing    []workitem.Key
	RawPaths   []string
}

func newReport(jobID string, submitted int) *Report {
	return &Report{
		JobID:     jobID,
		Submitted: submitted,
		Written:   make(map[workitem.Key]string),
		Failed:    make(map[workitem.Key]string),
	}
}

// Recovered is the number of submitted requests with a written result.
func (r *Report) Recovered() int {
	return len(r.Written)
}

// Summary is the one-line "N of M" account of the pass.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d of %d items recovered from batch job %s (%d failed remotely, %d malformed lines, %d missing)",
		r.Recovered(), r.Submitted, r.JobID, len(r.Failed), len(r.Malformed), len(r.Missing))
}

// Partial returns a PARTIAL_PARSE error when some submitted requests produced
// no artifact, nil otherwise. It is informational: the written artifacts stand.
func (r *Report) Partial() error {
	if r.Recovered() >= r.Submitted {
		return nil
	}
	err := apperr.New(apperr.CodePartialParse, r.Summary())
	if len(r.RawPaths) > 0 {
		err = err.WithHint("Raw output preserved at " + strings.Join(r.RawPaths, ", "))
	}
	return err
}

// fatal reports conditions that must fail the run: results for keys that were
// never submitted, or nothing recovered at all.
func (r *Report) fatal() error {
	if len(r.Unknown) > 0 {
		keys := make([]string, len(r.Unknown))
		for i, k := range r.Unknown {
			keys[i] = string(k)
		}
		return apperr.Newf(apperr.CodeUnknownKey,
			"batch job %s returned results for keys that were not submitted: %s", r.JobID, strings.Join(keys, ", "))
	}
	if r.Submitted > 0 && r.Recovered() == 0 {
		return r.Partial()
	}
	return nil
}

// Demuxer splits a completed job's output by correlation key.
type Demuxer struct {
	svc    FileGetter
	logger logger.Logger
}

func NewDemuxer(svc FileGetter, log logger.Logger) *Demuxer {
	return &Demuxer{svc: svc, logger: log}
}

// Demux fetches the job output, decodes each line independently and writes one
// artifact per known key through sink. Malformed lines are collected and the
// artifact containing them is preserved verbatim. The per-request error file,
// when the job has one, is read the same way to account for remote failures.
func (d *Demuxer) Demux(ctx context.Context, job Job, requests []Request, sink Sink) (*Report, error) {
	if job.Status != StatusCompleted {
		return nil, apperr.Newf(apperr.CodeValidation, "batch job %s is %s, not completed", job.ID, job.Status)
	}
	if job.OutputFileID == "" {
		err := apperr.Newf(apperr.CodeMissingOutput, "batch job %s completed without an output file", job.ID)
		if job.ErrorFileID != "" {
			err = err.WithHint("Per-request errors are in file " + job.ErrorFileID)
		}
		return nil, err
	}

	report := newReport(job.ID, len(requests))
	pass := &demuxPass{
		ctx:    ctx,
		report: report,
		sink:   sink,
		logger: d.logger,
		known:  make(map[workitem.Key]bool, len(requests)),
		seen:   make(map[workitem.Key]bool, len(requests)),
	}
	for _, r := range requests {
		pass.known[r.CustomID] = true
	}

	d.logger.Info(ctx, "Retrieving results from file ID: %s", job.OutputFileID)
	content, err := d.svc.GetFileContent(ctx, job.OutputFileID)
	if err != nil {
		return nil, fmt.Errorf("fetch output of batch job %s: %w", job.ID, err)
	}
	if err := pass.consume(content, "output", job.OutputFileID); err != nil {
		return report, err
	}

	if job.ErrorFileID != "" {
		errContent, err := d.svc.GetFileContent(ctx, job.ErrorFileID)
		if err != nil {
			d.logger.Warn(ctx, "Could not fetch error file %s of batch job %s: %v", job.ErrorFileID, job.ID, err)
		} else if err := pass.consume(errContent, "errors", job.ErrorFileID); err != nil {
			return report, err
		}
	}

	for _, r := range requests {
		if !pass.seen[r.CustomID] {
			report.Missing = append(report.Missing, r.CustomID)
		}
	}
	sort.Slice(report.Missing, func(i, j int) bool { return report.Missing[i] < report.Missing[j] })

	if report.Recovered() < report.Submitted {
		d.logger.Warn(ctx, "%s", report.Summary())
	} else {
		d.logger.Info(ctx, "%s", report.Summary())
	}

	return report, report.fatal()
}

type demuxPass struct {
	ctx    context.Context
	report *Report
	sink   Sink
	logger logger.Logger
	known  map[workitem.Key]bool
	seen   map[workitem.Key]bool
}

// consume writes every result line of one file. When a line is unparsable,
// or a result cannot be written, the whole file is also kept verbatim.
func (p *demuxPass) consume(content []byte, kind, fileID string) error {
	malformed := 0
	var writeErr error

	for i, raw := range splitLines(content) {
		if strings.TrimSpace(raw) == "" {
			continue
		}

		line := DecodeLine(i+1, raw)
		if line.Malformed() {
			malformed++
			p.report.Malformed = append(p.report.Malformed, line)
			p.logger.Warn(p.ctx, "Could not parse line %d of %s file %s (job %s): %v: %s",
				line.Number, kind, fileID, p.report.JobID, line.Err, snippet(raw))
			continue
		}

		res := *line.Result
		key := res.CustomID
		switch {
		case !p.known[key]:
			p.report.Unknown = append(p.report.Unknown, key)
			p.logger.Error(p.ctx, "Batch job %s returned a result for unknown key %q (line %d of %s file)",
				p.report.JobID, key, line.Number, kind)
			continue
		case p.seen[key]:
			p.report.Duplicates = append(p.report.Duplicates, key)
			p.logger.Warn(p.ctx, "Ignoring duplicate result for %q in batch job %s", key, p.report.JobID)
			continue
		}
		p.seen[key] = true

		if res.Failed() {
			p.report.Failed[key] = res.Err
			p.logger.Warn(p.ctx, "Request %s failed remotely: %s", key, res.Err)
			continue
		}

		path, err := p.sink.WriteResult(p.ctx, key, res.Content)
		if err != nil {
			writeErr = fmt.Errorf("write result %s: %w", key, err)
			break
		}
		p.report.Written[key] = path
		p.logger.Debug(p.ctx, "Saved result %s to %s", key, path)
	}

	if malformed > 0 || writeErr != nil {
		name := fmt.Sprintf("raw_error_%s_%s.jsonl", kind, p.report.JobID)
		path, err := p.sink.WriteRaw(p.ctx, name, content)
		if err != nil {
			return errors.Join(writeErr, fmt.Errorf("preserve raw %s file: %w", kind, err))
		}
		p.report.RawPaths = append(p.report.RawPaths, path)
		p.logger.Warn(p.ctx, "Raw %s content saved to %s (%d unparsable line(s))", kind, path, malformed)
	}

	return writeErr
}

func snippet(s string) string {
	if len(s) <= snippetLen {
		return s
	}
	cut := snippetLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
