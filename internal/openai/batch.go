package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/thedavidhackett/draft-two/internal/batch"
)

var _ batch.Service = (*Client)(nil)

// CreateFile uploads a JSONL request file with purpose "batch".
func (c *Client) CreateFile(ctx context.Context, name string, data []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("purpose", "batch"); err != nil {
		return "", fmt.Errorf("write purpose field: %w", err)
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var file fileObject
	if err := c.doJSON(ctx, "upload file", req, &file); err != nil {
		return "", err
	}
	c.logger.Debug(ctx, "Uploaded %s (%d bytes) as %s", name, len(data), file.ID)
	return file.ID, nil
}

// CreateJob creates a batch over an uploaded request file.
func (c *Client) CreateJob(ctx context.Context, fileID, endpoint, window string, metadata map[string]string) (batch.Job, error) {
	body, err := json.Marshal(createBatchRequest{
		InputFileID:      fileID,
		Endpoint:         endpoint,
		CompletionWindow: window,
		Metadata:         metadata,
	})
	if err != nil {
		return batch.Job{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/batches", bytes.NewReader(body))
	if err != nil {
		return batch.Job{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var obj batchObject
	if err := c.doJSON(ctx, "create batch", req, &obj); err != nil {
		return batch.Job{}, err
	}
	return toJob(obj), nil
}

func (c *Client) GetJob(ctx context.Context, id string) (batch.Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/batches/"+url.PathEscape(id), nil)
	if err != nil {
		return batch.Job{}, err
	}

	var obj batchObject
	if err := c.doJSON(ctx, "get batch "+id, req, &obj); err != nil {
		return batch.Job{}, err
	}
	return toJob(obj), nil
}

func (c *Client) GetFileContent(ctx context.Context, fileID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files/"+url.PathEscape(fileID)+"/content", nil)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, "download file "+fileID, req)
}

// MapStatus folds the remote batch lifecycle onto the five local states.
func MapStatus(remote string) batch.Status {
	switch remote {
	case "validating":
		return batch.StatusQueued
	case "in_progress", "finalizing", "cancelling":
		return batch.StatusRunning
	case "completed":
		return batch.StatusCompleted
	case "failed", "expired":
		return batch.StatusFailed
	case "cancelled":
		return batch.StatusCancelled
	}
	// Unknown statuses keep the poller waiting.
	return batch.StatusRunning
}

func toJob(obj batchObject) batch.Job {
	job := batch.Job{
		ID:           obj.ID,
		Status:       MapStatus(obj.Status),
		RemoteStatus: obj.Status,
		OutputFileID: obj.OutputFileID,
		ErrorFileID:  obj.ErrorFileID,
		Counts: batch.Counts{
			Total:     obj.RequestCounts.Total,
			Completed: obj.RequestCounts.Completed,
			Failed:    obj.RequestCounts.Failed,
		},
	}
	if obj.Errors != nil {
		for _, e := range obj.Errors.Data {
			msg := e.Message
			if e.Code != "" {
				msg = e.Code + ": " + msg
			}
			if e.Line != nil {
				msg = fmt.Sprintf("%s (line %d)", msg, *e.Line)
			}
			job.Errors = append(job.Errors, msg)
		}
	}
	return job
}
