package batch

import "github.com/thedavidhackett/draft-two/internal/workitem"

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Counts mirrors the per-request progress a remote job reports.
type Counts struct {
	Total     int
	Completed int
	Failed    int
}

// Job is a remote batch job as last observed.
type Job struct {
	ID           string
	Status       Status
	RemoteStatus string
	OutputFileID string
	ErrorFileID  string
	Errors       []string
	Counts       Counts
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one independent inference request inside a batch.
type Request struct {
	CustomID    workitem.Key
	Model       string
	Messages    []Message
	Temperature *float64
}

// Result is one decoded result line: either Content or Err is meaningful.
type Result struct {
	CustomID workitem.Key
	Content  string
	Err      string
}

func (r Result) Failed() bool {
	return r.Err != ""
}
