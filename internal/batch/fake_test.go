package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/thedavidhackett/draft-two/internal/apperr"
	"github.com/thedavidhackett/draft-two/internal/workitem"
)

// fakeService scripts the remote job service: GetJob walks through statuses
// (the last one repeats), and files holds downloadable content by id.
type fakeService struct {
	mu sync.Mutex

	statuses  []Status
	statusErr map[int]error
	final     Job
	files     map[string][]byte

	createFileErrs []error
	createJobErrs  []error

	uploaded    [][]byte
	createFiles int
	createJobs  int
	getJobs     int
}

func newFakeService(statuses ...Status) *fakeService {
	return &fakeService{
		statuses:  statuses,
		statusErr: map[int]error{},
		files:     map[string][]byte{},
	}
}

func (f *fakeService) CreateFile(ctx context.Context, name string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createFiles++
	if n := f.createFiles - 1; n < len(f.createFileErrs) && f.createFileErrs[n] != nil {
		return "", f.createFileErrs[n]
	}
	f.uploaded = append(f.uploaded, data)
	return fmt.Sprintf("file-%d", f.createFiles), nil
}

func (f *fakeService) CreateJob(ctx context.Context, fileID, endpoint, window string, metadata map[string]string) (Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createJobs++
	if n := f.createJobs - 1; n < len(f.createJobErrs) && f.createJobErrs[n] != nil {
		return Job{}, f.createJobErrs[n]
	}
	return Job{ID: fmt.Sprintf("batch-%d", f.createJobs), Status: StatusQueued}, nil
}

func (f *fakeService) GetJob(ctx context.Context, id string) (Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.getJobs
	f.getJobs++
	if err := f.statusErr[n]; err != nil {
		return Job{}, err
	}

	status := f.statuses[len(f.statuses)-1]
	if n < len(f.statuses) {
		status = f.statuses[n]
	}
	job := Job{ID: id, Status: status}
	if status.Terminal() {
		job = f.final
		job.ID = id
		job.Status = status
	}
	return job, nil
}

func (f *fakeService) GetFileContent(ctx context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[fileID]
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "file %s not found", fileID)
	}
	return data, nil
}

// fakeClock advances only when Sleep is called.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

type memStore struct {
	ids     map[string]string
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{ids: map[string]string{}}
}

func (s *memStore) Save(ctx context.Context, runKey, jobID string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.ids[runKey] = jobID
	return nil
}

func (s *memStore) Load(ctx context.Context, runKey string) (string, bool, error) {
	id, ok := s.ids[runKey]
	return id, ok, nil
}

func (s *memStore) Delete(ctx context.Context, runKey string) error {
	delete(s.ids, runKey)
	return nil
}

// memSink records written results in memory.
type memSink struct {
	results map[workitem.Key]string
	raw     map[string][]byte
}

func newMemSink() *memSink {
	return &memSink{results: map[workitem.Key]string{}, raw: map[string][]byte{}}
}

func (s *memSink) WriteResult(ctx context.Context, key workitem.Key, content string) (string, error) {
	s.results[key] = content
	return string(key) + ".txt", nil
}

func (s *memSink) WriteRaw(ctx context.Context, name string, data []byte) (string, error) {
	s.raw[name] = data
	return name, nil
}

func okLine(key, content string) string {
	return fmt.Sprintf(`{"id":"r-%s","custom_id":%q,"response":{"status_code":200,"body":{"choices":[{"index":0,"message":{"role":"assistant","content":%q}}]}},"error":null}`,
		key, key, content)
}

func errLine(key, code, msg string) string {
	return fmt.Sprintf(`{"custom_id":%q,"response":null,"error":{"code":%q,"message":%q}}`, key, code, msg)
}

func requestsFor(keys ...string) []Request {
	reqs := make([]Request, len(keys))
	for i, k := range keys {
		reqs[i] = Request{CustomID: workitem.Key(k), Model: "gpt-4-turbo", Messages: []Message{{Role: "user", Content: k}}}
	}
	return reqs
}
