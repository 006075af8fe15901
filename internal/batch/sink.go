package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thedavidhackett/draft-two/internal/workitem"
)

// DirSink writes each result to <Dir>/<key><Ext>, encoded by Encode.
type DirSink struct {
	Dir    string
	Ext    string
	Encode func(content string) ([]byte, error)
}

func NewTextSink(dir string) *DirSink {
	return &DirSink{Dir: dir, Ext: ".txt"}
}

func (s *DirSink) WriteResult(ctx context.Context, key workitem.Key, content string) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}

	data := []byte(content)
	if s.Encode != nil {
		var err error
		if data, err = s.Encode(content); err != nil {
			return "", fmt.Errorf("encode %s: %w", key, err)
		}
	}

	return s.write(string(key)+s.Ext, data)
}

func (s *DirSink) WriteRaw(ctx context.Context, name string, data []byte) (string, error) {
	return s.write(name, data)
}

func (s *DirSink) write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
