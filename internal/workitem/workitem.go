package workitem

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/thedavidhackett/draft-two/internal/apperr"
)

// Key is the correlation key that links a submitted item to its result.
type Key string

// KeyFromFilename derives a key from a file name by dropping directory and extension.
func KeyFromFilename(name string) Key {
	base := filepath.Base(name)
	return Key(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Validate checks that the key can be used as a file name.
func (k Key) Validate() error {
	s := string(k)
	switch {
	case s == "":
		return apperr.New(apperr.CodeValidation, "empty correlation key")
	case s == "." || s == "..":
		return apperr.Newf(apperr.CodeValidation, "correlation key %q is not a valid file name", s)
	case strings.ContainsAny(s, `/\`+"\x00"):
		return apperr.Newf(apperr.CodeValidation, "correlation key %q contains a path separator", s)
	}
	return nil
}

func (k Key) String() string {
	return string(k)
}

// Item is one processable unit: a key plus the text sent to the model.
type Item struct {
	Key     Key
	Payload string
	// Path is the source file, empty for items built in memory.
	Path string
}

// Scan lists dir and returns a lazy sequence of items, one per regular file
// whose extension matches ext (case-insensitive). File contents are read as the
// sequence is consumed; a read failure is yielded with the partially filled item
// so the caller can decide whether to skip it.
func Scan(dir, ext string) (iter.Seq2[Item, error], error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.Newf(apperr.CodeNotFound, "input folder not found: %s", dir).
				WithHint("Check the folder path; it is created by the previous pipeline stage")
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	ext = strings.ToLower(ext)
	seq := func(yield func(Item, error) bool) {
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			if strings.ToLower(filepath.Ext(e.Name())) != ext {
				continue
			}

			path := filepath.Join(dir, e.Name())
			item := Item{Key: KeyFromFilename(e.Name()), Path: path}

			data, err := os.ReadFile(path)
			if err != nil {
				if !yield(item, fmt.Errorf("read %s: %w", path, err)) {
					return
				}
				continue
			}
			item.Payload = string(data)

			if !yield(item, nil) {
				return
			}
		}
	}
	return seq, nil
}

// Collect drains seq, stopping at the first error.
func Collect(seq iter.Seq2[Item, error]) ([]Item, error) {
	var items []Item
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
