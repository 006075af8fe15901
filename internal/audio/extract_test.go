package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thedavidhackett/draft-two/internal/apperr"
	"github.com/thedavidhackett/draft-two/internal/logger"
)

type fakeExecutor struct {
	calls  [][]string
	stdout string
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.stdout, nil
}

func TestIsYouTubeURL(t *testing.T) {
	tests := map[string]bool{
		"https://www.youtube.com/watch?v=abc": true,
		"https://youtu.be/abc":                true,
		"http://m.youtube.com/watch?v=x":      true,
		"https://vimeo.com/123":               false,
		"youtube.com/watch?v=abc":             false,
		"data/video.mp4":                      false,
	}
	for in, want := range tests {
		if got := IsYouTubeURL(in); got != want {
			t.Errorf("IsYouTubeURL(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestExtract_YouTube(t *testing.T) {
	out := t.TempDir()
	exec := &fakeExecutor{stdout: filepath.Join(out, "case_1.mp3") + "\n"}

	path, err := New(exec, Config{}, logger.NewNop()).Extract(context.Background(), "https://youtu.be/abc", "case_1", out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "case_1.mp3"), path)

	require.Len(t, exec.calls, 1)
	assert.Equal(t, "yt-dlp", exec.calls[0][0])
	assert.Contains(t, exec.calls[0], filepath.Join(out, "case_1.%(ext)s"))
	assert.Equal(t, "https://youtu.be/abc", exec.calls[0][len(exec.calls[0])-1])
}

func TestExtract_YouTubeTitleTemplate(t *testing.T) {
	out := t.TempDir()
	exec := &fakeExecutor{stdout: "[info] done\n" + filepath.Join(out, "Some Title.mp3")}

	path, err := New(exec, Config{}, logger.NewNop()).Extract(context.Background(), "https://www.youtube.com/watch?v=x", "", out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "Some Title.mp3"), path)
	assert.Contains(t, exec.calls[0], filepath.Join(out, "%(title)s.%(ext)s"))
}

func TestExtract_Video(t *testing.T) {
	src := filepath.Join(t.TempDir(), "bodycam.MP4")
	require.NoError(t, os.WriteFile(src, []byte("video"), 0644))
	out := t.TempDir()
	exec := &fakeExecutor{}

	path, err := New(exec, Config{}, logger.NewNop()).Extract(context.Background(), src, "", out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "bodycam.mp3"), path)
	assert.Equal(t, []string{"ffmpeg", "-i", src, "-vn", "-acodec", "libmp3lame", "-q:a", "2", "-y", path}, exec.calls[0])
}

func TestExtract_CopiesMP3(t *testing.T) {
	src := filepath.Join(t.TempDir(), "call.mp3")
	require.NoError(t, os.WriteFile(src, []byte("ID3"), 0644))
	out := t.TempDir()
	exec := &fakeExecutor{}

	path, err := New(exec, Config{}, logger.NewNop()).Extract(context.Background(), src, "renamed", out)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ID3", string(data))
	assert.Empty(t, exec.calls)
}

func TestExtract_Errors(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "notes.pdf")
	require.NoError(t, os.WriteFile(doc, []byte("%PDF"), 0644))

	tests := []struct {
		name   string
		source string
		file   string
		code   apperr.Code
	}{
		{"missing", filepath.Join(dir, "gone.mp4"), "", apperr.CodeNotFound},
		{"unsupported", doc, "", apperr.CodeValidation},
		{"bad name", doc, "../x", apperr.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&fakeExecutor{}, Config{}, logger.NewNop()).Extract(context.Background(), tt.source, tt.file, t.TempDir())
			if !apperr.Is(err, tt.code) {
				t.Errorf("Extract() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestSupportedExtensions(t *testing.T) {
	assert.Equal(t, []string{".mkv", ".mov", ".mp3", ".mp4", ".webm"}, SupportedExtensions())
}
