package workitem

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/thedavidhackett/draft-two/internal/apperr"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestScan_FiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "alpha.txt", "first report")
	writeFile(t, dir, "beta.TXT", "second report")
	writeFile(t, dir, "notes.md", "ignored")
	writeFile(t, dir, ".hidden.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0755))

	seq, err := Scan(dir, ".txt")
	require.NoError(t, err)

	items, err := Collect(seq)
	require.NoError(t, err)

	got := map[Key]string{}
	for _, it := range items {
		got[it.Key] = it.Payload
	}
	assert.Equal(t, map[Key]string{"alpha": "first report", "beta": "second report"}, got)
}

func TestScan_MissingDirectory(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"), ".txt")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	assert.NotEmpty(t, apperr.HintOf(err))
}

func TestScan_EmptyDirectoryIsNotAnError(t *testing.T) {
	seq, err := Scan(t.TempDir(), ".txt")
	require.NoError(t, err)

	items, err := Collect(seq)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestScan_StopsWhenConsumerStops(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		writeFile(t, dir, fmt.Sprintf("r%d.txt", i), "x")
	}

	seq, err := Scan(dir, ".txt")
	require.NoError(t, err)

	n := 0
	for range seq {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestKeyFromFilename(t *testing.T) {
	tests := []struct {
		in   string
		want Key
	}{
		{"report.txt", "report"},
		{"/tmp/a/b/interview_report_1.txt", "interview_report_1"},
		{"archive.tar.gz", "archive.tar"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KeyFromFilename(tt.in), tt.in)
	}
}

func TestKeyValidate(t *testing.T) {
	assert.NoError(t, Key("interview_1").Validate())
	for _, bad := range []Key{"", ".", "..", "a/b", `a\b`} {
		assert.True(t, apperr.Is(bad.Validate(), apperr.CodeValidation), string(bad))
	}
}

func TestScan_KeysMatchFileNames(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		names := rapid.SliceOfNDistinct(
			rapid.StringMatching(`[a-z][a-z0-9_]{0,11}`), 1, 12, rapid.ID[string],
		).Draw(rt, "names")

		dir, err := os.MkdirTemp(t.TempDir(), "scan-*")
		if err != nil {
			rt.Fatalf("mkdir: %v", err)
		}
		for _, n := range names {
			if err := os.WriteFile(filepath.Join(dir, n+".txt"), []byte("payload "+n), 0644); err != nil {
				rt.Fatalf("write: %v", err)
			}
		}

		seq, err := Scan(dir, ".txt")
		if err != nil {
			rt.Fatalf("scan: %v", err)
		}
		items, err := Collect(seq)
		if err != nil {
			rt.Fatalf("collect: %v", err)
		}

		if len(items) != len(names) {
			rt.Fatalf("got %d items, want %d", len(items), len(names))
		}
		want := map[Key]bool{}
		for _, n := range names {
			want[Key(n)] = true
		}
		for _, it := range items {
			if !want[it.Key] {
				rt.Fatalf("unexpected key %q", it.Key)
			}
			if it.Payload != "payload "+string(it.Key) {
				rt.Fatalf("payload mismatch for %q", it.Key)
			}
			delete(want, it.Key)
		}
	})
}
