package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/thedavidhackett/draft-two/internal/apperr"
	"github.com/thedavidhackett/draft-two/internal/workitem"
)

var videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".mkv": true, ".webm": true}

// SupportedExtensions lists the local file types Extract accepts.
func SupportedExtensions() []string {
	exts := []string{".mp3"}
	for ext := range videoExtensions {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

func (e *implExtractor) Extract(ctx context.Context, source, name, outDir string) (string, error) {
	if name != "" {
		if err := workitem.Key(name).Validate(); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	if IsYouTubeURL(source) {
		return e.fromYouTube(ctx, source, name, outDir)
	}

	info, err := os.Stat(source)
	if errors.Is(err, fs.ErrNotExist) {
		return "", apperr.Newf(apperr.CodeNotFound, "source not found: %s", source).
			WithHint("Provide a YouTube URL or a path to an existing .mp4 or .mp3 file")
	}
	if err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}
	if name == "" {
		name = string(workitem.KeyFromFilename(source))
	}
	outPath := filepath.Join(outDir, name+".mp3")

	ext := strings.ToLower(filepath.Ext(source))
	switch {
	case info.IsDir():
	case videoExtensions[ext]:
		return e.fromVideo(ctx, source, outPath)
	case ext == ".mp3":
		return e.copyAudio(ctx, source, outPath)
	}

	return "", apperr.Newf(apperr.CodeValidation, "unsupported source: %s", source).
		WithHint("Provide a YouTube URL or a path to an .mp4 or .mp3 file")
}

// IsYouTubeURL reports whether source is an http(s) URL on a YouTube host.
func IsYouTubeURL(source string) bool {
	u, err := url.Parse(source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return strings.HasSuffix(host, "youtube.com") || strings.HasSuffix(host, "youtu.be")
}

func (e *implExtractor) fromYouTube(ctx context.Context, source, name, outDir string) (string, error) {
	template := filepath.Join(outDir, "%(title)s.%(ext)s")
	if name != "" {
		template = filepath.Join(outDir, name+".%(ext)s")
	}

	e.logger.Info(ctx, "Downloading audio from %s", source)

	// --print after_move:filepath reports the final file once conversion is done
	args := []string{
		"-x",
		"--audio-format", "mp3",
		"-o", template,
		"--print", "after_move:filepath",
		"--no-simulate",
		source,
	}
	out, err := e.exec.Execute(ctx, e.cfg.YTDLPPath, args...)
	if err != nil {
		return "", fmt.Errorf("yt-dlp download: %w", err)
	}

	path := lastLine(out)
	if path == "" {
		if name == "" {
			return "", fmt.Errorf("yt-dlp did not report the downloaded file")
		}
		path = filepath.Join(outDir, name+".mp3")
	}

	e.logger.Info(ctx, "Audio downloaded from %s and saved as %s", source, path)
	return path, nil
}

func (e *implExtractor) fromVideo(ctx context.Context, source, outPath string) (string, error) {
	e.logger.Info(ctx, "Extracting audio: %s", source)

	// -vn: drop video, -q:a: VBR quality
	args := []string{
		"-i", source,
		"-vn",
		"-acodec", e.cfg.AudioCodec,
		"-q:a", e.cfg.Quality,
		"-y",
		outPath,
	}
	if _, err := e.exec.Execute(ctx, e.cfg.FFmpegPath, args...); err != nil {
		return "", fmt.Errorf("ffmpeg extract audio: %w", err)
	}

	e.logger.Info(ctx, "Audio extracted from %s and saved as %s", source, outPath)
	return outPath, nil
}

func (e *implExtractor) copyAudio(ctx context.Context, source, outPath string) (string, error) {
	srcAbs, _ := filepath.Abs(source)
	dstAbs, _ := filepath.Abs(outPath)
	if srcAbs == dstAbs {
		return outPath, nil
	}

	if err := copyFile(source, outPath); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	e.logger.Info(ctx, "Copied audio %s to %s", source, outPath)
	return outPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
