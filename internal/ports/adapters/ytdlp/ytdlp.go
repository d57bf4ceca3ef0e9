package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type Adapter struct {
	bin string
}

func New(bin string) *Adapter {
	if bin == "" {
		bin = "yt-dlp"
	}
	return &Adapter{bin: bin}
}

// IsURL reports whether s looks like a remote media URL rather than a path.
func IsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Download fetches a single video as mp4 into dir and returns its path.
func (a *Adapter) Download(ctx context.Context, rawURL, dir string) (string, error) {
	if !IsURL(rawURL) {
		return "", fmt.Errorf("yt-dlp: not an http(s) url: %q", rawURL)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, a.bin, buildArgs(rawURL, dir)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp: %w\n%s", err, stderr.String())
	}

	path := lastLine(stdout.String())
	if path == "" {
		return "", errors.New("yt-dlp: no output file reported")
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("yt-dlp output: %w", err)
	}
	return path, nil
}

func buildArgs(rawURL, dir string) []string {
	return []string{
		"--no-playlist",
		"--no-progress",
		"-f", "bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4]/b",
		"--merge-output-format", "mp4",
		"-o", filepath.Join(dir, "source.%(ext)s"),
		"--print", "after_move:filepath",
		rawURL,
	}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
