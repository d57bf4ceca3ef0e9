//go:build integration

package itest

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// fixtureFile creates a named fixture in a per-test temp dir.
// ".mp4" names get a short tone over a black frame, anything else is plain text.
func fixtureFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if filepath.Ext(name) != ".mp4" {
		if err := os.WriteFile(path, []byte("not media"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		return path
	}
	ff := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi", "-i", "color=c=black:s=320x240:d=3",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=3",
		"-shortest",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		path,
	)
	if b, err := ff.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
	return path
}

// speechFixture renders text with espeak-ng and muxes it under a black video.
func speechFixture(t *testing.T, text string, seconds string) string {
	t.Helper()
	tmp := t.TempDir()
	wav := filepath.Join(tmp, "speech.wav")
	if b, err := exec.Command("espeak-ng", "-w", wav, text).CombinedOutput(); err != nil {
		t.Fatalf("espeak-ng failed: %v\n%s", err, string(b))
	}
	in := filepath.Join(tmp, "input.mp4")
	ff := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", "color=c=black:s=1280x720:d="+seconds,
		"-i", wav,
		"-shortest",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		in,
	)
	if b, err := ff.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
	return in
}
