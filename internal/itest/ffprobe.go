//go:build integration

package itest

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

func ffprobe(path string, args ...string) (string, error) {
	full := append([]string{"-v", "error"}, args...)
	full = append(full, "-of", "default=noprint_wrappers=1:nokey=1", path)
	b, err := exec.Command("ffprobe", full...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}
	return strings.TrimSpace(string(b)), nil
}

func probeDurationSeconds(path string) (float64, error) {
	s, err := ffprobe(path, "-show_entries", "format=duration")
	if err != nil {
		return 0, err
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

// probeVideoSize reports the first video stream's width and height.
func probeVideoSize(path string) (w, h int, err error) {
	s, err := ffprobe(path, "-select_streams", "v:0", "-show_entries", "stream=width,height")
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected size output %q", s)
	}
	if w, err = strconv.Atoi(fields[0]); err != nil {
		return 0, 0, fmt.Errorf("parse width %q: %w", fields[0], err)
	}
	if h, err = strconv.Atoi(fields[1]); err != nil {
		return 0, 0, fmt.Errorf("parse height %q: %w", fields[1], err)
	}
	return w, h, nil
}
