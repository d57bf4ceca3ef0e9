//go:build integration

package itest

import (
	"errors"
	"os"
	"path/filepath"
)

// findRepoRoot walks up from the working directory to the directory that
// holds go.mod and cmd/recut.
func findRepoRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for dir := wd; ; {
		if isRepoRoot(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not locate repo root from " + wd)
		}
		dir = parent
	}
}

func isRepoRoot(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err != nil {
		return false
	}
	fi, err := os.Stat(filepath.Join(dir, "cmd", "recut"))
	return err == nil && fi.IsDir()
}
