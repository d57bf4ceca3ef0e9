//go:build integration

package itest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forPelevin/recut/internal/pipeline"
	"github.com/forPelevin/recut/internal/types"
)

func baseConfig(t *testing.T, mode types.Mode, in string) pipeline.Config {
	t.Helper()
	root := mustRepoRoot(t)
	cfg := pipeline.Config{
		Mode:              mode,
		Input:             in,
		OutDir:            filepath.Join(t.TempDir(), "out"),
		CacheDir:          filepath.Join(t.TempDir(), "cache"),
		FFmpegPath:        "ffmpeg",
		FFprobePath:       "ffprobe",
		WhisperBin:        filepath.Join(root, ".cache/bin/whisper-cli"),
		WhisperModel:      filepath.Join(root, ".cache/models/ggml-base.bin"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:   os.Getenv("OPENROUTER_MODEL"),
		OpenRouterBaseURL: os.Getenv("OPENROUTER_BASE_URL"),
	}
	if cfg.OpenRouterModel == "" {
		cfg.OpenRouterModel = "z-ai/glm-4.5-air:free"
	}
	if cfg.OpenRouterBaseURL == "" {
		cfg.OpenRouterBaseURL = "https://openrouter.ai"
	}
	return cfg
}

func manifestPath(t *testing.T, outDir string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(outDir, "*", "manifest.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	return matches[0]
}

func readManifest(t *testing.T, outDir string) types.Manifest {
	t.Helper()
	b, err := os.ReadFile(manifestPath(t, outDir))
	require.NoError(t, err)
	var m types.Manifest
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestE2E_Clean(t *testing.T) {
	in := speechFixture(t, "So um here is the key idea. Uh step one, do this. Darn, step two, measure results.", "12")
	cfg := baseConfig(t, types.ModeClean, in)
	cfg.Profanity = []string{"darn"}
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	require.NoError(t, pipeline.Run(ctx, cfg))

	m := readManifest(t, cfg.OutDir)
	require.NotEmpty(t, m.RunID)
	require.False(t, m.Fallback, m.FallbackReason)

	matches, err := filepath.Glob(filepath.Join(cfg.OutDir, "*", "enhanced.wav"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestE2E_Shorts(t *testing.T) {
	if os.Getenv("OPENROUTER_API_KEY") == "" {
		t.Skip("OPENROUTER_API_KEY is required for shorts")
	}
	in := speechFixture(t, "Here is the key idea. Step one: do this. Step two: measure results. This is important. Remember the key idea and measure twice.", "30")
	cfg := baseConfig(t, types.ModeShorts, in)
	cfg.ShortsCount = 1
	cfg.MinShort = 3 * time.Second
	cfg.MaxShort = 20 * time.Second
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()
	require.NoError(t, pipeline.Run(ctx, cfg))

	m := readManifest(t, cfg.OutDir)
	runDir := filepath.Dir(manifestPath(t, cfg.OutDir))
	require.NotEmpty(t, m.Clips)
	for _, c := range m.Clips {
		sec, err := probeDurationSeconds(filepath.Join(runDir, c.File))
		require.NoError(t, err)
		require.LessOrEqual(t, sec, cfg.MaxShort.Seconds()+0.5)

		w, h, err := probeVideoSize(filepath.Join(runDir, c.File))
		require.NoError(t, err)
		require.Equal(t, 720, w)
		require.Equal(t, 1280, h)
	}
}
