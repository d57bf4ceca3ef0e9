package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forPelevin/recut/internal/types"
)

func TestBuildRunOutDir(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 30, 45, 1234, time.UTC)
	got := buildRunOutDir("out", "/tmp/My Cool.Video.mp4", now)
	base := filepath.Base(got)
	require.Equal(t, "out", filepath.Dir(got))
	require.True(t, strings.HasPrefix(base, "my-cool-video-20260212-103045Z-"), base)
	require.Len(t, base, len("my-cool-video-20260212-103045Z-")+6)
}

func TestNormalizePathSegment(t *testing.T) {
	tests := map[string]string{
		"  My Cool.Video  ": "my-cool-video",
		"___":               "",
		"abc123":            "abc123",
		"Name (v2)!":        "name-v2",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			require.Equal(t, want, normalizePathSegment(in))
		})
	}
}

func validConfig(t *testing.T) Config {
	t.Helper()
	in := filepath.Join(t.TempDir(), "talk.mp4")
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o644))
	return Config{
		Mode:         types.ModeClean,
		Input:        in,
		WhisperModel: "ggml-base.en.bin",
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "clean with whisper", mutate: func(*Config) {}},
		{name: "remote input is not stat-ed", mutate: func(c *Config) { c.Input = "https://youtu.be/abc" }},
		{name: "bad mode", mutate: func(c *Config) { c.Mode = "cut" }, wantErr: "unknown mode"},
		{name: "missing input", mutate: func(c *Config) { c.Input = "" }, wantErr: "input is empty"},
		{name: "input not found", mutate: func(c *Config) { c.Input = "/nonexistent/x.mp4" }, wantErr: "stat input"},
		{name: "whisper needs model", mutate: func(c *Config) { c.WhisperModel = "" }, wantErr: "whisper model"},
		{name: "deepgram needs key", mutate: func(c *Config) { c.ASR = ASRDeepgram }, wantErr: "DEEPGRAM_API_KEY"},
		{name: "openai needs key", mutate: func(c *Config) { c.ASR = ASROpenAI }, wantErr: "OPENAI_API_KEY"},
		{name: "unknown asr", mutate: func(c *Config) { c.ASR = "vosk" }, wantErr: "unknown ASR"},
		{name: "dedupe needs llm key", mutate: func(c *Config) { c.Mode = types.ModeDedupe }, wantErr: "OPENROUTER_API_KEY"},
		{name: "clean with llm needs key", mutate: func(c *Config) { c.UseLLM = true }, wantErr: "OPENROUTER_API_KEY"},
		{
			name: "shorts with key",
			mutate: func(c *Config) {
				c.Mode = types.ModeShorts
				c.OpenRouterAPIKey = "k"
			},
		},
		{
			name: "short bounds",
			mutate: func(c *Config) {
				c.MinShort = time.Minute
				c.MaxShort = time.Second
			},
			wantErr: "min short",
		},
		{name: "http base url", mutate: func(c *Config) { c.OpenRouterBaseURL = "http://openrouter.ai" }, wantErr: "https is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig(t)
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfigPolicyOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clean:\n  profanity: [darn]\nshorts:\n  count: 2\n"), 0o644))

	c := Config{
		PolicyPath:  path,
		ShortsCount: 4,
		MaxShort:    45 * time.Second,
		Profanity:   []string{"heck"},
		UseLLM:      true,
	}
	p, err := c.policy()
	require.NoError(t, err)
	require.Equal(t, 4, p.Shorts.Count)
	require.Equal(t, 45.0, p.Shorts.MaxSec)
	require.Equal(t, []string{"darn", "heck"}, p.Clean.Profanity)
	require.True(t, p.Clean.UseLLM)

	c = Config{MinShort: 2 * time.Minute}
	_, err = c.policy()
	require.Error(t, err)
}

func TestNewASR(t *testing.T) {
	c := Config{ASR: "Deepgram", DeepgramAPIKey: "k"}
	require.NotNil(t, c.newASR(nil))
	require.Equal(t, ASRDeepgram, c.asr())
	require.Equal(t, ASRWhisper, Config{}.asr())
}
