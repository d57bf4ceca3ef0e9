package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/recut/internal/pipeline"
	"github.com/forPelevin/recut/internal/ports/adapters/ytdlp"
	"github.com/forPelevin/recut/internal/types"
)

func run(cmd *cobra.Command, mode types.Mode, input string) error {
	cfg, err := configFromFlags(cmd, mode, input)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Hour)
	defer cancel()
	return pipeline.Run(ctx, cfg)
}

func configFromFlags(cmd *cobra.Command, mode types.Mode, input string) (pipeline.Config, error) {
	flags := cmd.Flags()
	outDir, _ := flags.GetString("out")
	cacheDir, _ := flags.GetString("cache")
	policyPath, _ := flags.GetString("policy")
	asr, _ := flags.GetString("asr")
	whisperBin, _ := flags.GetString("whisper-bin")
	whisperModel, _ := flags.GetString("whisper-model")
	verbose, _ := flags.GetBool("verbose")

	if !ytdlp.IsURL(input) {
		abs, err := filepath.Abs(input)
		if err != nil {
			return pipeline.Config{}, err
		}
		input = abs
	}

	cfg := pipeline.Config{
		Mode:       mode,
		Input:      input,
		OutDir:     outDir,
		CacheDir:   cacheDir,
		PolicyPath: policyPath,
		Logger:     newLogger(cmd.ErrOrStderr(), verbose),

		FFmpegPath:  getenvDefault("FFMPEG_PATH", "ffmpeg"),
		FFprobePath: getenvDefault("FFPROBE_PATH", "ffprobe"),
		YtDlpPath:   getenvDefault("YTDLP_PATH", "yt-dlp"),

		ASR:          asr,
		WhisperBin:   whisperBin,
		WhisperModel: whisperModel,

		DeepgramAPIKey: os.Getenv("DEEPGRAM_API_KEY"),
		DeepgramModel:  os.Getenv("DEEPGRAM_MODEL"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   os.Getenv("OPENAI_TRANSCRIBE_MODEL"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),

		OpenRouterAPIKey:       os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:        getenvDefault("OPENROUTER_MODEL", "z-ai/glm-4.5-air:free"),
		OpenRouterBaseURL:      getenvDefault("OPENROUTER_BASE_URL", "https://openrouter.ai"),
		OpenRouterAllowedHosts: splitList(os.Getenv("OPENROUTER_ALLOWED_HOSTS")),
	}

	switch mode {
	case types.ModeClean:
		cfg.Profanity, _ = flags.GetStringSlice("profanity")
		cfg.UseLLM, _ = flags.GetBool("llm")
	case types.ModeShorts:
		cfg.ShortsCount, _ = flags.GetInt("count")
		minSec, _ := flags.GetInt("min")
		maxSec, _ := flags.GetInt("max")
		cfg.MinShort = time.Duration(minSec) * time.Second
		cfg.MaxShort = time.Duration(maxSec) * time.Second
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
