package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/forPelevin/recut/internal/domain/rules"
	"github.com/forPelevin/recut/internal/policy"
	"github.com/forPelevin/recut/internal/ports"
	"github.com/forPelevin/recut/internal/ports/adapters/deepgram"
	"github.com/forPelevin/recut/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/recut/internal/ports/adapters/openaiasr"
	"github.com/forPelevin/recut/internal/ports/adapters/openrouter"
	"github.com/forPelevin/recut/internal/ports/adapters/wavfile"
	"github.com/forPelevin/recut/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/recut/internal/ports/adapters/ytdlp"
	"github.com/forPelevin/recut/internal/types"
	"github.com/forPelevin/recut/internal/usecase"
)

const (
	ASRWhisper  = "whispercpp"
	ASRDeepgram = "deepgram"
	ASROpenAI   = "openai"
)

type Config struct {
	Mode   types.Mode
	Input  string // local media file or http(s) URL
	OutDir string
	Logger *slog.Logger

	// CacheDir is the base directory for local artifacts (audio, transcripts, downloads).
	// If empty, defaults to ".cache".
	CacheDir string

	// PolicyPath is an optional YAML policy file. The fields below override
	// it when set.
	PolicyPath  string
	ShortsCount int
	MinShort    time.Duration
	MaxShort    time.Duration
	Profanity   []string
	UseLLM      bool

	FFmpegPath  string
	FFprobePath string
	YtDlpPath   string

	ASR          string
	WhisperBin   string
	WhisperModel string

	DeepgramAPIKey string
	DeepgramModel  string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	OpenRouterAPIKey       string
	OpenRouterModel        string
	OpenRouterBaseURL      string
	OpenRouterAllowedHosts []string
}

func (c Config) needsLLM() bool {
	return c.Mode == types.ModeDedupe || c.Mode == types.ModeShorts || c.UseLLM
}

func (c Config) Validate() error {
	if !c.Mode.IsValid() {
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.Input == "" {
		return errors.New("input is empty")
	}
	if !ytdlp.IsURL(c.Input) {
		if _, err := os.Stat(c.Input); err != nil {
			return fmt.Errorf("stat input: %w", err)
		}
	}
	if c.ShortsCount < 0 {
		return errors.New("shorts count must be >= 0")
	}
	if c.MinShort < 0 || c.MaxShort < 0 {
		return errors.New("short durations must be >= 0")
	}
	if c.MinShort > 0 && c.MaxShort > 0 && c.MinShort > c.MaxShort {
		return errors.New("min short must be <= max short")
	}

	switch c.asr() {
	case ASRWhisper:
		if c.WhisperModel == "" {
			return errors.New("whisper model path is required")
		}
	case ASRDeepgram:
		if c.DeepgramAPIKey == "" {
			return errors.New("DEEPGRAM_API_KEY is required for the deepgram ASR")
		}
	case ASROpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai ASR")
		}
	default:
		return fmt.Errorf("unknown ASR %q (want %s, %s or %s)", c.ASR, ASRWhisper, ASRDeepgram, ASROpenAI)
	}

	if c.needsLLM() && c.OpenRouterAPIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required for %s", c.Mode)
	}
	return openrouter.ValidateBaseURL(
		c.OpenRouterBaseURL,
		c.OpenRouterAllowedHosts,
	)
}

func (c Config) asr() string {
	if c.ASR == "" {
		return ASRWhisper
	}
	return strings.ToLower(c.ASR)
}

// policy loads the policy file and applies the command line overrides.
func (c Config) policy() (policy.Policy, error) {
	p, err := policy.Load(c.PolicyPath)
	if err != nil {
		return policy.Policy{}, err
	}
	if c.ShortsCount > 0 {
		p.Shorts.Count = c.ShortsCount
	}
	if c.MinShort > 0 {
		p.Shorts.MinSec = c.MinShort.Seconds()
	}
	if c.MaxShort > 0 {
		p.Shorts.MaxSec = c.MaxShort.Seconds()
	}
	if len(c.Profanity) > 0 {
		p.Clean.Profanity = append(p.Clean.Profanity, c.Profanity...)
	}
	if c.UseLLM {
		p.Clean.UseLLM = true
	}
	if err := p.Validate(); err != nil {
		return policy.Policy{}, err
	}
	return p, nil
}

func (c Config) newASR(log *slog.Logger) ports.ASR {
	switch c.asr() {
	case ASRDeepgram:
		return deepgram.New(c.DeepgramAPIKey, c.DeepgramModel).WithLogger(log)
	case ASROpenAI:
		return openaiasr.New(c.OpenAIAPIKey, c.OpenAIModel, c.OpenAIBaseURL)
	default:
		return whispercpp.New(c.WhisperBin, c.WhisperModel)
	}
}

func Run(ctx context.Context, cfg Config) error {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	pol, err := cfg.policy()
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	log = log.With(slog.String("run_id", runID), slog.String("mode", string(cfg.Mode)))

	llm := openrouter.New(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.OpenRouterBaseURL).WithLogger(log)
	uc := usecase.New(usecase.Deps{
		Video:      ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath),
		ASR:        cfg.newASR(log),
		Audio:      wavfile.New(),
		Downloader: ytdlp.New(cfg.YtDlpPath),
		Deduper:    llm,
		Remover:    llm,
		Classifier: rules.New(pol.Rules()),
		Shorts:     llm,
		Log:        log,
	})

	jobID := hash(cfg.Input)
	baseCache := cfg.CacheDir
	if baseCache == "" {
		baseCache = ".cache"
	}
	cacheDir := filepath.Join(baseCache, "runs", jobID)
	log.Info("preparing workspace")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	log.Debug("cache ready", slog.String("dir", cacheDir))

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.Input, time.Now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return err
	}
	log.Info("output run dir", slog.String("dir", runOutDir))

	in := usecase.Input{
		Source:   cfg.Input,
		CacheDir: cacheDir,
		OutDir:   runOutDir,
		Policy:   pol,
	}
	var res usecase.Result
	switch cfg.Mode {
	case types.ModeDedupe:
		res, err = uc.Dedupe(ctx, in)
	case types.ModeClean:
		res, err = uc.Clean(ctx, in)
	case types.ModeShorts:
		res, err = uc.Shorts(ctx, in)
	default:
		err = fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	if err != nil {
		return err
	}

	res.Manifest.RunID = runID
	b, err := json.MarshalIndent(res.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(runOutDir, "manifest.json")
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return err
	}
	log.Info("manifest written",
		slog.String("path", manifestPath),
		slog.Int("clips", len(res.Manifest.Clips)),
		slog.Bool("fallback", res.Manifest.Fallback),
	)
	return nil
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var (
	_ ports.VideoTool    = (*ffmpeg.Adapter)(nil)
	_ ports.ASR          = (*whispercpp.Adapter)(nil)
	_ ports.ASR          = (*deepgram.Adapter)(nil)
	_ ports.ASR          = (*openaiasr.Adapter)(nil)
	_ ports.AudioStore   = wavfile.Store{}
	_ ports.Downloader   = (*ytdlp.Adapter)(nil)
	_ ports.Deduper      = (*openrouter.Adapter)(nil)
	_ ports.Remover      = (*openrouter.Adapter)(nil)
	_ ports.ShortsPicker = (*openrouter.Adapter)(nil)
	_ ports.Classifier   = (*rules.Classifier)(nil)
)
