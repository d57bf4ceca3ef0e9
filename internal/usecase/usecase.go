package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/forPelevin/recut/internal/domain/timeline"
	"github.com/forPelevin/recut/internal/domain/transcript"
	"github.com/forPelevin/recut/internal/policy"
	"github.com/forPelevin/recut/internal/ports"
	"github.com/forPelevin/recut/internal/types"
)

type Deps struct {
	Video ports.VideoTool
	ASR   ports.ASR
	Audio ports.AudioStore

	// Downloader fetches http(s) sources. Optional.
	Downloader ports.Downloader

	Deduper    ports.Deduper
	Remover    ports.Remover
	Classifier ports.Classifier
	Shorts     ports.ShortsPicker

	Log *slog.Logger
}

type Usecase struct {
	d   Deps
	log *slog.Logger
}

func New(d Deps) Usecase {
	log := d.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return Usecase{d: d, log: log}
}

type Input struct {
	// Source is a local media file or, with a Downloader, an http(s) URL.
	Source   string
	CacheDir string
	OutDir   string
	Policy   policy.Policy
}

type Result struct {
	Manifest types.Manifest
}

func isRemote(src string) bool {
	s := strings.ToLower(strings.TrimSpace(src))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func (u Usecase) resolveSource(ctx context.Context, in Input) (string, error) {
	if !isRemote(in.Source) {
		if _, err := os.Stat(in.Source); err != nil {
			return "", fmt.Errorf("input: %w: %v", timeline.ErrSourceUnavailable, err)
		}
		return in.Source, nil
	}
	if u.d.Downloader == nil {
		return "", fmt.Errorf("input %q: %w: no downloader configured", in.Source, timeline.ErrSourceUnavailable)
	}
	u.log.Info("downloading source", slog.String("url", in.Source))
	p, err := u.d.Downloader.Download(ctx, in.Source, filepath.Join(in.CacheDir, "download"))
	if err != nil {
		return "", fmt.Errorf("download: %w: %v", timeline.ErrSourceUnavailable, err)
	}
	return p, nil
}

// transcribe extracts the audio track of src into the cache and returns it
// with its transcript and the cleaned, time-ordered words.
func (u Usecase) transcribe(ctx context.Context, src string, in Input) (string, types.Transcript, []types.Word, error) {
	if err := os.MkdirAll(in.CacheDir, 0o755); err != nil {
		return "", types.Transcript{}, nil, err
	}
	wav := filepath.Join(in.CacheDir, "audio.wav")
	u.log.Info("extracting audio", slog.String("wav", wav))
	if err := u.d.Video.ExtractAudio(ctx, src, wav, in.Policy.Audio.SampleRate); err != nil {
		return "", types.Transcript{}, nil, err
	}

	u.log.Info("transcribing")
	tr, err := u.d.ASR.Transcribe(ctx, wav, in.CacheDir)
	if err != nil {
		return "", types.Transcript{}, nil, err
	}
	if err := writeJSON(filepath.Join(in.CacheDir, "transcript.json"), tr); err != nil {
		return "", types.Transcript{}, nil, err
	}
	words := transcript.Words(tr)
	u.log.Info("transcript ready", slog.Int("segments", len(tr.Segments)), slog.Int("words", len(words)))
	return wav, tr, words, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, b)
}

func writeFile(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
