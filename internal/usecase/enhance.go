package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/forPelevin/recut/internal/domain/envelope"
	"github.com/forPelevin/recut/internal/domain/subtitles"
	"github.com/forPelevin/recut/internal/domain/timeline"
	"github.com/forPelevin/recut/internal/domain/track"
	"github.com/forPelevin/recut/internal/domain/transcript"
	"github.com/forPelevin/recut/internal/types"
)

const (
	enhancedAudio = "enhanced.wav"
	enhancedVTT   = "enhanced.vtt"
)

// decision is what a classification step produced for one run.
type decision struct {
	tagged  []timeline.Tagged
	skipped int // inputs dropped before planning
	render  func(src track.Track[int16]) (track.Track[int16], track.Plan, error)
}

// Dedupe keeps only the words the language model did not flag as repeated.
// Each surviving word is cut out, normalized and faded, and the pieces are
// joined in the order the model returned them.
func (u Usecase) Dedupe(ctx context.Context, in Input) (Result, error) {
	return u.enhance(ctx, in, types.ModeDedupe, func(ctx context.Context, words []types.Word, rate int) (decision, error) {
		if u.d.Deduper == nil {
			return decision{}, errors.New("dedupe: no deduper configured")
		}
		if len(words) == 0 {
			return decision{}, fmt.Errorf("transcript has no words: %w", timeline.ErrEmptyResult)
		}
		kept, err := u.d.Deduper.Dedupe(ctx, words)
		if err != nil {
			return decision{}, err
		}
		keeps := make([]timeline.Segment, 0, len(kept))
		skipped := 0
		for _, w := range kept {
			// Tokens stamped with end == start carry no audio.
			if w.End <= w.Start {
				skipped++
				continue
			}
			keeps = append(keeps, w.Span())
		}
		u.log.Info("dedupe decided",
			slog.Int("words", len(words)),
			slog.Int("kept", len(kept)),
			slog.Int("zero_length", skipped),
		)

		pol := in.Policy.Polish(rate)
		return decision{
			tagged:  timeline.Tag(keeps, timeline.ActionKeep),
			skipped: skipped,
			render: func(src track.Track[int16]) (track.Track[int16], track.Plan, error) {
				return track.KeepList(src, keeps, track.Options[int16]{Polish: pol.Apply})
			},
		}, nil
	})
}

// Clean drops fillers and long pauses, beeps profanity and, when enabled,
// drops the utterances the language model flags as duplicated.
func (u Usecase) Clean(ctx context.Context, in Input) (Result, error) {
	return u.enhance(ctx, in, types.ModeClean, func(ctx context.Context, words []types.Word, _ int) (decision, error) {
		if u.d.Classifier == nil {
			return decision{}, errors.New("clean: no classifier configured")
		}
		tagged := u.d.Classifier.Classify(words)
		if in.Policy.Clean.UseLLM && u.d.Remover != nil {
			utts := transcript.Utterances(words, in.Policy.Transcript.UtteranceGap)
			segs, err := u.d.Remover.Removals(ctx, utts)
			if err != nil {
				return decision{}, err
			}
			u.log.Info("language model removals", slog.Int("utterances", len(utts)), slog.Int("segments", len(segs)))
			tagged = append(tagged, timeline.Tag(segs, timeline.ActionRemove)...)
		}
		merged, err := timeline.MergeTagged(tagged)
		if err != nil {
			return decision{}, err
		}

		tone := in.Policy.ToneConfig()
		return decision{
			tagged: merged,
			render: func(src track.Track[int16]) (track.Track[int16], track.Plan, error) {
				return track.Complement(src, merged, track.Options[int16]{
					Tone: func(d float64, rate, channels int) []int16 {
						return envelope.Tone(tone, d, rate, channels)
					},
				})
			},
		}, nil
	})
}

type decideFunc func(ctx context.Context, words []types.Word, rate int) (decision, error)

func (u Usecase) enhance(ctx context.Context, in Input, mode types.Mode, decide decideFunc) (Result, error) {
	m := types.Manifest{Mode: mode, Input: in.Source}

	src, err := u.resolveSource(ctx, in)
	if err != nil {
		return Result{}, err
	}
	wav, _, words, err := u.transcribe(ctx, src, in)
	if err != nil {
		return Result{}, err
	}
	orig, err := u.d.Audio.Load(wav)
	if err != nil {
		return Result{}, err
	}

	out, plan, outWords, err := u.reconstruct(ctx, orig, words, decide, &m)
	switch {
	case err == nil:
		m.Report = &plan.Report
		if plan.Report.Clamped > 0 {
			u.log.Warn("segments clamped to track",
				slog.Int("count", plan.Report.Clamped),
				slog.String("err", timeline.ErrOutOfRangeSegment.Error()),
			)
		}
	case timeline.IsRecoverable(err):
		u.log.Warn("falling back to original audio", slog.String("err", err.Error()))
		m.Fallback = true
		m.FallbackReason = err.Error()
		m.Decisions = nil
		out, outWords = orig, words
	default:
		return Result{}, err
	}

	if err := os.MkdirAll(in.OutDir, 0o755); err != nil {
		return Result{}, err
	}
	outPath := filepath.Join(in.OutDir, enhancedAudio)
	if err := u.d.Audio.Save(outPath, out); err != nil {
		return Result{}, fmt.Errorf("save enhanced audio: %w", err)
	}
	m.Output = enhancedAudio

	var vtt bytes.Buffer
	if err := subtitles.WebVTT(&vtt, transcript.Utterances(outWords, in.Policy.Transcript.UtteranceGap)); err != nil {
		return Result{}, err
	}
	if err := writeFile(filepath.Join(in.OutDir, enhancedVTT), vtt.Bytes()); err != nil {
		return Result{}, fmt.Errorf("write subtitles: %w", err)
	}
	m.Subtitles = enhancedVTT

	u.log.Info("enhanced audio written",
		slog.String("path", outPath),
		slog.Float64("in_sec", orig.Duration()),
		slog.Float64("out_sec", out.Duration()),
		slog.Bool("fallback", m.Fallback),
	)
	return Result{Manifest: m}, nil
}

func (u Usecase) reconstruct(
	ctx context.Context,
	orig track.Track[int16],
	words []types.Word,
	decide decideFunc,
	m *types.Manifest,
) (track.Track[int16], track.Plan, []types.Word, error) {
	d, err := decide(ctx, words, orig.Rate)
	if err != nil {
		return track.Track[int16]{}, track.Plan{}, nil, err
	}
	m.Decisions = d.tagged

	out, plan, err := d.render(orig)
	if err != nil {
		return track.Track[int16]{}, track.Plan{}, nil, err
	}
	plan.Report.Skipped += d.skipped
	return out, plan, transcript.Remap(words, plan), nil
}
