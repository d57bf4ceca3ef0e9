package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/recut/internal/domain/highlights"
	"github.com/forPelevin/recut/internal/domain/subtitles"
	"github.com/forPelevin/recut/internal/domain/timeline"
	"github.com/forPelevin/recut/internal/domain/track"
	"github.com/forPelevin/recut/internal/domain/transcript"
	"github.com/forPelevin/recut/internal/ports"
	"github.com/forPelevin/recut/internal/types"
)

type clipJob struct {
	id    string
	spec  types.ShortSpec
	plan  track.Plan
	spans []timeline.Segment
	words []types.Word
}

// Shorts cuts vertical clips with burned-in karaoke captions. Every short is
// planned on the video's frame grid so cuts land on frame boundaries, and
// the captions are remapped through the same plan.
func (u Usecase) Shorts(ctx context.Context, in Input) (Result, error) {
	if u.d.Shorts == nil {
		return Result{}, errors.New("shorts: no picker configured")
	}
	m := types.Manifest{Mode: types.ModeShorts, Input: in.Source}
	p := in.Policy

	src, err := u.resolveSource(ctx, in)
	if err != nil {
		return Result{}, err
	}
	_, tr, words, err := u.transcribe(ctx, src, in)
	if err != nil {
		return Result{}, err
	}

	minDur, maxDur := p.ShortBounds()
	utts := transcript.Utterances(words, p.Transcript.UtteranceGap)
	cands := highlights.Candidates(utts, highlights.Window{Min: minDur, Max: maxDur})
	u.log.Info("candidates built", slog.Int("utterances", len(utts)), slog.Int("candidates", len(cands)))

	specs, err := u.d.Shorts.PickShorts(ctx, tr, cands, p.Shorts.Count, minDur, maxDur)
	if err != nil {
		return Result{}, err
	}
	u.log.Info("shorts picked", slog.Int("count", len(specs)))

	rate, length, err := u.frameGrid(ctx, src)
	if err != nil {
		return Result{}, err
	}

	sort.SliceStable(specs, func(i, j int) bool { return firstStart(specs[i]) < firstStart(specs[j]) })
	jobs := make([]clipJob, 0, len(specs))
	for _, spec := range specs {
		plan, err := track.PlanKeep(spec.Spans, rate, length)
		if err != nil {
			if timeline.IsRecoverable(err) {
				u.log.Warn("skipping short", slog.String("title", spec.Title), slog.String("err", err.Error()))
				continue
			}
			return Result{}, err
		}
		jobs = append(jobs, clipJob{
			id:    fmt.Sprintf("%03d", len(jobs)+1),
			spec:  spec,
			plan:  plan,
			spans: plan.Spans(),
			words: transcript.Remap(words, plan),
		})
	}

	style := p.CaptionStyle()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Shorts.Workers, 1))
	for _, job := range jobs {
		g.Go(func() error {
			return u.renderClip(gctx, src, in.OutDir, job, style)
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	for _, job := range jobs {
		m.Clips = append(m.Clips, types.ManifestClip{
			ID:        job.id,
			Spans:     job.spans,
			DurSec:    float64(job.plan.Frames()) / float64(rate),
			File:      filepath.ToSlash(filepath.Join("clips", job.id+".mp4")),
			Subtitles: filepath.ToSlash(filepath.Join("subtitles", job.id+".ass")),
			Title:     job.spec.Title,
			Script:    job.spec.Script,
			Tags:      job.spec.Tags,
			Reason:    job.spec.Reason,
		})
	}
	return Result{Manifest: m}, nil
}

func (u Usecase) renderClip(ctx context.Context, src, outDir string, job clipJob, style subtitles.Style) error {
	assPath := filepath.Join(outDir, "subtitles", job.id+".ass")
	if err := writeFile(assPath, []byte(subtitles.ASS(job.words, style))); err != nil {
		return fmt.Errorf("write subtitles %s: %w", job.id, err)
	}
	clipPath := filepath.Join(outDir, "clips", job.id+".mp4")
	if err := os.MkdirAll(filepath.Dir(clipPath), 0o755); err != nil {
		return fmt.Errorf("prepare clip %s: %w", job.id, err)
	}

	u.log.Info("rendering clip",
		slog.String("id", job.id),
		slog.Int("spans", len(job.spans)),
		slog.Int("words", len(job.words)),
	)
	return u.d.Video.RenderSpans(ctx, src, job.spans, clipPath, ports.RenderOptions{
		Vertical: true,
		Width:    style.PlayResX,
		Height:   style.PlayResY,
		BurnASS:  assPath,
	})
}

// frameGrid returns the nominal frame rate and frame count of the video.
func (u Usecase) frameGrid(ctx context.Context, src string) (int, int, error) {
	fps, err := u.d.Video.ProbeFrameRate(ctx, src)
	if err != nil {
		return 0, 0, err
	}
	d, err := u.d.Video.ProbeDuration(ctx, src)
	if err != nil {
		return 0, 0, err
	}
	rate := max(int(math.Round(fps)), 1)
	length := track.Index(d.Seconds(), rate)
	u.log.Debug("frame grid", slog.Float64("fps", fps), slog.Int("rate", rate), slog.Int("frames", length))
	return rate, length, nil
}

func firstStart(s types.ShortSpec) float64 {
	if len(s.Spans) == 0 {
		return math.Inf(1)
	}
	return s.Spans[0].Start
}
