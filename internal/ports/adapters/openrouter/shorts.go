package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/forPelevin/recut/internal/domain/timeline"
	"github.com/forPelevin/recut/internal/domain/transcript"
	"github.com/forPelevin/recut/internal/types"
)

const (
	promptCandidates = 80
	minGapSec        = 2.0
)

// PickShorts asks the model to assemble up to n shorts from the scored
// candidate windows. A short may stitch several spans together. When the
// model answers without anything usable, the best non-overlapping candidates
// are returned instead.
func (a *Adapter) PickShorts(
	ctx context.Context,
	tr types.Transcript,
	cands []types.Candidate,
	n int,
	minDur time.Duration,
	maxDur time.Duration,
) ([]types.ShortSpec, error) {
	if n <= 0 || len(cands) == 0 || maxDur <= 0 || maxDur < minDur {
		return nil, nil
	}
	b := bounds{min: minDur.Seconds(), max: maxDur.Seconds(), words: transcript.Words(tr)}

	top := selectPromptCandidates(cands, promptCandidates)
	type cand struct {
		Idx      int     `json:"idx"`
		StartSec float64 `json:"start_sec"`
		EndSec   float64 `json:"end_sec"`
		Text     string  `json:"text"`
		Info     float64 `json:"info"`
		Hook     float64 `json:"hook"`
	}
	arr := make([]cand, 0, len(top))
	for i, c := range top {
		arr = append(arr, cand{Idx: i, StartSec: c.Start.Seconds(), EndSec: c.End.Seconds(), Text: c.Text, Info: c.InfoScore, Hook: c.HookScore})
	}
	pb, err := json.Marshal(map[string]any{
		"maxShorts":  n,
		"minSec":     b.min,
		"maxSec":     b.max,
		"candidates": arr,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal prompt: %w", err)
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"shorts": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"segments": map[string]any{"type": "array", "items": spanSchema()},
						"title":    map[string]any{"type": "string"},
						"script":   map[string]any{"type": "string"},
						"tags":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"reason":   map[string]any{"type": "string"},
					},
					"required": []string{"segments", "title", "script", "tags", "reason"},
				},
			},
		},
		"required": []string{"shorts"},
	}

	content, err := a.complete(ctx, "recut_shorts", buildShortsPrompt(pb), schema)
	if err != nil {
		if !errors.Is(err, errNoContent) {
			return nil, err
		}
		a.log.Warn("shorts answer unusable, using fallback", slog.String("err", err.Error()))
		return fallbackShorts(top, n, b), nil
	}

	var out struct {
		Shorts []struct {
			Segments []struct {
				StartSec float64 `json:"start_sec"`
				EndSec   float64 `json:"end_sec"`
			} `json:"segments"`
			Title  string   `json:"title"`
			Script string   `json:"script"`
			Tags   []string `json:"tags"`
			Reason string   `json:"reason"`
		} `json:"shorts"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		a.log.Warn("shorts answer malformed, using fallback", slog.String("err", err.Error()))
		return fallbackShorts(top, n, b), nil
	}

	res := make([]types.ShortSpec, 0, n)
	for _, s := range out.Shorts {
		spans := make([]timeline.Segment, 0, len(s.Segments))
		for _, sg := range s.Segments {
			spans = append(spans, timeline.Segment{Start: math.Max(0, sg.StartSec), End: sg.EndSec})
		}
		spans, ok := b.fit(spans)
		if !ok || !distinct(res, spans) {
			continue
		}
		title := strings.TrimSpace(s.Title)
		if title == "" {
			title = "Short"
		}
		script := strings.TrimSpace(s.Script)
		if script == "" {
			script = title
		}
		res = append(res, types.ShortSpec{Spans: spans, Title: title, Script: script, Tags: s.Tags, Reason: s.Reason})
		if len(res) >= n {
			break
		}
	}
	if len(res) == 0 {
		a.log.Warn("shorts answer had no valid shorts, using fallback")
		return fallbackShorts(top, n, b), nil
	}
	return res, nil
}

func buildShortsPrompt(candsJSON []byte) string {
	return "Assemble the best short vertical videos from the candidate list. " +
		"Return strictly valid JSON (no markdown, no code fences) matching the provided schema. " +
		"Each short is a list of segments played in order; usually one segment, several only when stitching " +
		"them tells a tighter story. Prefer moments that are both informative and hooky. " +
		"Shorts must not overlap each other and there can be anywhere from 0 to maxShorts of them. " +
		"The summed duration of a short's segments must be between minSec and maxSec. " +
		"Segments must start cleanly and end on a complete thought. " +
		"Give every short a catchy title, a one or two sentence script/description and a few tags." +
		"\n\nCandidates JSON:\n" + string(candsJSON)
}

type bounds struct {
	min, max float64
	words    []types.Word
}

// fit validates spans and trims the tail so the total stays within max,
// ending the last span on a natural boundary. Shorts under min are rejected.
func (b bounds) fit(spans []timeline.Segment) ([]timeline.Segment, bool) {
	if len(spans) == 0 {
		return nil, false
	}
	out := make([]timeline.Segment, 0, len(spans))
	total := 0.0
	for _, s := range spans {
		if s.Validate() != nil {
			return nil, false
		}
		room := b.max - total
		if room <= 0 {
			break
		}
		if s.Duration() > room {
			s.End = s.Start + room
		}
		out = append(out, s)
		total += s.Duration()
	}
	if total < b.min-1e-9 {
		return nil, false
	}

	last := &out[len(out)-1]
	before := total - last.Duration()
	minEnd := last.Start + math.Max(b.min-before, 0)
	maxEnd := last.Start + (b.max - before)
	if end := naturalEnd(b.words, last.End, minEnd, maxEnd); end > last.Start {
		total += end - last.End
		last.End = end
	}
	if total < b.min-1e-9 || last.Validate() != nil {
		return nil, false
	}
	return out, true
}

// naturalEnd moves requested to the closest good stopping point in
// [minEnd, maxEnd]: a sentence end, else a clear pause, else requested.
func naturalEnd(words []types.Word, requested, minEnd, maxEnd float64) float64 {
	requested = math.Min(math.Max(requested, minEnd), maxEnd)
	searchEnd := math.Min(requested+2, maxEnd)

	best, bestScore := -1.0, math.Inf(-1)
	for i, w := range words {
		if w.End < minEnd || w.End > searchEnd || !endsSentence(w.Display()) {
			continue
		}
		pause := 0.0
		if i+1 < len(words) {
			pause = math.Max(0, words[i+1].Start-w.End)
		}
		score := -0.3 * math.Abs(w.End-requested)
		switch {
		case pause >= 0.45:
			score += 1.0
		case pause >= 0.25:
			score += 0.4
		case pause < 0.12:
			score -= 0.35
		}
		if strings.HasSuffix(w.Display(), "?") && pause < 0.45 {
			score -= 2.4
		}
		if score > bestScore {
			best, bestScore = w.End, score
		}
	}
	if best >= 0 {
		return best
	}

	bestPause, pauseEnd := 0.0, -1.0
	for i := 0; i+1 < len(words); i++ {
		cur, next := words[i], words[i+1]
		if cur.End < minEnd || cur.End > searchEnd {
			continue
		}
		if p := next.Start - cur.End; p >= 0.35 && p > bestPause {
			bestPause, pauseEnd = p, cur.End
		}
	}
	if pauseEnd >= 0 {
		return pauseEnd
	}
	return requested
}

func endsSentence(s string) bool {
	s = strings.TrimRight(strings.TrimSpace(s), `"')]}`)
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?")
}

func fallbackShorts(cands []types.Candidate, n int, b bounds) []types.ShortSpec {
	out := make([]types.ShortSpec, 0, n)
	for _, c := range rankCandidates(cands) {
		if len(out) >= n {
			break
		}
		spans, ok := b.fit([]timeline.Segment{{Start: c.Start.Seconds(), End: c.End.Seconds()}})
		if !ok || !distinct(out, spans) {
			continue
		}
		script := strings.TrimSpace(c.Text)
		if script == "" {
			script = "Short"
		}
		out = append(out, types.ShortSpec{Spans: spans, Title: "Short", Script: script, Reason: "fallback"})
	}
	return out
}

func rankCandidates(cands []types.Candidate) []types.Candidate {
	best := make([]types.Candidate, len(cands))
	copy(best, cands)
	sort.SliceStable(best, func(i, j int) bool {
		s1 := best[i].InfoScore + best[i].HookScore
		s2 := best[j].InfoScore + best[j].HookScore
		if s1 == s2 {
			return best[i].Start < best[j].Start
		}
		return s1 > s2
	})
	return best
}

// selectPromptCandidates keeps the prompt bounded: the best distinct windows
// first, topped up in timeline order, then sorted by start.
func selectPromptCandidates(cands []types.Candidate, limit int) []types.Candidate {
	out := make([]types.Candidate, 0, limit)
	add := func(from []types.Candidate) {
		for _, c := range from {
			if len(out) >= limit {
				return
			}
			if overlapsAny(out, c.Start.Seconds(), c.End.Seconds()) {
				continue
			}
			out = append(out, c)
		}
	}
	add(rankCandidates(cands))
	add(cands)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func overlapsAny(existing []types.Candidate, st, en float64) bool {
	for _, e := range existing {
		if st < e.End.Seconds()+minGapSec && en > e.Start.Seconds()-minGapSec {
			return true
		}
	}
	return false
}

// distinct reports whether spans keep at least minGapSec away from every
// span of the shorts already chosen.
func distinct(existing []types.ShortSpec, spans []timeline.Segment) bool {
	for _, e := range existing {
		for _, a := range e.Spans {
			for _, b := range spans {
				if b.Start < a.End+minGapSec && b.End > a.Start-minGapSec {
					return false
				}
			}
		}
	}
	return true
}
