// Package transcript turns ASR output into the word and utterance lists the
// classifiers consume, and moves word timings onto a reconstructed timeline.
package transcript

import (
	"sort"
	"strings"

	"github.com/forPelevin/recut/internal/domain/track"
	"github.com/forPelevin/recut/internal/types"
)

// DefaultUtteranceGap is the pause, in seconds, that starts a new utterance.
const DefaultUtteranceGap = 1.0

// Words flattens tr into a time-ordered word list. Words without text or
// with End < Start are dropped.
func Words(tr types.Transcript) []types.Word {
	var out []types.Word
	for _, s := range tr.Segments {
		for _, w := range s.Words {
			if strings.TrimSpace(w.Word) == "" || w.End < w.Start {
				continue
			}
			w.Word = strings.TrimSpace(w.Word)
			w.Punctuated = strings.TrimSpace(w.Punctuated)
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Utterances groups words into utterances. An utterance ends at a word that
// closes a sentence, or before a word preceded by a pause longer than gap.
func Utterances(words []types.Word, gap float64) []types.Utterance {
	if gap <= 0 {
		gap = DefaultUtteranceGap
	}
	var (
		out []types.Utterance
		cur *types.Utterance
	)
	for _, w := range words {
		if cur != nil && w.Start-cur.End > gap {
			out = append(out, *cur)
			cur = nil
		}
		if cur == nil {
			cur = &types.Utterance{Start: w.Start, End: w.End, Text: w.Word}
		} else {
			cur.End = w.End
			cur.Text += " " + w.Word
		}
		cur.Words = append(cur.Words, w)
		if endsSentence(w.Punctuated) {
			out = append(out, *cur)
			cur = nil
		}
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}

func endsSentence(s string) bool {
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?")
}

// Text joins the display form of words with single spaces.
func Text(words []types.Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, w.Display())
	}
	return strings.Join(parts, " ")
}

// MaskChar replaces the letters of words that fall under a tone piece.
const MaskChar = "*"

// Remap moves word timings from the source timeline onto the timeline that
// plan produces. A word spanning several pieces lands in the one it overlaps
// most; words that only overlap dropped material disappear. Words under a
// tone piece keep their slot but have their text masked.
func Remap(words []types.Word, plan track.Plan) []types.Word {
	if plan.Rate <= 0 {
		return nil
	}
	rate := float64(plan.Rate)

	type placed struct {
		off, from, to float64
		tone          bool
	}
	pieces := make([]placed, 0, len(plan.Pieces))
	off := 0.0
	for _, pc := range plan.Pieces {
		pieces = append(pieces, placed{
			off:  off,
			from: float64(pc.From) / rate,
			to:   float64(pc.To) / rate,
			tone: pc.Kind == track.PieceTone,
		})
		off += float64(pc.Frames) / rate
	}

	var out []types.Word
	for _, w := range words {
		best, bestOverlap := -1, 0.0
		for i, p := range pieces {
			ov := min(w.End, p.to) - max(w.Start, p.from)
			if ov > bestOverlap {
				best, bestOverlap = i, ov
			}
		}
		if best < 0 {
			continue
		}
		p := pieces[best]
		nw := w
		nw.Start = p.off + max(w.Start, p.from) - p.from
		nw.End = p.off + min(w.End, p.to) - p.from
		if p.tone {
			nw.Word = mask(w.Word)
			if nw.Punctuated != "" {
				nw.Punctuated = mask(w.Punctuated)
			}
		}
		out = append(out, nw)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func mask(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '.', ',', '!', '?', ';', ':':
			b.WriteRune(r)
		default:
			b.WriteString(MaskChar)
		}
	}
	return b.String()
}
