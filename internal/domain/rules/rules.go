package rules

import (
	"strings"
	"unicode"

	"github.com/forPelevin/recut/internal/domain/timeline"
	"github.com/forPelevin/recut/internal/types"
)

var DefaultFillers = []string{"um", "uh", "hmm", "erm", "ah"}

const DefaultPauseThreshold = 0.5

type Config struct {
	Fillers   []string
	Profanity []string // single words or space separated phrases
	// PauseThreshold is the gap in seconds above which silence between two
	// words is removed. Zero disables pause removal.
	PauseThreshold float64
}

// Classifier tags transcript words for the complement reconstruction:
// fillers and long pauses are removed, profanity is beeped.
type Classifier struct {
	fillers   map[string]struct{}
	phrases   [][]string
	threshold float64
}

func New(cfg Config) *Classifier {
	c := &Classifier{
		fillers:   make(map[string]struct{}, len(cfg.Fillers)),
		threshold: cfg.PauseThreshold,
	}
	for _, f := range cfg.Fillers {
		if n := normalize(f); n != "" {
			c.fillers[n] = struct{}{}
		}
	}
	for _, p := range cfg.Profanity {
		var toks []string
		for _, f := range strings.Fields(p) {
			if n := normalize(f); n != "" {
				toks = append(toks, n)
			}
		}
		if len(toks) > 0 {
			c.phrases = append(c.phrases, toks)
		}
	}
	return c
}

// Classify returns the tagged segments for words, in no particular order.
// Words must be sorted by start.
func (c *Classifier) Classify(words []types.Word) []timeline.Tagged {
	var out []timeline.Tagged
	out = append(out, timeline.Tag(c.Fillers(words), timeline.ActionRemove)...)
	out = append(out, timeline.Tag(c.Pauses(words), timeline.ActionRemove)...)
	out = append(out, timeline.Tag(c.Profanity(words), timeline.ActionBeep)...)
	return out
}

func (c *Classifier) Fillers(words []types.Word) []timeline.Segment {
	var out []timeline.Segment
	for _, w := range words {
		if w.End <= w.Start {
			continue
		}
		if _, ok := c.fillers[normalize(w.Word)]; ok {
			out = append(out, w.Span())
		}
	}
	return out
}

func (c *Classifier) Pauses(words []types.Word) []timeline.Segment {
	if c.threshold <= 0 {
		return nil
	}
	var out []timeline.Segment
	for i := 0; i+1 < len(words); i++ {
		gap := words[i+1].Start - words[i].End
		if gap > c.threshold {
			out = append(out, timeline.Segment{Start: words[i].End, End: words[i+1].Start})
		}
	}
	return out
}

// Profanity matches every configured phrase against consecutive words. A
// match spans from the first word's start to the last word's end.
func (c *Classifier) Profanity(words []types.Word) []timeline.Segment {
	if len(c.phrases) == 0 {
		return nil
	}
	norm := make([]string, len(words))
	for i, w := range words {
		norm[i] = normalize(w.Word)
	}

	var out []timeline.Segment
	for i := range words {
		for _, ph := range c.phrases {
			if i+len(ph) > len(words) || !matchAt(norm, i, ph) {
				continue
			}
			s := timeline.Segment{Start: words[i].Start, End: words[i+len(ph)-1].End}
			if s.End > s.Start {
				out = append(out, s)
			}
		}
	}
	return out
}

func matchAt(norm []string, i int, phrase []string) bool {
	for k, tok := range phrase {
		if norm[i+k] != tok {
			return false
		}
	}
	return true
}

// normalize lowercases s and trims surrounding punctuation.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
