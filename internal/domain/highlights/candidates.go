// Package highlights proposes candidate windows for shorts and pre-ranks them
// with a cheap text heuristic before the language model picks.
package highlights

import (
	"time"

	"github.com/forPelevin/recut/internal/domain/transcript"
	"github.com/forPelevin/recut/internal/types"
)

const (
	maxCandidates = 500
	maxWordsInWin = 240
	maxStartCount = 140
	endStride     = 4
)

// Window bounds the duration of a candidate.
type Window struct {
	Min time.Duration
	Max time.Duration
}

// Candidates builds windows that start and end on utterance boundaries. When
// utterances are too long to fit the window, windows are cut on word
// boundaries instead.
func Candidates(utts []types.Utterance, w Window) []types.Candidate {
	if w.Min <= 0 {
		w.Min = time.Second
	}
	if w.Max <= 0 || w.Max < w.Min || len(utts) == 0 {
		return nil
	}

	var out []types.Candidate
	for i := range utts {
		start := dur(utts[i].Start)
		var words []types.Word
		for j := i; j < len(utts); j++ {
			words = append(words, utts[j].Words...)
			end := dur(utts[j].End)
			win := end - start
			if win > w.Max {
				break
			}
			if win < w.Min {
				continue
			}
			if c, ok := candidate(start, end, words); ok {
				out = append(out, c)
				if len(out) >= maxCandidates {
					return out
				}
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	var words []types.Word
	for _, u := range utts {
		words = append(words, u.Words...)
	}
	return fromWords(words, w)
}

func candidate(start, end time.Duration, words []types.Word) (types.Candidate, bool) {
	text := transcript.Text(words)
	if text == "" {
		return types.Candidate{}, false
	}
	info, hook := Score(text)
	return types.Candidate{Start: start, End: end, Text: text, InfoScore: info, HookScore: hook}, true
}

// fromWords explores windows from a downsampled set of start words, always
// including one near the tail so the end of a long recording is covered.
func fromWords(words []types.Word, w Window) []types.Candidate {
	if len(words) < 2 {
		return nil
	}

	startStride := 1
	if len(words) > maxStartCount {
		startStride = (len(words) + maxStartCount - 1) / maxStartCount
	}
	starts := make([]int, 0, len(words)/startStride+2)
	for i := 0; i < len(words)-1; i += startStride {
		starts = append(starts, i)
	}
	if last := len(words) - 2; starts[len(starts)-1] != last {
		starts = append(starts, last)
	}

	var out []types.Candidate
	for _, i := range starts {
		start := dur(words[i].Start)
		for j := i + 1; j < len(words) && j-i <= maxWordsInWin; j++ {
			if (j-i)%endStride != 0 && j != i+1 {
				continue
			}
			end := dur(words[j].End)
			win := end - start
			if win > w.Max {
				break
			}
			if win < w.Min {
				continue
			}
			if c, ok := candidate(start, end, words[i:j+1]); ok {
				out = append(out, c)
				if len(out) >= maxCandidates {
					return out
				}
			}
		}
	}
	return out
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
