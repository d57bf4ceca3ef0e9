package subtitles

import (
	"fmt"
	"html"
	"io"
	"math"

	"github.com/forPelevin/recut/internal/domain/transcript"
	"github.com/forPelevin/recut/internal/types"
)

// vttTS converts ts milliseconds in the 00:00:00.000 format.
func vttTS(ts int64) string {
	sMs := int64(1000)
	mMs := 60 * sMs
	hMs := 60 * mMs

	h := ts / hMs
	m := (ts - (h * hMs)) / mMs
	s := ((ts - (h * hMs)) - m*mMs) / sMs
	ms := ((ts - (h * hMs)) - m*mMs) - s*sMs

	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func millis(sec float64) int64 { return int64(math.Round(sec * 1000)) }

// WebVTT writes one cue per utterance.
func WebVTT(w io.Writer, utts []types.Utterance) error {
	_, err := fmt.Fprintf(w, "WEBVTT\n")
	if err != nil {
		return fmt.Errorf("failed to write: %w", err)
	}
	for _, u := range utts {
		text := transcript.Text(u.Words)
		if text == "" {
			continue
		}
		_, err = fmt.Fprintf(w, "\n%s --> %s\n%s\n", vttTS(millis(u.Start)), vttTS(millis(u.End)), html.EscapeString(text))
		if err != nil {
			return fmt.Errorf("failed to write: %w", err)
		}
	}
	return nil
}
