package types

import (
	"time"

	"github.com/forPelevin/recut/internal/domain/timeline"
	"github.com/forPelevin/recut/internal/domain/track"
)

type Transcript struct {
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

type Word struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Word       string  `json:"word"`
	Punctuated string  `json:"punctuated_word,omitempty"`
}

// Display prefers the punctuated form when the ASR supplied one.
func (w Word) Display() string {
	if w.Punctuated != "" {
		return w.Punctuated
	}
	return w.Word
}

func (w Word) Span() timeline.Segment {
	return timeline.Segment{Start: w.Start, End: w.End}
}

type Utterance struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"transcript"`
	Words []Word  `json:"words"`
}

type Candidate struct {
	Start time.Duration
	End   time.Duration
	Text  string

	InfoScore float64
	HookScore float64
}

// ShortSpec is one short clip assembled from one or more source spans.
type ShortSpec struct {
	Spans  []timeline.Segment
	Title  string
	Script string
	Tags   []string
	Reason string
}

// Duration is the summed length of the spans.
func (s ShortSpec) Duration() time.Duration {
	var sec float64
	for _, sp := range s.Spans {
		sec += sp.Duration()
	}
	return time.Duration(sec * float64(time.Second))
}

type Mode string

const (
	ModeDedupe Mode = "dedupe"
	ModeClean  Mode = "clean"
	ModeShorts Mode = "shorts"
)

func (m Mode) IsValid() bool {
	switch m {
	case ModeDedupe, ModeClean, ModeShorts:
		return true
	default:
		return false
	}
}

type Manifest struct {
	RunID          string            `json:"run_id"`
	Mode           Mode              `json:"mode"`
	Input          string            `json:"input"`
	Output         string            `json:"output,omitempty"`
	Subtitles      string            `json:"subtitles,omitempty"`
	Fallback       bool              `json:"fallback,omitempty"`
	FallbackReason string            `json:"fallback_reason,omitempty"`
	Decisions      []timeline.Tagged `json:"decisions,omitempty"`
	Report         *track.Report     `json:"report,omitempty"`
	Clips          []ManifestClip    `json:"clips,omitempty"`
}

type ManifestClip struct {
	ID        string             `json:"id"`
	Spans     []timeline.Segment `json:"spans"`
	DurSec    float64            `json:"duration_sec"`
	File      string             `json:"file"`
	Subtitles string             `json:"subtitles"`
	Title     string             `json:"title"`
	Script    string             `json:"script"`
	Tags      []string           `json:"tags"`
	Reason    string             `json:"reason,omitempty"`
}
