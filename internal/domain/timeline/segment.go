package timeline

import (
	"fmt"
	"math"
)

// Segment is a half-open interval [Start, End) in seconds on the source timeline.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (s Segment) Duration() float64 { return s.End - s.Start }

func (s Segment) Validate() error {
	if math.IsNaN(s.Start) || math.IsNaN(s.End) || math.IsInf(s.Start, 0) || math.IsInf(s.End, 0) {
		return fmt.Errorf("%w: non-finite bounds [%v, %v)", ErrInvalidSegment, s.Start, s.End)
	}
	if s.Start >= s.End {
		return fmt.Errorf("%w: start %.3f >= end %.3f", ErrInvalidSegment, s.Start, s.End)
	}
	return nil
}

type Action string

const (
	ActionKeep   Action = "keep"
	ActionRemove Action = "remove"
	ActionBeep   Action = "beep"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionKeep, ActionRemove, ActionBeep:
		return true
	default:
		return false
	}
}

// Tagged is a segment together with the treatment it should receive.
type Tagged struct {
	Segment
	Action Action `json:"action"`
}

func (t Tagged) Validate() error {
	if !t.Action.IsValid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidSegment, t.Action)
	}
	return t.Segment.Validate()
}

// MergedSet holds segments of a single action, sorted by start with a strict
// gap between neighbours.
type MergedSet struct {
	Action   Action
	Segments []Segment
}

// Total returns the summed duration of the set in seconds.
func (m MergedSet) Total() float64 {
	var sum float64
	for _, s := range m.Segments {
		sum += s.Duration()
	}
	return sum
}

// Tag returns a copy of segs with every entry tagged as a.
func Tag(segs []Segment, a Action) []Tagged {
	out := make([]Tagged, 0, len(segs))
	for _, s := range segs {
		out = append(out, Tagged{Segment: s, Action: a})
	}
	return out
}
