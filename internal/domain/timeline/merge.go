package timeline

import (
	"fmt"
	"sort"
)

// Merge validates segs and coalesces overlapping or touching entries into a
// sorted set with a strict gap between neighbours. The input is not modified.
func Merge(segs []Segment) ([]Segment, error) {
	for i, s := range segs {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
	}
	if len(segs) == 0 {
		return nil, nil
	}

	sorted := make([]Segment, len(segs))
	copy(sorted, segs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	out := make([]Segment, 0, len(sorted))
	out = append(out, sorted[0])
	for _, s := range sorted[1:] {
		last := &out[len(out)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// MergeSet is Merge for a single action.
func MergeSet(a Action, segs []Segment) (MergedSet, error) {
	merged, err := Merge(segs)
	if err != nil {
		return MergedSet{}, fmt.Errorf("merge %s: %w", a, err)
	}
	return MergedSet{Action: a, Segments: merged}, nil
}

// MergeTagged merges remove and beep segments independently and returns a
// single list sorted by start. Keep entries carry no work in complement mode
// and are dropped.
//
// Where a remove overlaps a beep the beep wins: the remove is trimmed, and
// split if needed, so that the whole beep span survives.
func MergeTagged(tagged []Tagged) ([]Tagged, error) {
	var removes, beeps []Segment
	for i, t := range tagged {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		switch t.Action {
		case ActionRemove:
			removes = append(removes, t.Segment)
		case ActionBeep:
			beeps = append(beeps, t.Segment)
		}
	}

	rm, err := MergeSet(ActionRemove, removes)
	if err != nil {
		return nil, err
	}
	bp, err := MergeSet(ActionBeep, beeps)
	if err != nil {
		return nil, err
	}

	out := make([]Tagged, 0, len(rm.Segments)+len(bp.Segments))
	for _, r := range rm.Segments {
		for _, s := range subtract(r, bp.Segments) {
			out = append(out, Tagged{Segment: s, Action: ActionRemove})
		}
	}
	out = append(out, Tag(bp.Segments, ActionBeep)...)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

// subtract removes every span of cuts (sorted, non-overlapping) from r.
func subtract(r Segment, cuts []Segment) []Segment {
	var out []Segment
	cur := r.Start
	for _, c := range cuts {
		if c.End <= cur {
			continue
		}
		if c.Start >= r.End {
			break
		}
		if c.Start > cur {
			out = append(out, Segment{Start: cur, End: c.Start})
		}
		if c.End > cur {
			cur = c.End
		}
	}
	if cur < r.End {
		out = append(out, Segment{Start: cur, End: r.End})
	}
	return out
}
