package track

import (
	"fmt"

	"github.com/forPelevin/recut/internal/domain/timeline"
)

type PieceKind int

const (
	PieceSource PieceKind = iota
	PieceTone
)

func (k PieceKind) String() string {
	switch k {
	case PieceSource:
		return "source"
	case PieceTone:
		return "tone"
	default:
		return fmt.Sprintf("PieceKind(%d)", int(k))
	}
}

// Piece is one run of output frames. Source pieces copy [From, To) from the
// input. Tone pieces synthesize Frames frames for Duration seconds and keep
// From and To as the replaced span.
type Piece struct {
	Kind     PieceKind
	From, To int
	Frames   int
	Duration float64
}

// Report summarizes what planning absorbed locally.
type Report struct {
	Clamped int     `json:"clamped"` // segments pulled back inside the track
	Skipped int     `json:"skipped"` // segments that collapsed to zero frames
	Kept    float64 `json:"kept_sec"`
	Removed float64 `json:"removed_sec"`
	Beeped  float64 `json:"beeped_sec"`
}

type Plan struct {
	Rate   int
	Length int // input frames
	Pieces []Piece
	Report Report
}

// Frames is the output length in frames.
func (p Plan) Frames() int {
	n := 0
	for _, pc := range p.Pieces {
		n += pc.Frames
	}
	return n
}

func (p *Plan) source(from, to int) {
	if to <= from {
		return
	}
	p.Pieces = append(p.Pieces, Piece{Kind: PieceSource, From: from, To: to, Frames: to - from})
	p.Report.Kept += float64(to-from) / float64(p.Rate)
}

// span is a segment resolved against a track of length frames.
type span struct {
	from, to   int
	start, end float64 // clamped seconds
	clamped    bool
}

func resolve(s timeline.Segment, rate, length int) span {
	maxSec := float64(length) / float64(rate)
	sp := span{start: s.Start, end: s.End}
	if sp.start < 0 {
		sp.start, sp.clamped = 0, true
	}
	if sp.start > maxSec {
		sp.start, sp.clamped = maxSec, true
	}
	if sp.end > maxSec {
		sp.end, sp.clamped = maxSec, true
	}
	sp.from = clampIndex(Index(sp.start, rate), length)
	sp.to = clampIndex(Index(sp.end, rate), length)
	return sp
}

func clampIndex(i, length int) int {
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

func checkGrid(rate, length int) error {
	if rate <= 0 {
		return fmt.Errorf("rate must be > 0, got %d", rate)
	}
	if length < 0 {
		return fmt.Errorf("length must be >= 0, got %d", length)
	}
	return nil
}

// PlanKeep plans keep-list reconstruction. Pieces follow the order of keeps,
// not the source timeline, so reordered keep lists are honoured.
func PlanKeep(keeps []timeline.Segment, rate, length int) (Plan, error) {
	if err := checkGrid(rate, length); err != nil {
		return Plan{}, err
	}
	if len(keeps) == 0 {
		return Plan{}, fmt.Errorf("keep list: %w", timeline.ErrEmptyResult)
	}
	for i, k := range keeps {
		if err := k.Validate(); err != nil {
			return Plan{}, fmt.Errorf("keep %d: %w", i, err)
		}
	}

	p := Plan{Rate: rate, Length: length}
	for _, k := range keeps {
		sp := resolve(k, rate, length)
		if sp.clamped {
			p.Report.Clamped++
		}
		if sp.to <= sp.from {
			p.Report.Skipped++
			continue
		}
		p.source(sp.from, sp.to)
	}
	if p.Frames() == 0 {
		return Plan{}, fmt.Errorf("all %d keep segments collapsed: %w", len(keeps), timeline.ErrEmptyResult)
	}
	return p, nil
}

// PlanComplement plans gap-complement reconstruction: everything outside the
// merged remove and beep segments is copied, beep spans become tones of the
// span's exact duration and remove spans are dropped.
func PlanComplement(tagged []timeline.Tagged, rate, length int) (Plan, error) {
	if err := checkGrid(rate, length); err != nil {
		return Plan{}, err
	}
	merged, err := timeline.MergeTagged(tagged)
	if err != nil {
		return Plan{}, err
	}

	p := Plan{Rate: rate, Length: length}
	cursor := 0
	for _, t := range merged {
		sp := resolve(t.Segment, rate, length)
		if sp.clamped {
			p.Report.Clamped++
		}
		if sp.from < cursor {
			sp.from = cursor
		}

		switch t.Action {
		case timeline.ActionBeep:
			// The tone length comes from the span's duration, not its
			// rounded ends, so a short beep can replace zero source frames.
			d := sp.end - sp.start
			n := Index(d, rate)
			if n <= 0 {
				p.Report.Skipped++
				continue
			}
			to := max(sp.to, sp.from)
			p.source(cursor, sp.from)
			p.Pieces = append(p.Pieces, Piece{Kind: PieceTone, From: sp.from, To: to, Frames: n, Duration: d})
			p.Report.Beeped += d
			cursor = to
		case timeline.ActionRemove:
			if sp.to <= sp.from {
				p.Report.Skipped++
				continue
			}
			p.source(cursor, sp.from)
			p.Report.Removed += float64(sp.to-sp.from) / float64(rate)
			cursor = sp.to
		}
	}
	p.source(cursor, length)

	if p.Frames() == 0 {
		return Plan{}, fmt.Errorf("nothing left after %d segments: %w", len(merged), timeline.ErrEmptyResult)
	}
	return p, nil
}

// Spans converts the plan back into seconds on the source timeline, joining
// pieces that continue exactly where the previous one stopped. Tone pieces
// contribute the span they replace.
func (p Plan) Spans() []timeline.Segment {
	var out []timeline.Segment
	prevTo := -1
	for _, pc := range p.Pieces {
		if pc.To <= pc.From {
			continue
		}
		start := float64(pc.From) / float64(p.Rate)
		end := float64(pc.To) / float64(p.Rate)
		if pc.From == prevTo && len(out) > 0 {
			out[len(out)-1].End = end
		} else {
			out = append(out, timeline.Segment{Start: start, End: end})
		}
		prevTo = pc.To
	}
	return out
}
