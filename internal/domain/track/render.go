package track

import (
	"fmt"

	"github.com/forPelevin/recut/internal/domain/timeline"
)

// ToneFunc synthesizes duration seconds of replacement at rate. It must
// return Index(duration, rate) frames.
type ToneFunc[S any] func(duration float64, rate, channels int) []S

// PolishFunc post-processes one extracted piece. It must keep the length.
type PolishFunc[S any] func(piece []S, channels int) []S

type Options[S any] struct {
	// Tone replaces beep spans. When nil, beep spans keep the source data.
	Tone ToneFunc[S]
	// Polish is applied to every source piece.
	Polish PolishFunc[S]
}

// Render builds the output track described by plan. It either returns a
// complete track or an error; the input is never modified.
func Render[S any](t Track[S], plan Plan, opts Options[S]) (Track[S], error) {
	if err := t.validate(); err != nil {
		return Track[S]{}, err
	}
	if plan.Rate != t.Rate || plan.Length != t.Len() {
		return Track[S]{}, fmt.Errorf("plan grid %d frames @ %d does not match track %d frames @ %d",
			plan.Length, plan.Rate, t.Len(), t.Rate)
	}
	c := t.channels()

	chunks := make([][]S, 0, len(plan.Pieces))
	total := 0
	for i, pc := range plan.Pieces {
		var chunk []S
		switch {
		case pc.Kind == PieceTone && opts.Tone != nil:
			chunk = opts.Tone(pc.Duration, t.Rate, c)
			if len(chunk) != pc.Frames*c {
				return Track[S]{}, fmt.Errorf("piece %d: tone returned %d values, want %d", i, len(chunk), pc.Frames*c)
			}
		default:
			if pc.From < 0 || pc.To > t.Len() || pc.To < pc.From {
				return Track[S]{}, fmt.Errorf("piece %d: range [%d, %d) outside track of %d frames", i, pc.From, pc.To, t.Len())
			}
			chunk = t.Slice(pc.From, pc.To)
			if opts.Polish != nil && pc.Kind == PieceSource {
				chunk = opts.Polish(chunk, c)
				if len(chunk) != (pc.To-pc.From)*c {
					return Track[S]{}, fmt.Errorf("piece %d: polish changed length", i)
				}
			}
		}
		if len(chunk) == 0 {
			continue
		}
		chunks = append(chunks, chunk)
		total += len(chunk)
	}
	if total == 0 {
		return Track[S]{}, timeline.ErrEmptyResult
	}

	out := make([]S, 0, total)
	for _, chunk := range chunks {
		out = append(out, chunk...)
	}
	return Track[S]{Rate: t.Rate, Channels: c, Data: out}, nil
}

// KeepList reconstructs t from the keep windows, in keep-list order.
func KeepList[S any](t Track[S], keeps []timeline.Segment, opts Options[S]) (Track[S], Plan, error) {
	if err := t.validate(); err != nil {
		return Track[S]{}, Plan{}, err
	}
	plan, err := PlanKeep(keeps, t.Rate, t.Len())
	if err != nil {
		return Track[S]{}, Plan{}, err
	}
	out, err := Render(t, plan, opts)
	if err != nil {
		return Track[S]{}, Plan{}, err
	}
	return out, plan, nil
}

// Complement reconstructs t by dropping remove spans and replacing beep spans.
func Complement[S any](t Track[S], tagged []timeline.Tagged, opts Options[S]) (Track[S], Plan, error) {
	if err := t.validate(); err != nil {
		return Track[S]{}, Plan{}, err
	}
	plan, err := PlanComplement(tagged, t.Rate, t.Len())
	if err != nil {
		return Track[S]{}, Plan{}, err
	}
	out, err := Render(t, plan, opts)
	if err != nil {
		return Track[S]{}, Plan{}, err
	}
	return out, plan, nil
}
