// Package track reconstructs media tracks from segment decisions.
//
// A Track is a decoded buffer of interleaved samples (audio) or frames
// (video, one "channel"). Reconstruction is split into planning, which only
// needs the rate and length and works in frame indices, and rendering, which
// copies data according to the plan. Video is cut by ffmpeg from the same
// plan converted back to spans.
package track

import (
	"fmt"
	"math"
)

type Track[S any] struct {
	Rate     int // frames per second
	Channels int // interleaved values per frame
	Data     []S
}

func (t Track[S]) channels() int {
	if t.Channels <= 0 {
		return 1
	}
	return t.Channels
}

// Len is the number of frames.
func (t Track[S]) Len() int { return len(t.Data) / t.channels() }

// Duration in seconds.
func (t Track[S]) Duration() float64 {
	if t.Rate <= 0 {
		return 0
	}
	return float64(t.Len()) / float64(t.Rate)
}

// Slice returns the frames [from, to) without copying.
func (t Track[S]) Slice(from, to int) []S {
	c := t.channels()
	return t.Data[from*c : to*c]
}

func (t Track[S]) validate() error {
	if t.Rate <= 0 {
		return fmt.Errorf("track rate must be > 0, got %d", t.Rate)
	}
	if len(t.Data)%t.channels() != 0 {
		return fmt.Errorf("track data length %d is not a multiple of %d channels", len(t.Data), t.channels())
	}
	return nil
}

// Index converts seconds to a frame index, rounding to nearest.
func Index(sec float64, rate int) int {
	return int(math.Round(sec * float64(rate)))
}
