// Package envelope holds the sample-level processors used to polish
// reconstructed audio: fades, peak normalization and synthetic tones.
// Samples are interleaved signed 16-bit PCM.
package envelope

import "math"

const (
	// MaxAmplitude is the largest positive int16 sample.
	MaxAmplitude = math.MaxInt16

	DefaultFadeMs = 50
	// DefaultTarget leaves headroom below MaxAmplitude.
	DefaultTarget int16 = 30000
)

// Fade returns a copy of samples with a linear fade-in over the first f frames
// and a linear fade-out over the last f frames, f = min(fadeFrames, n/2).
// Every channel gets the same gain.
func Fade(samples []int16, channels, fadeFrames int) []int16 {
	if channels <= 0 {
		channels = 1
	}
	out := make([]int16, len(samples))
	copy(out, samples)

	n := len(out) / channels
	f := min(fadeFrames, n/2)
	if f <= 0 {
		return out
	}
	for i := 0; i < f; i++ {
		in := ramp(i, f)
		outGain := 1 - in
		head := i * channels
		tail := (n - f + i) * channels
		for c := 0; c < channels; c++ {
			out[head+c] = int16(float64(out[head+c]) * in)
			out[tail+c] = int16(float64(out[tail+c]) * outGain)
		}
	}
	return out
}

// ramp is the i-th of f evenly spaced points from 0 to 1 inclusive.
func ramp(i, f int) float64 {
	if f <= 1 {
		return 0
	}
	return float64(i) / float64(f-1)
}

// Peak returns max(|s|) over samples.
func Peak(samples []int16) int {
	peak := 0
	for _, s := range samples {
		v := int(s)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

// Normalize returns a copy of samples scaled so the peak equals target.
// Silence is returned unchanged.
func Normalize(samples []int16, target int16) []int16 {
	out := make([]int16, len(samples))
	copy(out, samples)

	peak := Peak(samples)
	if peak == 0 {
		return out
	}
	factor := float64(target) / float64(peak)
	for i, s := range out {
		out[i] = clip16(float64(s) * factor)
	}
	return out
}

func clip16(v float64) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}

// Polish normalizes and then fades one extracted piece of audio.
type Polish struct {
	FadeFrames int
	Target     int16
}

// NewPolish converts a fade length in milliseconds to frames at rate.
func NewPolish(rate int, fadeMs float64, target int16) Polish {
	return Polish{
		FadeFrames: int(math.Round(float64(rate) * fadeMs / 1000)),
		Target:     target,
	}
}

func (p Polish) Apply(samples []int16, channels int) []int16 {
	out := samples
	if p.Target > 0 {
		out = Normalize(out, p.Target)
	}
	return Fade(out, channels, p.FadeFrames)
}
