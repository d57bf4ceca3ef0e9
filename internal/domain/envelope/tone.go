package envelope

import "math"

type ToneConfig struct {
	Frequency float64 // Hz
	Amplitude float64 // fraction of MaxAmplitude, (0, 1]
	RampMs    float64 // attack and release length
}

func DefaultTone() ToneConfig {
	return ToneConfig{Frequency: 1000, Amplitude: 0.3, RampMs: 10}
}

func (c ToneConfig) withDefaults() ToneConfig {
	d := DefaultTone()
	if c.Frequency <= 0 {
		c.Frequency = d.Frequency
	}
	if c.Amplitude <= 0 || c.Amplitude > 1 {
		c.Amplitude = d.Amplitude
	}
	if c.RampMs < 0 {
		c.RampMs = d.RampMs
	}
	return c
}

// ToneFrames is the number of frames Tone produces for duration at rate.
func ToneFrames(duration float64, rate int) int {
	if duration <= 0 || rate <= 0 {
		return 0
	}
	return int(math.Round(duration * float64(rate)))
}

// Tone synthesizes a sine beep of ToneFrames(duration, rate) frames with a
// linear attack and release. The peak equals Amplitude * MaxAmplitude and
// every channel carries the same signal.
func Tone(cfg ToneConfig, duration float64, rate, channels int) []int16 {
	cfg = cfg.withDefaults()
	if channels <= 0 {
		channels = 1
	}
	n := ToneFrames(duration, rate)
	if n == 0 {
		return nil
	}

	r := int(math.Round(cfg.RampMs * float64(rate) / 1000))
	r = min(r, n/2)

	raw := make([]float64, n)
	peak := 0.0
	for i := range raw {
		t := float64(i) / float64(rate)
		v := math.Sin(2*math.Pi*cfg.Frequency*t) * toneEnvelope(i, n, r)
		raw[i] = v
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	out := make([]int16, n*channels)
	if peak == 0 {
		return out
	}
	scale := cfg.Amplitude * MaxAmplitude / peak
	for i, v := range raw {
		s := clip16(math.Round(v * scale))
		for c := 0; c < channels; c++ {
			out[i*channels+c] = s
		}
	}
	return out
}

func toneEnvelope(i, n, r int) float64 {
	if r <= 0 {
		return 1
	}
	e := 1.0
	if a := float64(i) / float64(r); a < e {
		e = a
	}
	if d := float64(n-1-i) / float64(r); d < e {
		e = d
	}
	return e
}
