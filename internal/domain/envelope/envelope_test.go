package envelope

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func constant(n int, v int16) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestFade(t *testing.T) {
	t.Run("ramps at both ends", func(t *testing.T) {
		in := constant(100, 1000)
		out := Fade(in, 1, 11)
		require.Len(t, out, 100)
		require.Equal(t, int16(0), out[0])
		require.Equal(t, int16(500), out[5])
		require.Equal(t, int16(1000), out[10])
		require.Equal(t, int16(1000), out[50])
		require.Equal(t, int16(1000), out[89])
		require.Equal(t, int16(0), out[99])
		// input untouched
		require.Equal(t, int16(1000), in[0])
	})

	t.Run("short segment uses half length", func(t *testing.T) {
		in := constant(7, 1000)
		out := Fade(in, 1, 50)
		require.Len(t, out, 7)
		// f = 3: first three ramp up, middle untouched, last three ramp down
		require.Equal(t, []int16{0, 500, 1000, 1000, 1000, 500, 0}, out)
	})

	t.Run("per channel", func(t *testing.T) {
		in := []int16{100, -100, 100, -100, 100, -100, 100, -100}
		out := Fade(in, 2, 2)
		require.Equal(t, []int16{0, 0, 100, -100, 100, -100, 0, 0}, out)
	})

	t.Run("tiny and empty", func(t *testing.T) {
		require.Equal(t, []int16{5}, Fade([]int16{5}, 1, 10))
		require.Empty(t, Fade(nil, 1, 10))
		require.Equal(t, []int16{3, 4}, Fade([]int16{3, 4}, 1, 0))
	})
}

func TestNormalize(t *testing.T) {
	t.Run("silence unchanged", func(t *testing.T) {
		in := make([]int16, 32)
		out := Normalize(in, DefaultTarget)
		require.Equal(t, in, out)
	})

	t.Run("scales to target", func(t *testing.T) {
		out := Normalize([]int16{100, -200, 50}, 30000)
		require.Equal(t, []int16{15000, -30000, 7500}, out)
		require.Equal(t, 30000, Peak(out))
	})

	t.Run("min int16 peak", func(t *testing.T) {
		out := Normalize([]int16{-32768, 16384}, 16384)
		require.Equal(t, int16(-16384), out[0])
		require.Equal(t, int16(8192), out[1])
	})
}

func TestTone(t *testing.T) {
	t.Run("exact length", func(t *testing.T) {
		for _, d := range []float64{0.1, 0.2, 0.3, 1.0 / 3, 0.0001, 2.71828} {
			for _, rate := range []int{8000, 16000, 44100} {
				want := ToneFrames(d, rate)
				require.Len(t, Tone(DefaultTone(), d, rate, 1), want, "d=%v rate=%d", d, rate)
				require.Len(t, Tone(DefaultTone(), d, rate, 2), want*2)
			}
		}
		require.Equal(t, 4800, ToneFrames(0.3, 16000))
		require.Equal(t, 5333, ToneFrames(1.0/3, 16000))
	})

	t.Run("peak and edges", func(t *testing.T) {
		out := Tone(ToneConfig{Frequency: 1000, Amplitude: 0.3, RampMs: 10}, 0.5, 16000, 1)
		require.Equal(t, 9830, Peak(out))
		require.Equal(t, int16(0), out[0])
		require.Equal(t, int16(0), out[len(out)-1])
		// attack keeps early samples quiet
		require.Less(t, Peak(out[:16]), 1000)
	})

	t.Run("empty duration", func(t *testing.T) {
		require.Nil(t, Tone(DefaultTone(), 0, 16000, 1))
		require.Nil(t, Tone(DefaultTone(), -1, 16000, 1))
	})
}

func TestPolish(t *testing.T) {
	p := NewPolish(1000, 2, 20000)
	require.Equal(t, 2, p.FadeFrames)
	out := p.Apply([]int16{100, 100, 100, 100, 100, 100}, 1)
	require.Equal(t, []int16{0, 20000, 20000, 20000, 20000, 0}, out)
}
