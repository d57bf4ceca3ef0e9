package wavfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forPelevin/recut/internal/domain/timeline"
	"github.com/forPelevin/recut/internal/domain/track"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	data := make([]int16, 1600)
	for i := range data {
		data[i] = int16((i*97)%20000 - 10000)
	}
	in := track.Track[int16]{Rate: 16000, Channels: 1, Data: data}

	s := New()
	require.NoError(t, s.Save(path, in))

	out, err := s.Load(path)
	require.NoError(t, err)
	require.Equal(t, 16000, out.Rate)
	require.Equal(t, 1, out.Channels)
	require.Equal(t, data, out.Data)
}

func TestLoadDownmixesStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	in := track.Track[int16]{Rate: 8000, Channels: 2, Data: []int16{100, 300, -200, -400, 1000, 0}}

	s := New()
	require.NoError(t, s.Save(path, in))

	out, err := s.Load(path)
	require.NoError(t, err)
	require.Equal(t, []int16{200, -300, 500}, out.Data)
	require.Equal(t, 1, out.Channels)
}

func TestLoadUnavailable(t *testing.T) {
	dir := t.TempDir()
	_, err := New().Load(filepath.Join(dir, "missing.wav"))
	require.ErrorIs(t, err, timeline.ErrSourceUnavailable)

	junk := filepath.Join(dir, "junk.wav")
	require.NoError(t, os.WriteFile(junk, []byte("definitely not riff data"), 0o644))
	_, err = New().Load(junk)
	require.ErrorIs(t, err, timeline.ErrSourceUnavailable)
}

func TestSaveRejectsZeroRate(t *testing.T) {
	require.Error(t, New().Save(filepath.Join(t.TempDir(), "x.wav"), track.Track[int16]{}))
}

func TestTo16(t *testing.T) {
	tests := []struct {
		v, depth, want int
	}{
		{v: 128, depth: 8, want: 0},
		{v: 255, depth: 8, want: 127 << 8},
		{v: 0, depth: 8, want: -128 << 8},
		{v: -1234, depth: 16, want: -1234},
		{v: 0x7fff00, depth: 24, want: 0x7fff},
		{v: -0x10000, depth: 32, want: -1},
	}
	for _, tt := range tests {
		got, err := to16(tt.v, tt.depth)
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}

	_, err := to16(0, 12)
	require.Error(t, err)
}
