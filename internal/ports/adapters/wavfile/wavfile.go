// Package wavfile loads and saves PCM WAV files as int16 tracks.
package wavfile

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/forPelevin/recut/internal/domain/timeline"
	"github.com/forPelevin/recut/internal/domain/track"
)

const (
	pcmFormat   = 1
	outBitDepth = 16
)

type Store struct{}

func New() Store { return Store{} }

// Load decodes 8, 16, 24 or 32-bit PCM. Multi-channel input is downmixed to
// mono by averaging the channels of each frame.
func (Store) Load(path string) (track.Track[int16], error) {
	f, err := os.Open(path)
	if err != nil {
		return track.Track[int16]{}, fmt.Errorf("open wav: %w: %v", timeline.ErrSourceUnavailable, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return track.Track[int16]{}, fmt.Errorf("%w: %s is not a valid wav file", timeline.ErrSourceUnavailable, path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return track.Track[int16]{}, fmt.Errorf("decode wav: %w: %v", timeline.ErrSourceUnavailable, err)
	}

	depth := int(d.BitDepth)
	channels := int(d.NumChans)
	if channels <= 0 {
		channels = 1
	}
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	if _, err := to16(0, depth); err != nil {
		return track.Track[int16]{}, fmt.Errorf("%w: %v", timeline.ErrSourceUnavailable, err)
	}

	frames := len(buf.Data) / channels
	out := make([]int16, frames)
	for i := range frames {
		var sum int
		for c := range channels {
			v, _ := to16(buf.Data[i*channels+c], depth)
			sum += v
		}
		out[i] = int16(sum / channels)
	}
	return track.Track[int16]{Rate: int(d.SampleRate), Channels: 1, Data: out}, nil
}

func to16(v, depth int) (int, error) {
	switch depth {
	case 8:
		return (v - 128) << 8, nil
	case 16:
		return v, nil
	case 24:
		return v >> 8, nil
	case 32:
		return v >> 16, nil
	default:
		return 0, fmt.Errorf("unsupported bit depth %d", depth)
	}
}

// Save writes t as 16-bit PCM.
func (Store) Save(path string, t track.Track[int16]) (err error) {
	if t.Rate <= 0 {
		return errors.New("wav save: rate must be > 0")
	}
	channels := max(t.Channels, 1)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close wav: %w", cerr)
		}
	}()

	data := make([]int, len(t.Data))
	for i, s := range t.Data {
		data[i] = int(s)
	}
	enc := wav.NewEncoder(f, t.Rate, outBitDepth, channels, pcmFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: t.Rate},
		Data:           data,
		SourceBitDepth: outBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
