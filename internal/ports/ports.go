package ports

import (
	"context"
	"time"

	"github.com/forPelevin/recut/internal/domain/timeline"
	"github.com/forPelevin/recut/internal/domain/track"
	"github.com/forPelevin/recut/internal/types"
)

type RenderOptions struct {
	// Vertical letterboxes the output into Width x Height.
	Vertical bool
	Width    int
	Height   int
	// BurnASS is an optional subtitle file burned into the picture.
	BurnASS string
}

type VideoTool interface {
	ExtractAudio(ctx context.Context, in, outWav string, rate int) error
	ProbeDuration(ctx context.Context, in string) (time.Duration, error)
	ProbeFrameRate(ctx context.Context, in string) (float64, error)
	RenderSpans(ctx context.Context, in string, spans []timeline.Segment, out string, opts RenderOptions) error
}

type ASR interface {
	Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error)
}

type AudioStore interface {
	Load(path string) (track.Track[int16], error)
	Save(path string, t track.Track[int16]) error
}

type Downloader interface {
	Download(ctx context.Context, url, dir string) (string, error)
}

// Deduper returns the words that survive de-duplication, a keep list.
type Deduper interface {
	Dedupe(ctx context.Context, words []types.Word) ([]types.Word, error)
}

// Remover returns spans of duplicated or erroneous speech to drop.
type Remover interface {
	Removals(ctx context.Context, utts []types.Utterance) ([]timeline.Segment, error)
}

// Classifier tags words for complement reconstruction.
type Classifier interface {
	Classify(words []types.Word) []timeline.Tagged
}

type ShortsPicker interface {
	PickShorts(
		ctx context.Context,
		tr types.Transcript,
		cands []types.Candidate,
		n int,
		minDur time.Duration,
		maxDur time.Duration,
	) ([]types.ShortSpec, error)
}
