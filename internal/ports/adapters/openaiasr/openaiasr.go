package openaiasr

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/forPelevin/recut/internal/domain/timeline"
	"github.com/forPelevin/recut/internal/types"
)

type Adapter struct {
	client *openai.Client
	model  string
}

// New builds a transcription adapter for the OpenAI API or any compatible
// server when baseURL is set (it must include the /v1 suffix).
func New(apiKey, model, baseURL string) *Adapter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &Adapter{client: openai.NewClientWithConfig(cfg), model: model}
}

func (a *Adapter) Transcribe(ctx context.Context, wavPath, _ string) (types.Transcript, error) {
	if _, err := os.Stat(wavPath); err != nil {
		return types.Transcript{}, fmt.Errorf("stat audio: %w: %v", timeline.ErrSourceUnavailable, err)
	}
	resp, err := a.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    a.model,
		FilePath: wavPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
			openai.TranscriptionTimestampGranularitySegment,
		},
	})
	if err != nil {
		return types.Transcript{}, fmt.Errorf("openai transcription: %w", err)
	}
	return fromResponse(resp), nil
}

// fromResponse distributes the response's flat word list over its segments
// by start time.
func fromResponse(resp openai.AudioResponse) types.Transcript {
	var tr types.Transcript
	for _, s := range resp.Segments {
		tr.Segments = append(tr.Segments, types.Segment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)})
	}
	if len(tr.Segments) == 0 && (len(resp.Words) > 0 || strings.TrimSpace(resp.Text) != "") {
		seg := types.Segment{Text: strings.TrimSpace(resp.Text), End: resp.Duration}
		if n := len(resp.Words); n > 0 {
			seg.Start, seg.End = resp.Words[0].Start, resp.Words[n-1].End
		}
		tr.Segments = append(tr.Segments, seg)
	}

	si := 0
	for _, w := range resp.Words {
		text := strings.TrimSpace(w.Word)
		if text == "" {
			continue
		}
		for si+1 < len(tr.Segments) && w.Start >= tr.Segments[si].End {
			si++
		}
		tr.Segments[si].Words = append(tr.Segments[si].Words, types.Word{Start: w.Start, End: w.End, Word: text})
	}
	return tr
}
