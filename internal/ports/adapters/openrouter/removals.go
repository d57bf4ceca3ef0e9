package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/forPelevin/recut/internal/domain/timeline"
	"github.com/forPelevin/recut/internal/types"
)

// Removals asks the model for spans holding duplicated or erroneous
// utterances. Every span is validated; one malformed span fails the call
// with timeline.ErrInvalidSegment.
func (a *Adapter) Removals(ctx context.Context, utts []types.Utterance) ([]timeline.Segment, error) {
	if len(utts) == 0 {
		return nil, nil
	}
	ub, err := json.Marshal(map[string]any{"utterances": utts})
	if err != nil {
		return nil, fmt.Errorf("marshal utterances: %w", err)
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"removal_segments": map[string]any{"type": "array", "items": spanSchema()},
		},
		"required": []string{"removal_segments"},
	}
	content, err := a.complete(ctx, "recut_removals", buildRemovalsPrompt(ub), schema)
	if err != nil {
		if errors.Is(err, errNoContent) {
			return nil, fmt.Errorf("removals: %w: %v", timeline.ErrInvalidSegment, err)
		}
		return nil, err
	}
	segs, err := parseRemovals(content)
	if err != nil {
		return nil, err
	}
	a.log.Info("removals answered", slog.Int("utterances", len(utts)), slog.Int("segments", len(segs)))
	return segs, nil
}

func parseRemovals(content string) ([]timeline.Segment, error) {
	var out struct {
		Segments []struct {
			StartSec *float64 `json:"start_sec"`
			EndSec   *float64 `json:"end_sec"`
		} `json:"removal_segments"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("removals: %w: %v", timeline.ErrInvalidSegment, err)
	}
	res := make([]timeline.Segment, 0, len(out.Segments))
	for i, s := range out.Segments {
		if s.StartSec == nil || s.EndSec == nil {
			return nil, fmt.Errorf("removals: segment %d missing bounds: %w", i, timeline.ErrInvalidSegment)
		}
		seg := timeline.Segment{Start: *s.StartSec, End: *s.EndSec}
		if err := seg.Validate(); err != nil {
			return nil, fmt.Errorf("removals: segment %d: %w", i, err)
		}
		res = append(res, seg)
	}
	return res, nil
}

func buildRemovalsPrompt(uttsJSON []byte) string {
	return "You are an audio transcription editor for voice-over recordings. You are given a JSON object with key " +
		"\"utterances\"; each utterance has start and end seconds, the transcript text and its words. " +
		"The speaker has accidentally recorded duplicate audio: when a passage is repeated, only the final take is correct. " +
		"Identify the earlier duplicated or erroneous utterances. " +
		"Return strictly valid JSON (no markdown, no code fences) with key \"removal_segments\": a list of " +
		"{start_sec, end_sec} spans of audio to remove, using the timestamps exactly as provided." +
		"\n\nInput JSON:\n" + string(uttsJSON)
}
