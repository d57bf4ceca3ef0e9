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

// Dedupe asks the model which words of a voice-over survive once repeated
// takes are dropped. The result is a keep list in the order the model
// returned it. Malformed answers wrap timeline.ErrInvalidSegment.
func (a *Adapter) Dedupe(ctx context.Context, words []types.Word) ([]types.Word, error) {
	if len(words) == 0 {
		return nil, nil
	}

	type word struct {
		Idx   int     `json:"i"`
		Text  string  `json:"w"`
		Start float64 `json:"s"`
		End   float64 `json:"e"`
	}
	arr := make([]word, 0, len(words))
	for i, w := range words {
		arr = append(arr, word{Idx: i, Text: w.Display(), Start: w.Start, End: w.End})
	}
	wb, err := json.Marshal(arr)
	if err != nil {
		return nil, fmt.Errorf("marshal words: %w", err)
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"keep": map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
		},
		"required": []string{"keep"},
	}
	content, err := a.complete(ctx, "recut_dedupe", buildDedupePrompt(wb), schema)
	if err != nil {
		if errors.Is(err, errNoContent) {
			return nil, fmt.Errorf("dedupe: %w: %v", timeline.ErrInvalidSegment, err)
		}
		return nil, err
	}

	var out struct {
		Keep []int `json:"keep"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("dedupe: %w: %v", timeline.ErrInvalidSegment, err)
	}

	seen := make(map[int]struct{}, len(out.Keep))
	res := make([]types.Word, 0, len(out.Keep))
	for _, idx := range out.Keep {
		if idx < 0 || idx >= len(words) {
			return nil, fmt.Errorf("dedupe: word index %d outside [0, %d): %w", idx, len(words), timeline.ErrInvalidSegment)
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		res = append(res, words[idx])
	}
	a.log.Info("dedupe answered", slog.Int("words", len(words)), slog.Int("kept", len(res)))
	return res, nil
}

func buildDedupePrompt(wordsJSON []byte) string {
	return "You edit voice-over recordings. The speaker sometimes repeats a sentence or restarts a take. " +
		"Given the word list below (i = index, w = word, s/e = start/end seconds), keep only the final, correct " +
		"take of every repeated passage and drop the earlier attempts. Never rewrite or reorder words. " +
		"Return strictly valid JSON (no markdown, no code fences) with key \"keep\": the indexes of the words to keep, ascending." +
		"\n\nWords JSON:\n" + string(wordsJSON)
}
