package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forPelevin/recut/internal/domain/timeline"
	"github.com/forPelevin/recut/internal/domain/track"
	"github.com/forPelevin/recut/internal/types"
)

func TestWords(t *testing.T) {
	tr := types.Transcript{Segments: []types.Segment{
		{Words: []types.Word{{Start: 1, End: 1.5, Word: " world "}, {Start: 2, End: 2.5, Word: "  "}}},
		{Words: []types.Word{{Start: 0, End: 0.5, Word: "hello"}, {Start: 3, End: 2, Word: "broken"}}},
	}}
	got := Words(tr)
	require.Equal(t, []types.Word{
		{Start: 0, End: 0.5, Word: "hello"},
		{Start: 1, End: 1.5, Word: "world"},
	}, got)
}

func TestUtterances(t *testing.T) {
	words := []types.Word{
		{Start: 0.0, End: 0.3, Word: "hi", Punctuated: "Hi."},
		{Start: 0.4, End: 0.6, Word: "my", Punctuated: "My"},
		{Start: 0.7, End: 0.9, Word: "name", Punctuated: "name"},
		{Start: 2.5, End: 2.8, Word: "again", Punctuated: "again"},
		{Start: 2.9, End: 3.1, Word: "ok", Punctuated: "Ok?"},
	}

	got := Utterances(words, 0)
	require.Len(t, got, 3)
	require.Equal(t, "hi", got[0].Text)
	require.Equal(t, "my name", got[1].Text)
	require.Equal(t, 0.4, got[1].Start)
	require.Equal(t, 0.9, got[1].End)
	require.Len(t, got[1].Words, 2)
	require.Equal(t, "again ok", got[2].Text)
	require.Equal(t, 3.1, got[2].End)

	require.Empty(t, Utterances(nil, 1))
}

func TestText(t *testing.T) {
	require.Equal(t, "Hi. there", Text([]types.Word{{Word: "hi", Punctuated: "Hi."}, {Word: "there"}}))
}

func TestRemapKeepList(t *testing.T) {
	words := []types.Word{
		{Start: 1.1, End: 1.4, Word: "kept"},
		{Start: 3.0, End: 3.5, Word: "gone"},
		{Start: 5.2, End: 5.6, Word: "later"},
		{Start: 1.9, End: 2.3, Word: "edge"},
	}
	plan, err := track.PlanKeep([]timeline.Segment{{Start: 5, End: 6}, {Start: 1, End: 2}}, 100, 1000)
	require.NoError(t, err)

	got := Remap(words, plan)
	require.Len(t, got, 3)

	require.Equal(t, "later", got[0].Word)
	require.InDelta(t, 0.2, got[0].Start, 1e-9)
	require.InDelta(t, 0.6, got[0].End, 1e-9)

	require.Equal(t, "kept", got[1].Word)
	require.InDelta(t, 1.1, got[1].Start, 1e-9)
	require.InDelta(t, 1.4, got[1].End, 1e-9)

	require.Equal(t, "edge", got[2].Word)
	require.InDelta(t, 1.9, got[2].Start, 1e-9)
	require.InDelta(t, 2.0, got[2].End, 1e-9)
}

func TestRemapComplementMasksBeeps(t *testing.T) {
	words := []types.Word{
		{Start: 0.5, End: 0.8, Word: "um"},
		{Start: 1.0, End: 1.4, Word: "darn", Punctuated: "darn!"},
		{Start: 2.0, End: 2.4, Word: "fine"},
	}
	plan, err := track.PlanComplement([]timeline.Tagged{
		{Segment: timeline.Segment{Start: 0.5, End: 0.8}, Action: timeline.ActionRemove},
		{Segment: timeline.Segment{Start: 1.0, End: 1.4}, Action: timeline.ActionBeep},
	}, 100, 300)
	require.NoError(t, err)

	got := Remap(words, plan)
	require.Len(t, got, 2)
	require.Equal(t, "****", got[0].Word)
	require.Equal(t, "****!", got[0].Punctuated)
	require.InDelta(t, 0.7, got[0].Start, 1e-9)
	require.InDelta(t, 1.1, got[0].End, 1e-9)
	require.Equal(t, "fine", got[1].Word)
	require.InDelta(t, 1.7, got[1].Start, 1e-9)
}
