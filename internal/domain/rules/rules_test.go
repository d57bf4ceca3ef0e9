package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forPelevin/recut/internal/domain/timeline"
	"github.com/forPelevin/recut/internal/types"
)

func testWords() []types.Word {
	return []types.Word{
		{Start: 0.0, End: 0.3, Word: "so"},
		{Start: 0.4, End: 0.6, Word: "Um,"},
		{Start: 0.7, End: 1.0, Word: "this"},
		{Start: 2.0, End: 2.3, Word: "is"},
		{Start: 2.3, End: 2.6, Word: "darn"},
		{Start: 2.7, End: 2.9, Word: "holy"},
		{Start: 2.9, End: 3.2, Word: "cow!"},
	}
}

func TestClassifier(t *testing.T) {
	c := New(Config{
		Fillers:        DefaultFillers,
		Profanity:      []string{"darn", "holy cow", "  "},
		PauseThreshold: DefaultPauseThreshold,
	})
	words := testWords()

	require.Equal(t, []timeline.Segment{{Start: 0.4, End: 0.6}}, c.Fillers(words))
	require.Equal(t, []timeline.Segment{{Start: 1.0, End: 2.0}}, c.Pauses(words))
	require.Equal(t, []timeline.Segment{{Start: 2.3, End: 2.6}, {Start: 2.7, End: 3.2}}, c.Profanity(words))

	tagged := c.Classify(words)
	require.Len(t, tagged, 4)
	var beeps int
	for _, tg := range tagged {
		require.NoError(t, tg.Validate())
		if tg.Action == timeline.ActionBeep {
			beeps++
		}
	}
	require.Equal(t, 2, beeps)
}

func TestClassifierPauseDisabled(t *testing.T) {
	c := New(Config{})
	require.Nil(t, c.Pauses(testWords()))
	require.Nil(t, c.Profanity(testWords()))
	require.Empty(t, c.Classify(testWords()))
}

func TestClassifierSkipsZeroLengthWords(t *testing.T) {
	c := New(Config{Fillers: []string{"uh"}, Profanity: []string{"heck"}})
	words := []types.Word{{Start: 1, End: 1, Word: "uh"}, {Start: 2, End: 2, Word: "heck"}}
	require.Empty(t, c.Fillers(words))
	require.Empty(t, c.Profanity(words))
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Um,":     "um",
		" HELLO ": "hello",
		"don't":   "don't",
		"...":     "",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			require.Equal(t, want, normalize(in))
		})
	}
}
