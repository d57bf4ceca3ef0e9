package timeline

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	tcs := []struct {
		name     string
		in       []Segment
		expected []Segment
	}{
		{
			name: "empty",
		},
		{
			name:     "single",
			in:       []Segment{{Start: 1, End: 2}},
			expected: []Segment{{Start: 1, End: 2}},
		},
		{
			name:     "overlapping",
			in:       []Segment{{Start: 1.0, End: 1.2}, {Start: 1.1, End: 1.4}},
			expected: []Segment{{Start: 1.0, End: 1.4}},
		},
		{
			name:     "touching",
			in:       []Segment{{Start: 2, End: 3}, {Start: 1, End: 2}},
			expected: []Segment{{Start: 1, End: 3}},
		},
		{
			name:     "contained",
			in:       []Segment{{Start: 0, End: 10}, {Start: 2, End: 3}, {Start: 4, End: 5}},
			expected: []Segment{{Start: 0, End: 10}},
		},
		{
			name:     "gaps kept",
			in:       []Segment{{Start: 5, End: 6}, {Start: 0, End: 1}, {Start: 2, End: 3}},
			expected: []Segment{{Start: 0, End: 1}, {Start: 2, End: 3}, {Start: 5, End: 6}},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Merge(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
		})
	}
}

func TestMergeInvalid(t *testing.T) {
	tcs := []struct {
		name string
		in   []Segment
	}{
		{name: "start equals end", in: []Segment{{Start: 1, End: 1}}},
		{name: "start after end", in: []Segment{{Start: 0, End: 1}, {Start: 3, End: 2}}},
		{name: "nan", in: []Segment{{Start: math.NaN(), End: 1}}},
		{name: "inf", in: []Segment{{Start: 0, End: math.Inf(1)}}},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Merge(tc.in)
			require.ErrorIs(t, err, ErrInvalidSegment)
			require.True(t, IsRecoverable(err))
		})
	}
}

func TestMergeIdempotent(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		in := randomSegments(rnd, 1+rnd.Intn(20))
		once, err := Merge(in)
		require.NoError(t, err)
		twice, err := Merge(once)
		require.NoError(t, err)
		require.Equal(t, once, twice)
	}
}

func TestMergeInvariantAnyOrder(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		in := randomSegments(rnd, 2+rnd.Intn(15))
		want, err := Merge(in)
		require.NoError(t, err)
		requireStrictGap(t, want)

		for p := 0; p < 5; p++ {
			perm := make([]Segment, len(in))
			for j, k := range rnd.Perm(len(in)) {
				perm[j] = in[k]
			}
			got, err := Merge(perm)
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
	}
}

func TestMergeDoesNotModifyInput(t *testing.T) {
	in := []Segment{{Start: 3, End: 4}, {Start: 1, End: 2}}
	_, err := Merge(in)
	require.NoError(t, err)
	require.Equal(t, []Segment{{Start: 3, End: 4}, {Start: 1, End: 2}}, in)
}

func TestMergeTagged(t *testing.T) {
	t.Run("independent per action", func(t *testing.T) {
		got, err := MergeTagged([]Tagged{
			{Segment: Segment{Start: 1, End: 2}, Action: ActionRemove},
			{Segment: Segment{Start: 1.5, End: 3}, Action: ActionRemove},
			{Segment: Segment{Start: 4, End: 5}, Action: ActionBeep},
			{Segment: Segment{Start: 5, End: 6}, Action: ActionBeep},
			{Segment: Segment{Start: 7, End: 8}, Action: ActionKeep},
		})
		require.NoError(t, err)
		require.Equal(t, []Tagged{
			{Segment: Segment{Start: 1, End: 3}, Action: ActionRemove},
			{Segment: Segment{Start: 4, End: 6}, Action: ActionBeep},
		}, got)
	})

	t.Run("beep wins over remove", func(t *testing.T) {
		got, err := MergeTagged([]Tagged{
			{Segment: Segment{Start: 1, End: 5}, Action: ActionRemove},
			{Segment: Segment{Start: 2, End: 3}, Action: ActionBeep},
			{Segment: Segment{Start: 4.5, End: 6}, Action: ActionBeep},
		})
		require.NoError(t, err)
		require.Equal(t, []Tagged{
			{Segment: Segment{Start: 1, End: 2}, Action: ActionRemove},
			{Segment: Segment{Start: 2, End: 3}, Action: ActionBeep},
			{Segment: Segment{Start: 3, End: 4.5}, Action: ActionRemove},
			{Segment: Segment{Start: 4.5, End: 6}, Action: ActionBeep},
		}, got)
	})

	t.Run("remove swallowed by beep", func(t *testing.T) {
		got, err := MergeTagged([]Tagged{
			{Segment: Segment{Start: 2, End: 3}, Action: ActionRemove},
			{Segment: Segment{Start: 1, End: 4}, Action: ActionBeep},
		})
		require.NoError(t, err)
		require.Equal(t, []Tagged{
			{Segment: Segment{Start: 1, End: 4}, Action: ActionBeep},
		}, got)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := MergeTagged([]Tagged{{Segment: Segment{Start: 1, End: 2}, Action: "mute"}})
		require.ErrorIs(t, err, ErrInvalidSegment)
	})
}

func TestMergedSetTotal(t *testing.T) {
	set, err := MergeSet(ActionRemove, []Segment{{Start: 0, End: 1}, {Start: 0.5, End: 2}, {Start: 3, End: 3.5}})
	require.NoError(t, err)
	require.InDelta(t, 2.5, set.Total(), 1e-9)
}

func randomSegments(rnd *rand.Rand, n int) []Segment {
	out := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		start := float64(rnd.Intn(1000)) / 10
		out = append(out, Segment{Start: start, End: start + float64(1+rnd.Intn(50))/10})
	}
	return out
}

func requireStrictGap(t *testing.T, segs []Segment) {
	t.Helper()
	for i := 1; i < len(segs); i++ {
		require.Less(t, segs[i-1].End, segs[i].Start, "segments %d and %d touch or overlap", i-1, i)
	}
}
