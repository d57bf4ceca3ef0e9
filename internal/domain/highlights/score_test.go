package highlights

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScore_Table(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantInfo bool
		wantHook bool
	}{
		{"empty", "", false, false},
		{"numbers", "Step 1: do X. Step 2: measure 42ms.", true, true},
		{"howto", "How to fix it: first do this, then do that.", true, false},
		{"hook", "Here is why this is important!", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, hook := Score(tt.text)
			if tt.wantInfo {
				require.Positive(t, info)
			} else {
				require.Zero(t, info)
			}
			if tt.wantHook {
				require.Positive(t, hook)
			}
		})
	}
}

func TestScore_FillersLowerHook(t *testing.T) {
	_, clean := Score("Remember this secret?")
	_, filler := Score("Um, remember, uh, this secret?")
	require.Less(t, filler, clean)
}

func TestScore_Bounded(t *testing.T) {
	info, hook := Score("never never never never never never never never never never never never !!!???")
	require.LessOrEqual(t, hook, 10.0)
	require.GreaterOrEqual(t, info, 0.0)
}
