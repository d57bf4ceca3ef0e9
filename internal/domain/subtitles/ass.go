// Package subtitles renders caption files from word timings that are
// already on the output timeline.
package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/recut/internal/types"
)

const (
	DefaultWordsPerLine = 4
	charBudget          = 42
)

// Style controls the caption layout. PlayRes should match the rendered
// frame so that font sizes and margins keep their proportions.
type Style struct {
	PlayResX     int
	PlayResY     int
	WordsPerLine int
}

func DefaultStyle() Style {
	return Style{PlayResX: 720, PlayResY: 1280, WordsPerLine: DefaultWordsPerLine}
}

func (s Style) withDefaults() Style {
	d := DefaultStyle()
	if s.PlayResX <= 0 || s.PlayResY <= 0 {
		s.PlayResX, s.PlayResY = d.PlayResX, d.PlayResY
	}
	if s.WordsPerLine <= 0 {
		s.WordsPerLine = d.WordsPerLine
	}
	return s
}

type Line struct {
	Start time.Duration
	End   time.Duration
	Words []types.Word
}

// Lines packs words into windows of at most n words, starting a new window
// early when the text would not fit on one line.
func Lines(words []types.Word, n int) []Line {
	if n <= 0 {
		n = DefaultWordsPerLine
	}
	var out []Line
	var cur Line
	curLen := 0
	flush := func() {
		if len(cur.Words) == 0 {
			return
		}
		cur.End = dur(cur.Words[len(cur.Words)-1].End)
		out = append(out, cur)
		cur = Line{}
		curLen = 0
	}
	for _, w := range words {
		text := strings.TrimSpace(w.Display())
		if text == "" {
			continue
		}
		wl := len([]rune(text))
		next := curLen + wl
		if curLen > 0 {
			next++
		}
		if len(cur.Words) >= n || (len(cur.Words) > 0 && next > charBudget) {
			flush()
			next = wl
		}
		if len(cur.Words) == 0 {
			cur.Start = dur(w.Start)
		}
		cur.Words = append(cur.Words, w)
		curLen = next
	}
	flush()
	return out
}

// ASS renders karaoke captions. Each word is highlighted until the next
// word of its line starts.
func ASS(words []types.Word, st Style) string {
	st = st.withDefaults()

	var b strings.Builder
	b.WriteString(assHeader(st))
	b.WriteString("\n\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, ln := range Lines(words, st.WordsPerLine) {
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(ln.Start))
		b.WriteString(",")
		b.WriteString(assTime(ln.End))
		b.WriteString(",Caption,,0,0,0,,")
		parts := make([]string, 0, len(ln.Words))
		for i, w := range ln.Words {
			until := w.End
			if i+1 < len(ln.Words) {
				until = ln.Words[i+1].Start
			}
			cs := max(int((dur(until)-dur(w.Start))/(10*time.Millisecond)), 1)
			parts = append(parts, fmt.Sprintf("{\\k%d}%s", cs, sanitizeASS(w.Display())))
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteString("\n")
	}
	return b.String()
}

func assHeader(st Style) string {
	font := st.PlayResY / 20
	marginH := st.PlayResX / 12
	marginV := st.PlayResY / 6
	return fmt.Sprintf(strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
WrapStyle: 0
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Caption,Arial,%d,&H0000FFFF,&H00FFFFFF,&H00000000,&H64000000,1,0,0,0,100,100,0,0,1,4,1,2,%d,%d,%d,1
`), st.PlayResX, st.PlayResY, font, marginH, marginH, marginV)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
