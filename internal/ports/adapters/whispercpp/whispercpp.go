package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/forPelevin/recut/internal/types"
)

type Adapter struct {
	bin   string
	model string
}

func New(binPath, modelPath string) *Adapter {
	if binPath == "" {
		binPath = "whisper-cli"
	}
	return &Adapter{bin: binPath, model: modelPath}
}

func (a *Adapter) Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error) {
	outPrefix := filepath.Join(cacheDir, "whisper")
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-ojf",
		"-of", outPrefix,
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.Transcript{}, err
	}
	return parse(jb)
}

// output mirrors whisper.cpp's full JSON output (-ojf).
type output struct {
	Transcription []struct {
		Offsets offsets `json:"offsets"`
		Text    string  `json:"text"`
		Tokens  []struct {
			Text    string  `json:"text"`
			Offsets offsets `json:"offsets"`
		} `json:"tokens"`
	} `json:"transcription"`
}

// offsets are milliseconds.
type offsets struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

func parse(b []byte) (types.Transcript, error) {
	var out output
	if err := json.Unmarshal(b, &out); err != nil {
		return types.Transcript{}, fmt.Errorf("decode whisper.cpp output: %w", err)
	}

	var tr types.Transcript
	for _, seg := range out.Transcription {
		s := types.Segment{
			Start: ms(seg.Offsets.From),
			End:   ms(seg.Offsets.To),
			Text:  strings.TrimSpace(seg.Text),
		}
		var cur *types.Word
		flush := func() {
			if cur == nil {
				return
			}
			cur.Punctuated = strings.TrimSpace(cur.Punctuated)
			cur.Word = strings.TrimFunc(cur.Punctuated, unicode.IsPunct)
			if cur.Word != "" {
				s.Words = append(s.Words, *cur)
			}
			cur = nil
		}
		for _, tok := range seg.Tokens {
			if strings.HasPrefix(tok.Text, "[_") || strings.TrimSpace(tok.Text) == "" {
				continue
			}
			if cur == nil || strings.HasPrefix(tok.Text, " ") {
				flush()
				cur = &types.Word{Start: ms(tok.Offsets.From)}
			}
			cur.Punctuated += tok.Text
			cur.End = ms(tok.Offsets.To)
		}
		flush()
		if s.Text == "" && len(s.Words) == 0 {
			continue
		}
		tr.Segments = append(tr.Segments, s)
	}
	return tr, nil
}

func ms(v int64) float64 { return float64(v) / 1000 }
