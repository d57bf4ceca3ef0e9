package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/recut/internal/domain/timeline"
	"github.com/forPelevin/recut/internal/ports"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// ExtractAudio writes a mono 16-bit PCM WAV. A rate of zero keeps the
// source sample rate.
func (a *Adapter) ExtractAudio(ctx context.Context, in, outWav string, rate int) error {
	args := []string{
		"-y",
		"-i", in,
		"-vn",
		"-ac", "1",
	}
	if rate > 0 {
		args = append(args, "-ar", strconv.Itoa(rate))
	}
	args = append(args,
		"-c:a", "pcm_s16le",
		"-f", "wav",
		outWav,
	)
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

// RenderSpans cuts spans out of in, in the given order, and concatenates
// them into out.
func (a *Adapter) RenderSpans(ctx context.Context, in string, spans []timeline.Segment, out string, opts ports.RenderOptions) error {
	graph, err := buildFilterGraph(spans, opts)
	if err != nil {
		return err
	}
	args := []string{
		"-y",
		"-i", in,
		"-filter_complex", graph,
		"-map", "[vout]",
		"-map", "[aout]",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-c:a", "aac",
		"-b:a", "192k",
		"-movflags", "+faststart",
		out,
	}
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg render spans: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, in string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		in,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// ProbeFrameRate returns the average frame rate of the first video stream.
func (a *Adapter) ProbeFrameRate(ctx context.Context, in string) (float64, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate",
		"-of", "default=noprint_wrappers=1:nokey=1",
		in,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe frame rate: %w\n%s", err, string(b))
	}
	return parseRate(strings.TrimSpace(string(b)))
}

// parseRate parses ffprobe rationals such as "30000/1001" or "25".
func parseRate(s string) (float64, error) {
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
	}
	d := 1.0
	if ok {
		d, err = strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
		}
	}
	if n <= 0 || d <= 0 {
		return 0, fmt.Errorf("invalid frame rate %q", s)
	}
	return n / d, nil
}

func buildFilterGraph(spans []timeline.Segment, opts ports.RenderOptions) (string, error) {
	if len(spans) == 0 {
		return "", errors.New("no spans to render")
	}
	var parts []string
	var inputs strings.Builder
	for i, s := range spans {
		if err := s.Validate(); err != nil {
			return "", fmt.Errorf("span %d: %w", i, err)
		}
		parts = append(parts,
			fmt.Sprintf("[0:v]trim=start=%s:end=%s,setpts=PTS-STARTPTS[v%d]", fmtSeconds(s.Start), fmtSeconds(s.End), i),
			fmt.Sprintf("[0:a]atrim=start=%s:end=%s,asetpts=PTS-STARTPTS[a%d]", fmtSeconds(s.Start), fmtSeconds(s.End), i),
		)
		fmt.Fprintf(&inputs, "[v%d][a%d]", i, i)
	}
	parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=1:a=1[vcat][aout]", inputs.String(), len(spans)))

	var post []string
	if opts.Vertical {
		w, h := opts.Width, opts.Height
		if w <= 0 || h <= 0 {
			w, h = 720, 1280
		}
		post = append(post,
			fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", w, h),
			fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black", w, h),
			"setsar=1",
		)
	}
	if opts.BurnASS != "" {
		post = append(post, "subtitles="+escapeFilterPath(opts.BurnASS))
	}
	if len(post) == 0 {
		post = append(post, "null")
	}
	parts = append(parts, "[vcat]"+strings.Join(post, ",")+"[vout]")
	return strings.Join(parts, ";"), nil
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	return p
}
