// Package policy holds the tunable editing rules, loaded from a YAML file
// on top of built-in defaults.
package policy

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/forPelevin/recut/internal/domain/envelope"
	"github.com/forPelevin/recut/internal/domain/rules"
	"github.com/forPelevin/recut/internal/domain/subtitles"
	"github.com/forPelevin/recut/internal/domain/transcript"
)

type Policy struct {
	Clean struct {
		Fillers        []string `yaml:"fillers"`
		Profanity      []string `yaml:"profanity"`
		PauseThreshold float64  `yaml:"pause_threshold_sec"`
		// UseLLM additionally asks the language model for duplicate
		// utterances to remove.
		UseLLM bool `yaml:"use_llm"`
	} `yaml:"clean"`

	Audio struct {
		FadeMs          float64 `yaml:"fade_ms"`
		NormalizeTarget int     `yaml:"normalize_target"`
		SampleRate      int     `yaml:"sample_rate"`
	} `yaml:"audio"`

	Tone struct {
		Frequency float64 `yaml:"frequency_hz"`
		Amplitude float64 `yaml:"amplitude"`
		RampMs    float64 `yaml:"ramp_ms"`
	} `yaml:"tone"`

	Transcript struct {
		UtteranceGap float64 `yaml:"utterance_gap_sec"`
	} `yaml:"transcript"`

	Shorts struct {
		Count        int     `yaml:"count"`
		MinSec       float64 `yaml:"min_sec"`
		MaxSec       float64 `yaml:"max_sec"`
		CaptionWords int     `yaml:"caption_words"`
		Width        int     `yaml:"width"`
		Height       int     `yaml:"height"`
		Workers      int     `yaml:"workers"`
	} `yaml:"shorts"`
}

func Default() Policy {
	var p Policy
	p.Clean.Fillers = append([]string(nil), rules.DefaultFillers...)
	p.Clean.PauseThreshold = rules.DefaultPauseThreshold

	p.Audio.FadeMs = 50
	p.Audio.NormalizeTarget = 30000
	p.Audio.SampleRate = 16000

	t := envelope.DefaultTone()
	p.Tone.Frequency = t.Frequency
	p.Tone.Amplitude = t.Amplitude
	p.Tone.RampMs = t.RampMs

	p.Transcript.UtteranceGap = transcript.DefaultUtteranceGap

	s := subtitles.DefaultStyle()
	p.Shorts.Count = 3
	p.Shorts.MinSec = 15
	p.Shorts.MaxSec = 60
	p.Shorts.CaptionWords = s.WordsPerLine
	p.Shorts.Width = s.PlayResX
	p.Shorts.Height = s.PlayResY
	p.Shorts.Workers = 2
	return p
}

// Load reads path over the defaults; keys missing from the file keep their
// default value. An empty path returns the defaults.
func Load(path string) (Policy, error) {
	p := Default()
	if path == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy: %w", err)
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, fmt.Errorf("policy %s: %w", path, err)
	}
	return p, nil
}

func (p Policy) Validate() error {
	var errs []error
	if p.Clean.PauseThreshold < 0 {
		errs = append(errs, errors.New("clean.pause_threshold_sec must be >= 0"))
	}
	if p.Audio.FadeMs < 0 {
		errs = append(errs, errors.New("audio.fade_ms must be >= 0"))
	}
	if p.Audio.NormalizeTarget < 0 || p.Audio.NormalizeTarget > math.MaxInt16 {
		errs = append(errs, fmt.Errorf("audio.normalize_target must be in [0, %d]", math.MaxInt16))
	}
	if p.Audio.SampleRate < 0 {
		errs = append(errs, errors.New("audio.sample_rate must be >= 0"))
	}
	if p.Tone.Frequency <= 0 {
		errs = append(errs, errors.New("tone.frequency_hz must be > 0"))
	}
	if p.Tone.Amplitude <= 0 || p.Tone.Amplitude > 1 {
		errs = append(errs, errors.New("tone.amplitude must be in (0, 1]"))
	}
	if p.Tone.RampMs < 0 {
		errs = append(errs, errors.New("tone.ramp_ms must be >= 0"))
	}
	if p.Transcript.UtteranceGap <= 0 {
		errs = append(errs, errors.New("transcript.utterance_gap_sec must be > 0"))
	}
	if p.Shorts.Count <= 0 {
		errs = append(errs, errors.New("shorts.count must be > 0"))
	}
	if p.Shorts.MinSec <= 0 || p.Shorts.MaxSec < p.Shorts.MinSec {
		errs = append(errs, errors.New("shorts.min_sec must be > 0 and <= shorts.max_sec"))
	}
	if p.Shorts.CaptionWords <= 0 {
		errs = append(errs, errors.New("shorts.caption_words must be > 0"))
	}
	if p.Shorts.Width <= 0 || p.Shorts.Height <= 0 || p.Shorts.Width%2 != 0 || p.Shorts.Height%2 != 0 {
		errs = append(errs, errors.New("shorts.width and shorts.height must be positive and even"))
	}
	if p.Shorts.Workers <= 0 {
		errs = append(errs, errors.New("shorts.workers must be > 0"))
	}
	return errors.Join(errs...)
}

func (p Policy) Rules() rules.Config {
	return rules.Config{
		Fillers:        p.Clean.Fillers,
		Profanity:      p.Clean.Profanity,
		PauseThreshold: p.Clean.PauseThreshold,
	}
}

func (p Policy) ToneConfig() envelope.ToneConfig {
	return envelope.ToneConfig{Frequency: p.Tone.Frequency, Amplitude: p.Tone.Amplitude, RampMs: p.Tone.RampMs}
}

func (p Policy) Polish(rate int) envelope.Polish {
	return envelope.NewPolish(rate, p.Audio.FadeMs, int16(p.Audio.NormalizeTarget))
}

func (p Policy) CaptionStyle() subtitles.Style {
	return subtitles.Style{PlayResX: p.Shorts.Width, PlayResY: p.Shorts.Height, WordsPerLine: p.Shorts.CaptionWords}
}

func (p Policy) ShortBounds() (time.Duration, time.Duration) {
	return time.Duration(p.Shorts.MinSec * float64(time.Second)), time.Duration(p.Shorts.MaxSec * float64(time.Second))
}
