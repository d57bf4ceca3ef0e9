package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/forPelevin/recut/internal/domain/timeline"
	"github.com/forPelevin/recut/internal/types"
)

const (
	defaultBaseURL     = "https://api.deepgram.com"
	defaultModel       = "nova-3"
	attemptTimeout     = 5 * time.Minute
	maxAttempts        = 3
	retryAttemptWait   = 10 * time.Second
	maxErrorBodyLength = 400
)

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
	log     *slog.Logger

	attempts int
	wait     time.Duration
}

func New(apiKey, model string) *Adapter {
	if model == "" {
		model = defaultModel
	}
	return &Adapter{
		key:      apiKey,
		model:    model,
		baseURL:  defaultBaseURL,
		client:   &http.Client{},
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		attempts: maxAttempts,
		wait:     retryAttemptWait,
	}
}

// WithLogger returns a copy of a that logs through l.
func (a *Adapter) WithLogger(l *slog.Logger) *Adapter {
	c := *a
	if l != nil {
		c.log = l.With(slog.String("adapter", "deepgram"))
	}
	return &c
}

// Transcribe uploads the WAV file with filler words and punctuation enabled.
// Timeouts, 429 and 5xx answers are retried.
func (a *Adapter) Transcribe(ctx context.Context, wavPath, _ string) (types.Transcript, error) {
	audio, err := os.ReadFile(wavPath)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("read audio: %w: %v", timeline.ErrSourceUnavailable, err)
	}

	q := url.Values{}
	q.Set("model", a.model)
	q.Set("filler_words", "true")
	q.Set("punctuate", "true")
	q.Set("utterances", "true")
	q.Set("utt_split", "1")
	q.Set("numerals", "true")
	q.Set("language", "en")
	endpoint := a.baseURL + "/v1/listen?" + q.Encode()

	var lastErr error
	for attempt := 1; attempt <= a.attempts; attempt++ {
		tr, err := a.listen(ctx, endpoint, audio)
		if err == nil {
			return tr, nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			return types.Transcript{}, err
		}
		a.log.Warn("transcription attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", a.attempts),
			slog.String("err", err.Error()),
		)
		if attempt < a.attempts {
			select {
			case <-ctx.Done():
				return types.Transcript{}, ctx.Err()
			case <-time.After(a.wait):
			}
		}
	}
	return types.Transcript{}, fmt.Errorf("deepgram failed after %d attempts: %w", a.attempts, lastErr)
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("deepgram status %d: %s", e.code, e.body)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (a *Adapter) listen(ctx context.Context, endpoint string, audio []byte) (types.Transcript, error) {
	reqCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return types.Transcript{}, err
	}
	req.Header.Set("Authorization", "Token "+a.key)
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := a.client.Do(req)
	if err != nil {
		return types.Transcript{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		body := string(rb)
		if a.key != "" {
			body = strings.ReplaceAll(body, a.key, "[REDACTED]")
		}
		if r := []rune(body); len(r) > maxErrorBodyLength {
			body = string(r[:maxErrorBodyLength])
		}
		return types.Transcript{}, &statusError{code: resp.StatusCode, body: body}
	}

	var res response
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return types.Transcript{}, fmt.Errorf("decode deepgram response: %w", err)
	}
	return res.transcript(), nil
}

type word struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Punctuated string  `json:"punctuated_word"`
}

type response struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
				Words      []word `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
		Utterances []struct {
			Start      float64 `json:"start"`
			End        float64 `json:"end"`
			Transcript string  `json:"transcript"`
			Words      []word  `json:"words"`
		} `json:"utterances"`
	} `json:"results"`
}

// transcript prefers Deepgram's utterances as segments and falls back to one
// segment holding every word of the first alternative.
func (r response) transcript() types.Transcript {
	var tr types.Transcript
	for _, u := range r.Results.Utterances {
		tr.Segments = append(tr.Segments, types.Segment{
			Start: u.Start,
			End:   u.End,
			Text:  strings.TrimSpace(u.Transcript),
			Words: convert(u.Words),
		})
	}
	if len(tr.Segments) > 0 {
		return tr
	}
	if len(r.Results.Channels) == 0 || len(r.Results.Channels[0].Alternatives) == 0 {
		return tr
	}
	alt := r.Results.Channels[0].Alternatives[0]
	if len(alt.Words) == 0 {
		return tr
	}
	tr.Segments = append(tr.Segments, types.Segment{
		Start: alt.Words[0].Start,
		End:   alt.Words[len(alt.Words)-1].End,
		Text:  strings.TrimSpace(alt.Transcript),
		Words: convert(alt.Words),
	})
	return tr
}

func convert(ws []word) []types.Word {
	out := make([]types.Word, 0, len(ws))
	for _, w := range ws {
		out = append(out, types.Word{Start: w.Start, End: w.End, Word: w.Word, Punctuated: w.Punctuated})
	}
	return out
}
