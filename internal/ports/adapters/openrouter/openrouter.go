package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

const (
	requestTimeout = 90 * time.Second
	defaultModel   = "anthropic/claude-3.5-sonnet"
)

// errNoContent marks a response the model answered without usable JSON.
var errNoContent = errors.New("openrouter: no usable content")

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = defaultModel
	}
	return &Adapter{
		key:     apiKey,
		model:   model,
		baseURL: normalizeBaseURL(baseURL),
		client:  &http.Client{Timeout: 5 * time.Minute},
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithLogger returns a copy of a that logs through l.
func (a *Adapter) WithLogger(l *slog.Logger) *Adapter {
	c := *a
	if l != nil {
		c.log = l.With(slog.String("adapter", "openrouter"), slog.String("model", a.model))
	}
	return &c
}

// complete sends one user prompt with a strict JSON schema and returns the
// JSON object found in the first choice. Transport and HTTP failures are
// returned as is; a response without a JSON object yields errNoContent.
func (a *Adapter) complete(ctx context.Context, name, prompt string, schema map[string]any) (string, error) {
	payload := map[string]any{
		"model":  a.model,
		"stream": false,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   name,
				"schema": schema,
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.baseURL+"/api/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("openrouter timeout after %s (model=%s)", requestTimeout, a.model)
		}
		return "", err
	}
	defer resp.Body.Close()
	a.log.Debug("completion response", slog.String("schema", name), slog.Int("status", resp.StatusCode), slog.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("openrouter status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("openrouter status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("decode openrouter response: %w", err)
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", errNoContent)
	}
	content, err := messageContentToString(raw.Choices[0].Message.Content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errNoContent, err)
	}
	clean, err := extractJSONObject(content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errNoContent, err)
	}
	return clean, nil
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("unexpected content type %T", v)
	}
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("empty content")
	}

	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}
	return "", fmt.Errorf("could not locate JSON object in: %q", truncate(t, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}

func spanSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"start_sec": map[string]any{"type": "number"},
			"end_sec":   map[string]any{"type": "number"},
		},
		"required": []string{"start_sec", "end_sec"},
	}
}
