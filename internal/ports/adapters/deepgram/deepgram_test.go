package deepgram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forPelevin/recut/internal/domain/timeline"
	"github.com/forPelevin/recut/internal/types"
)

const utterancesBody = `{
  "results": {
    "channels": [{"alternatives": [{"transcript": "um hello there", "words": []}]}],
    "utterances": [
      {"start": 0.1, "end": 1.2, "transcript": "um hello there",
       "words": [
         {"word": "um", "start": 0.1, "end": 0.3, "punctuated_word": "Um,"},
         {"word": "hello", "start": 0.4, "end": 0.8, "punctuated_word": "hello"},
         {"word": "there", "start": 0.8, "end": 1.2, "punctuated_word": "there."}
       ]}
    ]
  }
}`

func newTestAdapter(t *testing.T, h http.HandlerFunc) (*Adapter, string) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	a := New("dg-key", "")
	a.baseURL = srv.URL
	a.wait = 0

	wav := filepath.Join(t.TempDir(), "in.wav")
	require.NoError(t, os.WriteFile(wav, []byte("RIFFfake"), 0o644))
	return a, wav
}

func TestTranscribe(t *testing.T) {
	a, wav := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/listen", r.URL.Path)
		require.Equal(t, "true", r.URL.Query().Get("filler_words"))
		require.Equal(t, "nova-3", r.URL.Query().Get("model"))
		require.Equal(t, "Token dg-key", r.Header.Get("Authorization"))
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, "RIFFfake", string(b))
		_, _ = w.Write([]byte(utterancesBody))
	})

	tr, err := a.Transcribe(context.Background(), wav, "")
	require.NoError(t, err)
	require.Len(t, tr.Segments, 1)
	require.Equal(t, "um hello there", tr.Segments[0].Text)
	require.Equal(t, types.Word{Start: 0.1, End: 0.3, Word: "um", Punctuated: "Um,"}, tr.Segments[0].Words[0])
	require.Len(t, tr.Segments[0].Words, 3)
}

func TestTranscribeRetries(t *testing.T) {
	var calls atomic.Int32
	a, wav := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(utterancesBody))
	})

	tr, err := a.Transcribe(context.Background(), wav, "")
	require.NoError(t, err)
	require.Len(t, tr.Segments, 1)
	require.EqualValues(t, 3, calls.Load())
}

func TestTranscribeGivesUp(t *testing.T) {
	var calls atomic.Int32
	a, wav := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := a.Transcribe(context.Background(), wav, "")
	require.ErrorContains(t, err, "after 3 attempts")
	require.EqualValues(t, 3, calls.Load())
}

func TestTranscribeClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	a, wav := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"err_msg":"invalid key dg-key"}`))
	})

	_, err := a.Transcribe(context.Background(), wav, "")
	require.ErrorContains(t, err, "status 401")
	require.NotContains(t, err.Error(), "dg-key")
	require.EqualValues(t, 1, calls.Load())
}

func TestTranscribeMissingFile(t *testing.T) {
	_, err := New("k", "").Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.wav"), "")
	require.ErrorIs(t, err, timeline.ErrSourceUnavailable)
}

func TestResponseWithoutUtterances(t *testing.T) {
	var empty response
	require.NoError(t, json.Unmarshal([]byte(`{"results":{"channels":[{"alternatives":[]}]}}`), &empty))
	require.Empty(t, empty.transcript().Segments)

	var r response
	require.NoError(t, json.Unmarshal([]byte(`{"results":{"channels":[{"alternatives":[
		{"transcript":" hi ","words":[{"word":"hi","start":1,"end":1.5}]}
	]}]}}`), &r))
	tr := r.transcript()
	require.Len(t, tr.Segments, 1)
	require.Equal(t, "hi", tr.Segments[0].Text)
	require.Equal(t, 1.0, tr.Segments[0].Start)
	require.Equal(t, 1.5, tr.Segments[0].End)
}
