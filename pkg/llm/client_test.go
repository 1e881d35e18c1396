package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clerkdesk/agenda-report/pkg/config"
)

func testClient(url string) *LlamaClient {
	return NewLlamaClient(&config.RuntimeConfig{
		BaseURL:        url,
		RequestTimeout: 5 * time.Second,
		HealthTimeout:  2 * time.Second,
	})
}

// sseHandler answers a streaming chat completion with the given content
// chunks followed by [DONE].
func sseHandler(t *testing.T, chunks []string, onRequest func(map[string]any)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/chat/completions", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		if onRequest != nil {
			onRequest(payload)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

func TestChatStream_ConcatenatesChunksInOrder(t *testing.T) {
	ts := httptest.NewServer(sseHandler(t, []string{"Hello", ", ", "world"}, nil))
	defer ts.Close()

	var streamed []string
	full, err := testClient(ts.URL).ChatStream(context.Background(), ChatRequest{Prompt: "hi"}, func(c string) error {
		streamed = append(streamed, c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", full)
	assert.Equal(t, []string{"Hello", ", ", "world"}, streamed)
}

func TestChatStream_SendsSamplingParameters(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(sseHandler(t, []string{"ok"}, func(p map[string]any) { got = p }))
	defer ts.Close()

	_, err := testClient(ts.URL).ChatStream(context.Background(), ChatRequest{
		Prompt:      "hi",
		Temperature: 0.7,
		TopP:        0.9,
		TopK:        20,
		MaxTokens:   512,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, true, got["stream"])
	assert.Equal(t, 0.7, got["temperature"])
	assert.Equal(t, 0.9, got["top_p"])
	assert.Equal(t, float64(20), got["top_k"])
	assert.Equal(t, float64(512), got["max_tokens"])

	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "hi", msg["content"])
}

func TestChatStream_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).ChatStream(context.Background(), ChatRequest{Prompt: "hi"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestChatStream_OnChunkErrorAbandonsCall(t *testing.T) {
	ts := httptest.NewServer(sseHandler(t, []string{"a", "b", "c"}, nil))
	defer ts.Close()

	calls := 0
	stop := errors.New("stop")
	partial, err := testClient(ts.URL).ChatStream(context.Background(), ChatRequest{Prompt: "hi"}, func(c string) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "ab", partial)
}

func TestReady_SucceedsOnceHealthy(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	err := testClient(ts.URL).Ready(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, hits.Load(), int32(3))
}

func TestReady_TimesOutWhileUnhealthy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := NewLlamaClient(&config.RuntimeConfig{
		BaseURL:        ts.URL,
		RequestTimeout: time.Second,
		HealthTimeout:  300 * time.Millisecond,
	})
	require.Error(t, c.Ready(context.Background()))
}
