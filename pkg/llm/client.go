package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/clerkdesk/agenda-report/pkg/config"
)

// ChatClient is the model-runtime capability the invocation engine consumes:
// submit a prompt, stream token chunks, report completion or error.
type ChatClient interface {
	// Ready blocks until the runtime reports the model is loaded, or the
	// context expires.
	Ready(ctx context.Context) error

	// ChatStream submits one prompt and streams content chunks to onChunk as
	// they arrive. It returns the full concatenation of the streamed chunks.
	// An error returned by onChunk abandons the in-flight call.
	ChatStream(ctx context.Context, req ChatRequest, onChunk func(chunk string) error) (string, error)
}

// ChatRequest is one model invocation.
type ChatRequest struct {
	Prompt      string
	Temperature float64
	TopP        float64
	TopK        int
	MaxTokens   int
}

// LlamaClient talks to a locally hosted llama.cpp server through its
// OpenAI-compatible chat completions endpoint.
type LlamaClient struct {
	baseURL       string
	model         string
	healthTimeout time.Duration
	client        *http.Client
}

// NewLlamaClient creates a client using values from the provided config.
// Pass a nil config to fall back to environment variables.
func NewLlamaClient(cfg *config.RuntimeConfig) *LlamaClient {
	var base, model string
	timeout := 10 * time.Minute
	health := 90 * time.Second
	if cfg != nil {
		base = cfg.BaseURL
		model = cfg.Model
		if cfg.RequestTimeout > 0 {
			timeout = cfg.RequestTimeout
		}
		if cfg.HealthTimeout > 0 {
			health = cfg.HealthTimeout
		}
	}
	if base == "" {
		base = os.Getenv("RUNTIME_URL")
		if base == "" {
			base = "http://127.0.0.1:8080"
		}
	}

	return &LlamaClient{
		baseURL:       strings.TrimRight(base, "/"),
		model:         model,
		healthTimeout: health,
		client:        &http.Client{Timeout: timeout},
	}
}

// Ready polls the runtime health endpoint until the model is loaded. The
// llama.cpp server answers 503 while the model file is still being mapped.
func (c *LlamaClient) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	probe := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("runtime health returned status %d", resp.StatusCode)
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	return backoff.Retry(probe, backoff.WithContext(policy, ctx))
}

// chatCompletionRequest is the wire shape for chat completion requests.
// top_k is a llama.cpp extension to the OpenAI schema.
type chatCompletionRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	TopK        int           `json:"top_k,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionChunk is the minimal delta shape of one streamed SSE event.
type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// ChatStream implements ChatClient.
func (c *LlamaClient) ChatStream(ctx context.Context, req ChatRequest, onChunk func(chunk string) error) (string, error) {
	body := chatCompletionRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		TopP:        req.TopP,
		TopK:        req.TopK,
		MaxTokens:   req.MaxTokens,
		Stream:      true,
	}

	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	endpoint := c.baseURL + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("runtime returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return full.String(), fmt.Errorf("malformed stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		content := chunk.Choices[0].Delta.Content
		if content == "" {
			continue
		}
		full.WriteString(content)
		if onChunk != nil {
			if err := onChunk(content); err != nil {
				return full.String(), err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("stream read failed: %w", err)
	}

	return full.String(), nil
}
