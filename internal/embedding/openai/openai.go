// Package openai implements domain.Embedder against an OpenAI-compatible
// embeddings endpoint. It is a direct generalization of the teacher's
// embedding/openai client: same retry/backoff loop and dual
// OpenAI/Ollama response-shape decoding, extended to classify failures
// into the two embedding error kinds the spec names and to respect a
// caller-provided context deadline instead of only a fixed http.Client
// timeout.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/kxddry/ragqa/internal/domain"
)

// Client is a minimal OpenAI-compatible embeddings HTTP client.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	client     *http.Client
	maxRetries int
}

// Config configures the embeddings client.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// New creates a new embeddings client from cfg. The API key must be
// non-empty; the CLI entrypoints read it from the environment variable
// named by package config's api_key_env setting.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing embedding provider API key", domain.ErrEmbedRejected)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = 5
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		client:     &http.Client{Timeout: timeout},
		maxRetries: retries,
	}, nil
}

// Dimension returns the dimensionality of the vectors this client has
// observed so far; it is populated lazily after the first successful
// Embed call (the API does not advertise it up front).
func (c *Client) Dimension() int { return c.dimension }

type embedRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for text. Retries are NOT
// automatic at a higher layer — this client retries transport-level
// failures and rate limiting internally up to maxRetries, per its own
// documented policy; it never retries rejections (auth/malformed
// response), which are returned immediately wrapped in
// ErrEmbedRejected.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	url := fmt.Sprintf("%s/embeddings", c.baseURL)
	body, err := json.Marshal(embedRequest{Input: text, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", domain.ErrEmbedRejected, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbedTransport, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: building request: %v", domain.ErrEmbedTransport, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", domain.ErrEmbedTransport, err)
			if attempt < c.maxRetries {
				sleep(ctx, retryDelay(attempt))
				continue
			}
			return nil, lastErr
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			delay := retryDelay(attempt)
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					delay = time.Duration(secs) * time.Second
				}
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: provider status %s", domain.ErrEmbedTransport, resp.Status)
			if attempt < c.maxRetries {
				sleep(ctx, delay)
				continue
			}
			return nil, lastErr
		}

		if resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: provider status %s", domain.ErrEmbedRejected, resp.Status)
		}

		payload, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: reading response: %v", domain.ErrEmbedTransport, err)
			if attempt < c.maxRetries {
				sleep(ctx, retryDelay(attempt))
				continue
			}
			return nil, lastErr
		}

		if v, ok := decodeEmbedding(payload); ok {
			if c.dimension == 0 {
				c.dimension = len(v)
			}
			return v, nil
		}

		return nil, fmt.Errorf("%w: no embedding in response", domain.ErrEmbedRejected)
	}
	return nil, lastErr
}

// decodeEmbedding accepts either the OpenAI response shape
// ({"data":[{"embedding":[...]}]}) or the Ollama-native shape
// ({"embedding":[...]}).
func decodeEmbedding(payload []byte) ([]float64, bool) {
	var openaiOut embedResponse
	if err := json.Unmarshal(payload, &openaiOut); err == nil {
		if len(openaiOut.Data) > 0 && len(openaiOut.Data[0].Embedding) > 0 {
			return openaiOut.Data[0].Embedding, true
		}
	}
	var ollamaOut struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &ollamaOut); err == nil && len(ollamaOut.Embedding) > 0 {
		return ollamaOut.Embedding, true
	}
	return nil, false
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
