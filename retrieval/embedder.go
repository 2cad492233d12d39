package retrieval

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Embedder converts text into fixed-length numeric vectors.
type Embedder interface {
	Generate(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint. Works with
// OpenAI itself or any service exposing the same API surface.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// EmbedderConfig configures the OpenAI-compatible embedder.
type EmbedderConfig struct {
	// BaseURL overrides the service URL; empty keeps the OpenAI default.
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewOpenAIEmbedder creates an embedder from config.
func NewOpenAIEmbedder(cfg EmbedderConfig) (*OpenAIEmbedder, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "unused" // local services accept any key
	}
	config := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	config.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAIEmbedder{client: openai.NewClientWithConfig(config), model: cfg.Model}, nil
}

// Generate embeds texts in one request, preserving input order.
func (e *OpenAIEmbedder) Generate(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(out) {
			return nil, fmt.Errorf("embedding service returned out-of-range index %d", item.Index)
		}
		out[item.Index] = item.Embedding
	}
	return out, nil
}

// Model returns the configured model identifier.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}
