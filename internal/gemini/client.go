// Package gemini wraps the Google GenAI SDK behind the small Embed/Generate
// surface the pipeline consumes. Both calls are bounded by the configured
// AI timeout; a timeout is reported like any other provider failure.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/kuk1song/fitness-advisor/internal/config"
)

type Client struct {
	client     *genai.Client
	genModel   string
	embedModel string
	dim        int32
	timeout    time.Duration
}

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	timeout := cfg.AITimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		client:     client,
		genModel:   cfg.GeminiModel,
		embedModel: cfg.EmbeddingModel,
		dim:        int32(cfg.EmbeddingDim),
		timeout:    timeout,
	}, nil
}

// Embed returns the embedding vector for the given text, truncated to the
// configured dimensionality.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	dim := c.dim
	resp, err := c.client.Models.EmbedContent(ctx, c.embedModel, genai.Text(text),
		&genai.EmbedContentConfig{OutputDimensionality: &dim})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("empty embedding response")
	}

	return resp.Embeddings[0].Values, nil
}

// Generate submits a prompt and returns the generated text verbatim.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.genModel, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("empty generation response")
	}
	return text, nil
}
