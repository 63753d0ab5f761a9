package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
)

// ErrModelUnavailable reports that the Ollama server is unreachable or
// the configured model has not been pulled.
var ErrModelUnavailable = errors.New("model unavailable")

// ClientConfig represents the configuration for the chat client.
type ClientConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	BaseURL     string // Ollama server URL
}

// Client performs single request/response exchanges with an Ollama
// chat model. No conversation state is retained between calls.
type Client struct {
	config ClientConfig
	llm    llms.Model
	http   *http.Client
}

// NewWithConfig creates a new Client with the given configuration.
func NewWithConfig(config ClientConfig) (*Client, error) {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	model, err := ollama.New(ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &Client{
		config: config,
		llm:    model,
		http:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Generate sends one system+user exchange and returns the raw model text.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		llms.TextParts(schema.ChatMessageTypeHuman, user),
	}

	response, err := c.llm.GenerateContent(ctx, content,
		llms.WithMaxTokens(c.config.MaxTokens),
		llms.WithTemperature(c.config.Temperature))
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}
	if response == nil || len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return response.Choices[0].Content, nil
}

// ListModels returns the names of the models the Ollama server has
// pulled. langchaingo does not expose the tags endpoint, so this talks
// to it directly.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received status code %d listing models", resp.StatusCode)
	}

	var payload struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(payload.Models))
	for _, m := range payload.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// CheckModel verifies that the configured chat model is available on the
// server. Callers should tell the user to pull the model when this
// returns ErrModelUnavailable.
func (c *Client) CheckModel(ctx context.Context) error {
	names, err := c.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	for _, name := range names {
		if name == c.config.Model {
			return nil
		}
	}
	return fmt.Errorf("%w: model %q not found on server", ErrModelUnavailable, c.config.Model)
}
