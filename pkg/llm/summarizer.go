package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mbarlow/apiq/internal/models"
	"github.com/mbarlow/apiq/internal/types"
)

const summarizerSystemPrompt = "You are a helpful assistant that summarizes API responses in plain language."

const summaryPromptTemplate = `The user asked: "%s"

The API returned this response:
%s

Please summarize this response in a clear, concise, and user-friendly way. Focus on the key information that addresses the user's request.`

// Summarizer turns a raw API result into a human-readable answer.
type Summarizer struct {
	model types.ChatModel
}

func NewSummarizer(model types.ChatModel) *Summarizer {
	return &Summarizer{model: model}
}

// Summarize produces a readable summary of the call result. Failed calls
// short-circuit to a literal error line without contacting the model.
func (s *Summarizer) Summarize(ctx context.Context, result models.APIResult, query string) (string, error) {
	if !result.Success {
		message := result.Error
		if message == "" {
			message = fmt.Sprintf("API call failed with status code: %d", result.StatusCode)
		}
		return "Error: " + message, nil
	}

	data, err := json.MarshalIndent(result.Data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize API response: %w", err)
	}

	prompt := fmt.Sprintf(summaryPromptTemplate, query, data)
	return s.model.Generate(ctx, summarizerSystemPrompt, prompt)
}
