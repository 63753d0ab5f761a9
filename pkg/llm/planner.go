package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mbarlow/apiq/internal/models"
	"github.com/mbarlow/apiq/internal/types"
)

const plannerSystemPrompt = `You are an intelligent assistant that helps users interact with an API using natural language.
Your job is to understand the user's request and translate it into the appropriate API call.

Here is the relevant API documentation:

%s

If you can determine the appropriate API call, respond ONLY with a JSON object in this exact format:
{
  "method": "<HTTP_METHOD>",
  "url": "<ENDPOINT_PATH_WITH_QUERY_PARAMS>",
  "headers": {<HEADERS_OBJECT>},
  "body": {<REQUEST_BODY_OBJECT_OR_NULL>}
}

If you cannot determine the API call, or need more information, respond conversationally to ask for clarification.
If the API documentation does not contain information relevant to the user's request, admit that you don't know how to perform that operation.`

// Plan is the planner outcome: either a structured API call the executor
// can dispatch, or a conversational reply to show the user.
type Plan interface {
	isPlan()
}

// CallPlan carries a parsed API call descriptor.
type CallPlan struct {
	Call models.APICall
}

// ReplyPlan carries the model's conversational text.
type ReplyPlan struct {
	Text string
}

func (CallPlan) isPlan()  {}
func (ReplyPlan) isPlan() {}

// Planner grounds the model on retrieved documentation and turns its
// output into a Plan.
type Planner struct {
	model types.ChatModel
}

func NewPlanner(model types.ChatModel) *Planner {
	return &Planner{model: model}
}

// Plan sends the query together with the retrieved documentation context
// and parses the response. A response that is not valid descriptor JSON
// means the model chose to answer conversationally, not that something
// went wrong.
func (p *Planner) Plan(ctx context.Context, query, docContext string) (Plan, error) {
	system := fmt.Sprintf(plannerSystemPrompt, docContext)

	raw, err := p.model.Generate(ctx, system, query)
	if err != nil {
		return nil, err
	}

	return ParseResponse(raw), nil
}

// ParseResponse classifies raw model output. It strips a fenced code
// block when one is present (a json-tagged fence wins over a plain one)
// and attempts strict JSON parsing of the remainder. No retry on
// malformed output.
func ParseResponse(raw string) Plan {
	candidate := extractFenced(raw)

	var call models.APICall
	if err := json.Unmarshal([]byte(candidate), &call); err != nil {
		return ReplyPlan{Text: raw}
	}
	return CallPlan{Call: call}
}

func extractFenced(raw string) string {
	if i := strings.Index(raw, "```json"); i >= 0 {
		rest := raw[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}
	if i := strings.Index(raw, "```"); i >= 0 {
		rest := raw[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}
	return strings.TrimSpace(raw)
}
