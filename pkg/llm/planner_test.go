package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbarlow/apiq/pkg/llm"
)

// fakeModel satisfies types.ChatModel for planner and summarizer tests.
type fakeModel struct {
	response string
	err      error
	called   bool
	system   string
	user     string
}

func (f *fakeModel) Generate(ctx context.Context, system, user string) (string, error) {
	f.called = true
	f.system = system
	f.user = user
	return f.response, f.err
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantCall   bool
		wantMethod string
		wantURL    string
	}{
		{
			name:       "json fenced block",
			raw:        "```json\n{\"method\":\"GET\",\"url\":\"/users\"}\n```",
			wantCall:   true,
			wantMethod: "GET",
			wantURL:    "/users",
		},
		{
			name:       "plain fenced block",
			raw:        "Here you go:\n```\n{\"method\":\"DELETE\",\"url\":\"/users/3\"}\n```",
			wantCall:   true,
			wantMethod: "DELETE",
			wantURL:    "/users/3",
		},
		{
			name:       "bare json",
			raw:        `  {"method":"POST","url":"/orders","body":{"qty":2}}  `,
			wantCall:   true,
			wantMethod: "POST",
			wantURL:    "/orders",
		},
		{
			name:     "plain prose",
			raw:      "Could you tell me which user you mean?",
			wantCall: false,
		},
		{
			name:     "malformed json falls back to conversation",
			raw:      "```json\n{\"method\": \"GET\", \"url\":\n```",
			wantCall: false,
		},
		{
			name:     "json that is not an object",
			raw:      `"just a string"`,
			wantCall: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := llm.ParseResponse(tt.raw)

			if tt.wantCall {
				call, ok := plan.(llm.CallPlan)
				require.True(t, ok, "expected a CallPlan, got %T", plan)
				assert.Equal(t, tt.wantMethod, call.Call.Method)
				assert.Equal(t, tt.wantURL, call.Call.URL)
			} else {
				reply, ok := plan.(llm.ReplyPlan)
				require.True(t, ok, "expected a ReplyPlan, got %T", plan)
				// Fallback keeps the raw model output untouched.
				assert.Equal(t, tt.raw, reply.Text)
			}
		})
	}
}

func TestParseResponseKeepsHeadersAndBody(t *testing.T) {
	raw := "```json\n" + `{
  "method": "post",
  "url": "/users",
  "headers": {"X-Request-Id": "abc"},
  "body": {"name": "Ada"}
}` + "\n```"

	plan := llm.ParseResponse(raw)
	call, ok := plan.(llm.CallPlan)
	require.True(t, ok)
	assert.Equal(t, "abc", call.Call.Headers["X-Request-Id"])
	assert.JSONEq(t, `{"name":"Ada"}`, string(call.Call.Body))
}

func TestPlannerGroundsPromptWithContext(t *testing.T) {
	model := &fakeModel{response: "I'm not sure what you mean."}
	planner := llm.NewPlanner(model)

	docContext := "GET /users returns all users."
	plan, err := planner.Plan(context.Background(), "list the users", docContext)
	require.NoError(t, err)

	assert.True(t, model.called)
	assert.Contains(t, model.system, docContext)
	assert.Equal(t, "list the users", model.user)

	reply, ok := plan.(llm.ReplyPlan)
	require.True(t, ok)
	assert.Equal(t, model.response, reply.Text)
}

func TestPlannerReturnsCallPlan(t *testing.T) {
	model := &fakeModel{response: "```json\n{\"method\":\"GET\",\"url\":\"/users?limit=10\"}\n```"}
	planner := llm.NewPlanner(model)

	plan, err := planner.Plan(context.Background(), "show ten users", "GET /users")
	require.NoError(t, err)

	call, ok := plan.(llm.CallPlan)
	require.True(t, ok)
	assert.Equal(t, "GET", call.Call.Method)
	assert.Equal(t, "/users?limit=10", call.Call.URL)

	// The descriptor is still plain JSON when shown to the user.
	encoded, err := json.Marshal(call.Call)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(encoded), "/users?limit=10"))
}

func TestPlannerPropagatesModelError(t *testing.T) {
	model := &fakeModel{err: errors.New("connection refused")}
	planner := llm.NewPlanner(model)

	_, err := planner.Plan(context.Background(), "list users", "docs")
	assert.Error(t, err)
}
