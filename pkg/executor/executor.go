package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mbarlow/apiq/internal/models"
)

var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

type Config struct {
	BaseURL string
	Key     string // bearer token, optional
	Timeout time.Duration
}

// Executor validates and dispatches planned API calls against the
// configured target API. Single attempt, no retries.
type Executor struct {
	config Config
	client *http.Client
}

func NewWithConfig(config Config) *Executor {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Executor{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Execute issues the call and normalizes the outcome. Every failure mode
// comes back inside the result rather than as an error: an unsupported
// method never touches the network, a transport failure has no status
// code, and a non-JSON response body falls back to raw text.
func (e *Executor) Execute(ctx context.Context, call models.APICall) models.APIResult {
	method := strings.ToUpper(call.Method)
	if method == "" {
		method = http.MethodGet
	}
	if !supportedMethods[method] {
		return models.APIResult{
			Success: false,
			Error:   fmt.Sprintf("Unsupported HTTP method: %s", method),
		}
	}

	// The planner's path is trusted verbatim; no slash normalization.
	url := e.config.BaseURL + call.URL

	var body io.Reader
	hasBody := false
	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		if len(call.Body) > 0 && string(call.Body) != "null" {
			body = bytes.NewReader(call.Body)
			hasBody = true
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return models.APIResult{Success: false, Error: err.Error()}
	}

	for key, value := range call.Headers {
		req.Header.Set(key, value)
	}
	if hasBody && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	// The descriptor's own Authorization header wins over the configured
	// token.
	if e.config.Key != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+e.config.Key)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return models.APIResult{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.APIResult{
			Success:    false,
			StatusCode: resp.StatusCode,
			Error:      err.Error(),
		}
	}

	var data interface{}
	if err := json.Unmarshal(payload, &data); err != nil {
		data = string(payload)
	}

	return models.APIResult{
		Success:    resp.StatusCode < 400,
		StatusCode: resp.StatusCode,
		Data:       data,
	}
}
