package adapter

import (
	"context"
	"fmt"
	"sync"
)

// MockAdapter returns deterministic responses for local runs and tests.
// Failures can be scripted per model to drive retry paths.
type MockAdapter struct {
	mu              sync.Mutex
	responses       map[string]string
	defaultResponse string
	failures        map[string][]int // model -> statuses for upcoming scripted failures
	calls           []string         // models called, in order
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
		failures:        make(map[string][]int),
	}
}

// NewMockAdapterWithResponses creates a mock adapter with predefined responses.
func NewMockAdapterWithResponses(responses map[string]string, defaultResponse string) *MockAdapter {
	if defaultResponse == "" {
		defaultResponse = "mock response:"
	}
	return &MockAdapter{
		responses:       responses,
		defaultResponse: defaultResponse,
		failures:        make(map[string][]int),
	}
}

// FailNext makes the next n Generate calls for the model return a
// transient error.
func (a *MockAdapter) FailNext(model string, n int) {
	a.failWith(model, n, 503)
}

// FailNextPermanent makes the next n Generate calls for the model
// return a non-transient error.
func (a *MockAdapter) FailNextPermanent(model string, n int) {
	a.failWith(model, n, 401)
}

func (a *MockAdapter) failWith(model string, n, status int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i < n; i++ {
		a.failures[model] = append(a.failures[model], status)
	}
}

// Calls returns the models called so far, in order.
func (a *MockAdapter) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.calls))
	copy(out, a.calls)
	return out
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return "mock"
}

// Models returns the list of supported mock models.
func (a *MockAdapter) Models() []string {
	return []string{"mock-1"}
}

// Generate returns a deterministic response for the prompt.
func (a *MockAdapter) Generate(_ context.Context, model string, prompt string) (*Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if model == "" {
		model = "mock-1"
	}
	a.calls = append(a.calls, model)

	if queue := a.failures[model]; len(queue) > 0 {
		status := queue[0]
		a.failures[model] = queue[1:]
		return nil, &AdapterError{Status: status, Err: fmt.Errorf("mock failure for %s (status %d)", model, status)}
	}

	content, ok := a.responses[prompt]
	if !ok {
		content = fmt.Sprintf("%s\n%s", a.defaultResponse, prompt)
	}
	usage := &Usage{PromptTokens: len(prompt), CompletionTokens: len(content)}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	return &Response{Content: content, Model: model, Usage: usage}, nil
}
