package llm

import "context"

// MockClient is a test double for the Client interface with function fields
// for customizing behavior and counters for asserting call patterns.
type MockClient struct {
	CompleteFunc func(ctx context.Context, prompt, system string) (*CompletionResult, error)
	ModelFunc    func() string

	CompleteCalls int
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) Complete(ctx context.Context, prompt, system string) (*CompletionResult, error) {
	m.CompleteCalls++
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, system)
	}
	return &CompletionResult{Text: "{}", TotalTokens: 1}, nil
}

func (m *MockClient) Model() string {
	if m.ModelFunc != nil {
		return m.ModelFunc()
	}
	return "mock-model"
}
