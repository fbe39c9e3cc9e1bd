package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is a scripted oracle for tests. Replies are chosen by the
// first matching rule, then from the queued responses in order.
type MockClient struct {
	rules     []mockRule
	responses []MockResponse
	calls     []Request
	mu        sync.Mutex
}

// MockResponse is one scripted reply.
type MockResponse struct {
	Err   error
	Reply string
}

type mockRule struct {
	match func(Request) bool
	resp  MockResponse
}

// NewMockClient creates a mock oracle that replays responses in order.
func NewMockClient(responses ...MockResponse) *MockClient {
	return &MockClient{responses: responses}
}

// On registers a reply for every request matching the predicate.
func (m *MockClient) On(match func(Request) bool, reply string, err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{match: match, resp: MockResponse{Reply: reply, Err: err}})
	return m
}

// OnInstruction registers a reply for requests with the given system instruction.
func (m *MockClient) OnInstruction(instruction, reply string, err error) *MockClient {
	return m.On(func(r Request) bool { return r.SystemInstruction == instruction }, reply, err)
}

// Complete records the request and returns the scripted reply.
func (m *MockClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)

	for _, rule := range m.rules {
		if rule.match(req) {
			return rule.resp.Reply, rule.resp.Err
		}
	}

	if len(m.responses) == 0 {
		return "", fmt.Errorf("no more mock responses (call %d)", len(m.calls))
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp.Reply, resp.Err
}

// Calls returns a copy of every request seen so far.
func (m *MockClient) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many requests were made.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
