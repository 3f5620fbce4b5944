package email

import (
	"context"
	"fmt"
	"sync"
)

// MockSender records sent emails for tests and local development.
type MockSender struct {
	mu   sync.Mutex
	Sent []Email
	Err  error
}

// NewMockSender creates a mock email sender.
func NewMockSender() *MockSender {
	return &MockSender{}
}

// Send records the email and returns a synthetic message id.
func (m *MockSender) Send(ctx context.Context, email *Email) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.Sent = append(m.Sent, *email)
	return fmt.Sprintf("mock-%d", len(m.Sent)), nil
}

// SentCount returns how many emails have been recorded.
func (m *MockSender) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

var _ Sender = (*MockSender)(nil)
