package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kamal-hamza/ccw/internal/core/ports"
)

// MockQueue delivers queued bodies one receive at a time and records every call
type MockQueue struct {
	mu         sync.Mutex
	pending    []ports.Message
	deleted    []string
	sent       [][]byte
	receives   int
	events     []string
	receiveErr error
	deleteErr  error

	// OnEmpty is called when a receive finds nothing to deliver
	OnEmpty func()
}

// NewMockQueue creates an empty mock queue
func NewMockQueue() *MockQueue {
	return &MockQueue{}
}

// Push adds a message body to the pending deliveries
func (m *MockQueue) Push(body []byte) ports.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := ports.Message{
		ID:            uuid.NewString(),
		ReceiptHandle: "receipt-" + uuid.NewString(),
		Body:          body,
	}
	m.pending = append(m.pending, msg)
	return msg
}

// Receive pops up to max pending messages
func (m *MockQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]ports.Message, error) {
	m.mu.Lock()
	m.receives++
	m.events = append(m.events, "receive")

	if m.receiveErr != nil {
		err := m.receiveErr
		m.mu.Unlock()
		return nil, err
	}

	if len(m.pending) == 0 {
		hook := m.OnEmpty
		m.mu.Unlock()
		if hook != nil {
			hook()
		}
		return nil, nil
	}

	n := max
	if n > len(m.pending) {
		n = len(m.pending)
	}
	msgs := make([]ports.Message, n)
	copy(msgs, m.pending[:n])
	m.pending = m.pending[n:]
	m.mu.Unlock()
	return msgs, nil
}

// Delete records the acknowledged receipt handle
func (m *MockQueue) Delete(ctx context.Context, receiptHandle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, "delete")

	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, receiptHandle)
	return nil
}

// Send records the body and enqueues it
func (m *MockQueue) Send(ctx context.Context, body []byte) (string, error) {
	m.mu.Lock()
	m.sent = append(m.sent, body)
	m.mu.Unlock()
	return m.Push(body).ID, nil
}

// Record appends an external event to the call log, e.g. "dispatch"
func (m *MockQueue) Record(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// SetReceiveError makes Receive fail
func (m *MockQueue) SetReceiveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receiveErr = err
}

// SetDeleteError makes Delete fail
func (m *MockQueue) SetDeleteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr = err
}

// ReceiveCount returns the number of Receive calls
func (m *MockQueue) ReceiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.receives
}

// GetDeleted returns acknowledged receipt handles
func (m *MockQueue) GetDeleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := make([]string, len(m.deleted))
	copy(deleted, m.deleted)
	return deleted
}

// GetEvents returns the ordered call log
func (m *MockQueue) GetEvents() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]string, len(m.events))
	copy(events, m.events)
	return events
}

// Pending returns the number of undelivered messages
func (m *MockQueue) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *MockQueue) String() string {
	return fmt.Sprintf("MockQueue{pending=%d, receives=%d}", m.Pending(), m.ReceiveCount())
}
