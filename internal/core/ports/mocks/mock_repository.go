package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kamal-hamza/ccw/internal/core/domain"
)

type entryKey struct {
	id   string
	kind domain.Kind
}

// MockEntryRepository is an in-memory implementation of the EntryRepository interface for testing
type MockEntryRepository struct {
	mu         sync.RWMutex
	entries    map[entryKey]domain.Entry
	saves      int
	shouldFail bool
	failError  error
}

// NewMockEntryRepository creates a new mock entry repository
func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{
		entries: make(map[entryKey]domain.Entry),
	}
}

// GetFile retrieves a file by id
func (m *MockEntryRepository) GetFile(ctx context.Context, id string) (*domain.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure(); err != nil {
		return nil, err
	}

	entry, ok := m.entries[entryKey{id, domain.KindFile}]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	file := *entry.(*domain.File)
	return &file, nil
}

// GetFolder retrieves a folder by id
func (m *MockEntryRepository) GetFolder(ctx context.Context, id string) (*domain.Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure(); err != nil {
		return nil, err
	}

	entry, ok := m.entries[entryKey{id, domain.KindFolder}]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	folder := *entry.(*domain.Folder)
	return &folder, nil
}

// Save stores a copy of the entry
func (m *MockEntryRepository) Save(ctx context.Context, entry domain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure(); err != nil {
		return err
	}

	switch e := entry.(type) {
	case *domain.File:
		copied := *e
		m.entries[entryKey{e.ID, domain.KindFile}] = &copied
	case *domain.Folder:
		copied := *e
		m.entries[entryKey{e.ID, domain.KindFolder}] = &copied
	default:
		return fmt.Errorf("unsupported entry type %T", entry)
	}
	m.saves++
	return nil
}

// Delete removes an entry
func (m *MockEntryRepository) Delete(ctx context.Context, id string, kind domain.Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure(); err != nil {
		return err
	}

	delete(m.entries, entryKey{id, kind})
	return nil
}

// ListByParent returns entries under the parent, ordered by title
func (m *MockEntryRepository) ListByParent(ctx context.Context, parent *string) ([]domain.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure(); err != nil {
		return nil, err
	}

	var entries []domain.Entry
	for _, entry := range m.entries {
		if domain.SameParent(entry.Parent(), parent) {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].DisplayTitle() < entries[j].DisplayTitle()
	})
	return entries, nil
}

// SetShouldFail makes every operation return err
func (m *MockEntryRepository) SetShouldFail(fail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = fail
	m.failError = err
}

// SaveCount returns the number of successful saves
func (m *MockEntryRepository) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Len returns the number of stored entries
func (m *MockEntryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MockEntryRepository) failure() error {
	if !m.shouldFail {
		return nil
	}
	if m.failError != nil {
		return m.failError
	}
	return fmt.Errorf("mock repository failure")
}

// --- MockNotificationRepository ---

// MockNotificationRepository records notifications in insertion order
type MockNotificationRepository struct {
	mu            sync.Mutex
	notifications []domain.Notification
	shouldFail    bool
	failError     error
}

// NewMockNotificationRepository creates a new mock notification repository
func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{}
}

// Save upserts a notification by id
func (m *MockNotificationRepository) Save(ctx context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		if m.failError != nil {
			return m.failError
		}
		return fmt.Errorf("save failed for %s", n.ID)
	}

	copied := *n
	copied.Attributes = make(map[string]string, len(n.Attributes))
	for k, v := range n.Attributes {
		copied.Attributes[k] = v
	}

	for i := range m.notifications {
		if m.notifications[i].ID == n.ID {
			m.notifications[i] = copied
			return nil
		}
	}
	m.notifications = append(m.notifications, copied)
	return nil
}

// ListByUser returns notifications for the user in insertion order
func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []domain.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result, nil
}

// All returns every stored notification in insertion order
func (m *MockNotificationRepository) All() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]domain.Notification, len(m.notifications))
	copy(all, m.notifications)
	return all
}

// SetShouldFail makes Save return err
func (m *MockNotificationRepository) SetShouldFail(fail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = fail
	m.failError = err
}
