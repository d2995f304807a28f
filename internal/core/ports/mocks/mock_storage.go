package mocks

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// --- MockBlobStore ---

// MockBlobStore keeps uploaded blobs in memory
type MockBlobStore struct {
	mu         sync.Mutex
	blobs      map[string][]byte
	keys       []string
	shouldFail bool
	failError  error
	baseURL    string
}

// NewMockBlobStore creates a new mock blob store
func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{
		blobs:   make(map[string][]byte),
		baseURL: "https://blobs.example.test/ccstore/",
	}
}

// Put reads the whole body and stores it under key
func (m *MockBlobStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		if m.failError != nil {
			return "", m.failError
		}
		return "", fmt.Errorf("put failed for %s", key)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.blobs[key] = data
	m.keys = append(m.keys, key)
	return m.baseURL + key, nil
}

// Get returns the stored blob
func (m *MockBlobStore) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	return data, ok
}

// GetKeys returns the keys in upload order
func (m *MockBlobStore) GetKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// SetShouldFail makes Put return err
func (m *MockBlobStore) SetShouldFail(fail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = fail
	m.failError = err
}

// --- MockFetcher ---

// MockFetcher writes canned content instead of downloading
type MockFetcher struct {
	mu         sync.Mutex
	calls      []string
	content    []byte
	shouldFail bool
	failError  error
}

// NewMockFetcher creates a fetcher that writes content for every url
func NewMockFetcher(content []byte) *MockFetcher {
	return &MockFetcher{content: content}
}

// Fetch writes the canned content to dest
func (m *MockFetcher) Fetch(ctx context.Context, url string, dest string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, url)

	if m.shouldFail {
		if m.failError != nil {
			return 0, m.failError
		}
		return 0, fmt.Errorf("fetch failed for %s", url)
	}

	if err := os.WriteFile(dest, m.content, 0644); err != nil {
		return 0, err
	}
	return int64(len(m.content)), nil
}

// SetShouldFail makes Fetch return err
func (m *MockFetcher) SetShouldFail(fail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = fail
	m.failError = err
}

// GetCalls returns the fetched urls
func (m *MockFetcher) GetCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.calls))
	copy(calls, m.calls)
	return calls
}
