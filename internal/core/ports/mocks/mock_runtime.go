package mocks

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/kamal-hamza/ccw/internal/core/ports"
)

// --- MockRuntime ---

// MockRuntime records builds and runs. OnRun lets tests produce output files in the workspace.
type MockRuntime struct {
	mu            sync.Mutex
	builds        []ports.BuildRequest
	runs          []ports.RunRequest
	buildExitCode int
	runExitCode   int
	buildFail     error
	runFail       error

	OnRun func(req ports.RunRequest) error
}

// NewMockRuntime creates a runtime whose builds and runs succeed
func NewMockRuntime() *MockRuntime {
	return &MockRuntime{}
}

// Build records the request
func (m *MockRuntime) Build(ctx context.Context, req ports.BuildRequest) (*ports.BuildResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builds = append(m.builds, req)

	if m.buildFail != nil {
		return nil, m.buildFail
	}
	return &ports.BuildResult{
		ExitCode: m.buildExitCode,
		Output:   fmt.Sprintf("Successfully tagged %s", req.Image),
	}, nil
}

// Run records the request and invokes OnRun
func (m *MockRuntime) Run(ctx context.Context, req ports.RunRequest) (*ports.RunResult, error) {
	m.mu.Lock()
	m.runs = append(m.runs, req)
	hook := m.OnRun
	fail := m.runFail
	exitCode := m.runExitCode
	m.mu.Unlock()

	if fail != nil {
		return nil, fail
	}
	if hook != nil {
		if err := hook(req); err != nil {
			return nil, err
		}
	}
	return &ports.RunResult{ExitCode: exitCode}, nil
}

// SetBuildExitCode sets the exit code reported by Build
func (m *MockRuntime) SetBuildExitCode(code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buildExitCode = code
}

// SetRunExitCode sets the exit code reported by Run
func (m *MockRuntime) SetRunExitCode(code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runExitCode = code
}

// SetBuildError makes Build fail with err
func (m *MockRuntime) SetBuildError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buildFail = err
}

// SetRunError makes Run fail with err
func (m *MockRuntime) SetRunError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runFail = err
}

// GetBuilds returns the recorded build requests
func (m *MockRuntime) GetBuilds() []ports.BuildRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	builds := make([]ports.BuildRequest, len(m.builds))
	copy(builds, m.builds)
	return builds
}

// GetRuns returns the recorded run requests
func (m *MockRuntime) GetRuns() []ports.RunRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	runs := make([]ports.RunRequest, len(m.runs))
	copy(runs, m.runs)
	return runs
}

// --- MockResolver ---

// MockResolver maps every image to a directory under root
type MockResolver struct {
	root string
	err  error
}

// NewMockResolver creates a resolver rooted at root
func NewMockResolver(root string) *MockResolver {
	return &MockResolver{root: root}
}

// Resolve returns root/image
func (m *MockResolver) Resolve(image string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return filepath.Join(m.root, image), nil
}

// SetError makes Resolve fail
func (m *MockResolver) SetError(err error) {
	m.err = err
}
