package shell

import (
	"context"
	"sync"
)

// MockRunner records commands and answers them from a handler.
// It is exported so that tests of other packages can share it.
type MockRunner struct {
	mu       sync.Mutex
	Commands []Command

	// RunFunc decides the outcome of each command; nil means success
	// with empty output.
	RunFunc func(cmd Command) (*Result, error)
}

// Run implements Runner.
func (m *MockRunner) Run(_ context.Context, cmd Command) (*Result, error) {
	m.mu.Lock()
	m.Commands = append(m.Commands, cmd)
	m.mu.Unlock()

	if m.RunFunc == nil {
		return &Result{}, nil
	}
	return m.RunFunc(cmd)
}

// CommandLines returns the recorded commands rendered as strings.
func (m *MockRunner) CommandLines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines := make([]string, len(m.Commands))
	for i, c := range m.Commands {
		lines[i] = c.String()
	}
	return lines
}
