package gitconfig

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryRunner emulates `git config --global` against an in-memory map.
// It lets other packages exercise the Client without touching the real
// global config. Set Fail to make every call return it.
type MemoryRunner struct {
	mu     sync.Mutex
	values map[string]string
	calls  [][]string

	Fail error
	// FailOn makes only set calls for this key fail.
	FailOn string
}

// NewMemoryRunner returns a MemoryRunner seeded with values.
func NewMemoryRunner(values map[string]string) *MemoryRunner {
	m := &MemoryRunner{values: make(map[string]string)}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

// Run implements Runner for the argument shapes Client produces.
func (m *MemoryRunner) Run(_ context.Context, args ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, append([]string(nil), args...))
	if m.Fail != nil {
		return "", m.Fail
	}

	switch {
	case len(args) == 4 && args[0] == "config" && args[1] == "--global" && args[2] == "--get":
		v, ok := m.values[args[3]]
		if !ok {
			return "", &CommandError{Args: args, ExitCode: 1, Err: ErrCommandFailed}
		}
		return v + "\n", nil
	case len(args) == 4 && args[0] == "config" && args[1] == "--global":
		if m.FailOn == args[2] {
			return "", &CommandError{Args: args, ExitCode: 255, Stderr: "could not lock config file", Err: ErrCommandFailed}
		}
		m.values[args[2]] = args[3]
		return "", nil
	}
	return "", &CommandError{Args: args, ExitCode: 129, Err: fmt.Errorf("unsupported: git %s", strings.Join(args, " "))}
}

// Value returns the stored value for key.
func (m *MemoryRunner) Value(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

// Calls returns a copy of every argument list Run received.
func (m *MemoryRunner) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// SetCalls counts invocations that write a key.
func (m *MemoryRunner) SetCalls() int {
	n := 0
	for _, c := range m.Calls() {
		if len(c) == 4 && c[2] != "--get" {
			n++
		}
	}
	return n
}
