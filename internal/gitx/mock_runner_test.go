package gitx_test

import (
	"context"
	"fmt"
	"strings"
)

// MockRunner implements gitx.StreamRunner for testing.
type MockRunner struct {
	// Responses maps "dir:args" keys to (output, error) pairs.
	Responses map[string]MockResponse
	// Env records the extra environment passed to the last Stream call.
	Env []string
}

type MockResponse struct {
	Output string
	Err    error
	// Lines are replayed to Stream callers as stderr output.
	Lines []string
}

func (m *MockRunner) lookup(dir string, args []string) (MockResponse, error) {
	key := dir + ":" + strings.Join(args, " ")
	if resp, ok := m.Responses[key]; ok {
		return resp, nil
	}
	// Also try without dir for convenience
	keyNoDir := ":" + strings.Join(args, " ")
	if resp, ok := m.Responses[keyNoDir]; ok {
		return resp, nil
	}
	return MockResponse{}, fmt.Errorf("unexpected call: dir=%q args=%v", dir, args)
}

func (m *MockRunner) Run(_ context.Context, dir string, args ...string) (string, error) {
	resp, err := m.lookup(dir, args)
	if err != nil {
		return "", err
	}
	return resp.Output, resp.Err
}

func (m *MockRunner) Stream(_ context.Context, dir string, env []string, onLine func(string), args ...string) error {
	m.Env = env
	resp, err := m.lookup(dir, args)
	if err != nil {
		return err
	}
	for _, line := range resp.Lines {
		onLine(line)
	}
	return resp.Err
}
