package runner

import (
	"context"
	"strings"
	"sync"
)

// Hook simulates the side effects of an external tool (for example the
// package.json that `npm init -y` leaves behind).
type Hook func(cmd Command) error

// Fake records commands instead of executing them.
type Fake struct {
	mu       sync.Mutex
	calls    []Command
	started  []Command
	failures map[string]int
	hooks    []fakeHook
	outputs  map[string]string
}

type fakeHook struct {
	prefix string
	fn     Hook
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		failures: make(map[string]int),
		outputs:  make(map[string]string),
	}
}

// FailOn makes every command whose String() starts with prefix exit with code.
func (f *Fake) FailOn(prefix string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[prefix] = code
}

// On registers a hook for commands whose String() starts with prefix.
func (f *Fake) On(prefix string, fn Hook) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks = append(f.hooks, fakeHook{prefix: prefix, fn: fn})
}

// SetOutput sets the stdout Output returns for commands starting with prefix.
func (f *Fake) SetOutput(prefix, out string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs[prefix] = out
}

// Run records cmd, applies hooks and fails when a FailOn prefix matches.
func (f *Fake) Run(_ context.Context, cmd Command) error {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	code, fail := f.match(cmd)
	hooks := f.matchingHooks(cmd)
	f.mu.Unlock()

	if fail {
		return &CommandError{Command: cmd, ExitCode: code}
	}
	for _, h := range hooks {
		if err := h(cmd); err != nil {
			return err
		}
	}
	return nil
}

// Output records cmd and returns the configured output.
func (f *Fake) Output(ctx context.Context, cmd Command) (string, error) {
	if err := f.Run(ctx, cmd); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := cmd.String()
	for prefix, out := range f.outputs {
		if strings.HasPrefix(s, prefix) {
			return out, nil
		}
	}
	return "", nil
}

// Start records cmd as a detached launch.
func (f *Fake) Start(cmd Command) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if code, fail := f.match(cmd); fail {
		return 0, &CommandError{Command: cmd, ExitCode: code}
	}
	f.started = append(f.started, cmd)
	return 4242, nil
}

// Calls returns the commands passed to Run and Output, in order.
func (f *Fake) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.calls...)
}

// Started returns the commands passed to Start.
func (f *Fake) Started() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.started...)
}

// Lines returns Calls rendered with String, handy for assertions.
func (f *Fake) Lines() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

func (f *Fake) match(cmd Command) (int, bool) {
	s := cmd.String()
	for prefix, code := range f.failures {
		if strings.HasPrefix(s, prefix) {
			return code, true
		}
	}
	return 0, false
}

func (f *Fake) matchingHooks(cmd Command) []Hook {
	s := cmd.String()
	var out []Hook
	for _, h := range f.hooks {
		if strings.HasPrefix(s, h.prefix) {
			out = append(out, h.fn)
		}
	}
	return out
}
