package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/panbanda/pyreview/pkg/toolrun"
)

// Response is the scripted outcome of one fake tool invocation.
type Response struct {
	Output *toolrun.Output
	Err    error
	// Rewrite, when set, replaces the target file's content, imitating a
	// formatter that edits in place.
	Rewrite *string
}

// Call records one invocation seen by a FakeRunner.
type Call struct {
	Name   string
	Args   []string
	Target string
}

// FakeRunner is a toolrun.Runner that answers from a script keyed by the
// executable name followed by its first argument ("radon cc"), falling
// back to the bare name ("flake8"). Unscripted tools are reported missing.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []Call
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string]Response)}
}

// On scripts the response for key.
func (f *FakeRunner) On(key string, resp Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[key] = resp
	return f
}

// Stdout scripts a successful run printing stdout.
func (f *FakeRunner) Stdout(key, stdout string) *FakeRunner {
	return f.On(key, Response{Output: &toolrun.Output{Stdout: stdout}})
}

// Calls returns the invocations seen so far.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Run implements toolrun.Runner.
func (f *FakeRunner) Run(ctx context.Context, name string, args []string, target string) (*toolrun.Output, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: name, Args: append([]string(nil), args...), Target: target})
	resp, ok := f.lookup(name, args)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &toolrun.ExecutionError{Tool: name, Err: err}
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, toolrun.ErrToolNotFound)
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	if resp.Rewrite != nil {
		if err := os.WriteFile(target, []byte(*resp.Rewrite), 0644); err != nil {
			return nil, &toolrun.ExecutionError{Tool: name, Err: err}
		}
	}
	if resp.Output == nil {
		return &toolrun.Output{}, nil
	}
	out := *resp.Output
	return &out, nil
}

func (f *FakeRunner) lookup(name string, args []string) (Response, bool) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		if resp, ok := f.responses[name+" "+args[0]]; ok {
			return resp, true
		}
	}
	resp, ok := f.responses[name]
	return resp, ok
}
