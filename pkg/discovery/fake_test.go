package discovery

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/whoshome/lanwatch/pkg/executil"
)

type fakeCall struct {
	name    string
	args    []string
	timeout time.Duration
}

// fakeRunner is a scriptable executil.Runner. The handler decides the outcome
// per command; a nil handler makes every tool unavailable. It tracks the
// maximum number of concurrently in-flight commands so tests can assert the
// sweep's concurrency bound.
type fakeRunner struct {
	mu      sync.Mutex
	handler func(name string, args []string) (executil.Result, error)
	// delay simulates command latency; a delay at or above the budget
	// simulates a stuck subprocess killed at the deadline.
	delay time.Duration

	calls       []fakeCall
	inFlight    int64
	maxInFlight int64
}

func (f *fakeRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (executil.Result, error) {
	current := atomic.AddInt64(&f.inFlight, 1)
	defer atomic.AddInt64(&f.inFlight, -1)
	for {
		max := atomic.LoadInt64(&f.maxInFlight)
		if current <= max || atomic.CompareAndSwapInt64(&f.maxInFlight, max, current) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{name: name, args: append([]string(nil), args...), timeout: timeout})
	f.mu.Unlock()

	if f.delay > 0 {
		if f.delay >= timeout {
			time.Sleep(timeout)
			return executil.Result{}, context.DeadlineExceeded
		}
		time.Sleep(f.delay)
	}

	if f.handler == nil {
		return executil.Result{}, executil.ErrToolNotFound
	}
	return f.handler(name, args)
}

func (f *fakeRunner) callsFor(name string) []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []fakeCall
	for _, call := range f.calls {
		if call.name == name {
			matched = append(matched, call)
		}
	}
	return matched
}

func newTestEngine(t *testing.T, runner executil.Runner, options ...Option) *Engine {
	t.Helper()
	engine := New(append([]Option{WithRunner(runner)}, options...)...)
	engine.hostnameLookup = func(context.Context, string) string { return "" }
	return engine
}

func exitOK(stdout string) (executil.Result, error) {
	return executil.Result{Stdout: stdout, ExitOK: true}, nil
}

func exitFail() (executil.Result, error) {
	return executil.Result{}, nil
}

func notFound() (executil.Result, error) {
	return executil.Result{}, executil.ErrToolNotFound
}

func lastArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[len(args)-1]
}
