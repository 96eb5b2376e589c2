package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/projectdiscovery/gcache"
	"github.com/whoshome/lanwatch/pkg/executil"
	"github.com/whoshome/lanwatch/pkg/types"
)

// Recorder receives a discovery-attempt record for every positively-resolved
// host during a sweep. Implementations must not block: a slow or failing
// recorder must never delay the sweep.
type Recorder interface {
	Record(record types.DiscoveryRecord)
}

// Engine performs LAN host discovery by orchestrating external reachability
// tools. It holds no long-lived state beyond the current settings snapshot
// and a cache of last-known IPs per tracked hardware address.
type Engine struct {
	mu       sync.RWMutex
	settings types.Settings

	exec     executil.Runner
	recorder Recorder

	// hostnameLookup is swappable so tests avoid real DNS.
	hostnameLookup func(ctx context.Context, ip string) string

	// lastKnownIP maps a normalized MAC to the IP it last answered from,
	// feeding the status checker's fast path.
	lastKnownIP gcache.Cache[string, string]
}

// Option configures an Engine.
type Option func(*Engine)

// WithSettings sets the initial settings snapshot.
func WithSettings(settings types.Settings) Option {
	return func(e *Engine) {
		e.settings = settings.Clone()
	}
}

// WithRunner sets the external-command runner. Tests inject fakes here.
func WithRunner(runner executil.Runner) Option {
	return func(e *Engine) {
		e.exec = runner
	}
}

// WithRecorder attaches an optional persistence collaborator.
func WithRecorder(recorder Recorder) Option {
	return func(e *Engine) {
		e.recorder = recorder
	}
}

// New creates a discovery engine with default settings and a local command
// runner unless overridden by options.
func New(options ...Option) *Engine {
	engine := &Engine{
		settings:       types.DefaultSettings(),
		exec:           executil.Local{},
		hostnameLookup: reverseLookup,
		lastKnownIP: gcache.New[string, string](1024).
			LRU().
			Expiration(10 * time.Minute).
			Build(),
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

// Settings returns a copy of the current settings snapshot. Operations take
// the copy once up front so a concurrent update never changes an in-flight
// sweep.
func (e *Engine) Settings() types.Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings.Clone()
}

// UpdateSettings merge-overwrites the live settings snapshot with a JSON
// partial: keys present in the partial win, absent keys are retained.
func (e *Engine) UpdateSettings(partial []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = e.settings.MergeJSON(partial)
}
