// Package registry lets hosts plug custom commit sinks in by name, the way
// database/sql drivers register themselves. The canopy command consults
// Default for sink names it does not know natively.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/canopy/pkg/ports"
)

// Factory defines the signature for a sink constructor.
// It receives a DSN-style address and returns the sink together with a
// closer for its connections; the closer is always safe to call.
type Factory func(ctx context.Context, dsn string) (ports.CommitSink, func() error, error)

// Registry manages the available sink factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory to the registry.
// If a factory with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = fn
}

// Open looks up a factory by name and builds the sink.
// Returns an error if the factory is not found.
func (r *Registry) Open(ctx context.Context, name, dsn string) (ports.CommitSink, func() error, error) {
	r.mu.RLock()
	fn, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, nil, fmt.Errorf("sink not found: %s", name)
	}

	return fn(ctx, dsn)
}

// Default is the process-wide registry. Hosts that embed canopy register
// their sinks here, typically from an init function.
var Default = NewRegistry()
