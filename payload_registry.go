package eventstore

import (
	"fmt"
	"sync"
)

// PayloadRegistry maps a payload type name to a factory that produces a
// fresh zero value of that type. Event payloads are opaque to this
// package, but a Storage backend that serializes them to bytes
// (storage/redis, storage/postgres) needs a way to reconstruct the
// concrete Go type behind an interface{} on read.
type PayloadRegistry struct {
	mu        sync.RWMutex
	factories map[string]func() any
}

// NewPayloadRegistry creates an empty registry.
func NewPayloadRegistry() *PayloadRegistry {
	return &PayloadRegistry{
		factories: make(map[string]func() any),
	}
}

// Register associates name with a factory function. It panics if fn is
// nil or if name is already registered: registration is meant to be a
// one-time, startup-only call, so failing fast surfaces a mistake
// immediately instead of at first use.
func (r *PayloadRegistry) Register(name string, fn func() any) {
	if fn == nil {
		panic("eventstore: cannot register nil payload factory")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("eventstore: payload type already registered: %s", name))
	}
	r.factories[name] = fn
}

// New creates a fresh instance of the payload registered under name.
func (r *PayloadRegistry) New(name string) (any, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("eventstore: payload type not registered: %s", name)
	}
	return factory(), nil
}
