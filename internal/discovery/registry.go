// Package discovery defines the service-discovery boundary named in §6:
// a key-value store external collaborator that holds partition
// membership, on which processes register at startup and deregister on
// clean shutdown. Only the interface is specified per §1; this package
// also ships an in-memory implementation sufficient for tests and
// single-host operation, grounded on the sync.Map-backed store shape of
// specialistvlad-burstgridgo's internal/inmemorystore package.
package discovery

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Lookup when no entry is registered under a key.
var ErrNotFound = errors.New("discovery: key not found")

// Registry is the external service-discovery collaborator's interface.
// A partition-scoped implementation backs this with a real KV store
// (e.g. Consul, etcd); this repository depends only on the interface.
type Registry interface {
	// Register publishes value under key, for the lifetime of the
	// process or until Deregister is called.
	Register(ctx context.Context, key, value string) error
	// Deregister removes key. Safe to call on an unregistered key.
	Deregister(ctx context.Context, key string) error
	// Lookup returns the value registered under key, or ErrNotFound.
	Lookup(ctx context.Context, key string) (string, error)
	// List returns all currently registered keys under a prefix, e.g.
	// all TfBuilders in a partition.
	List(ctx context.Context, prefix string) (map[string]string, error)
}

// InMemory is a Registry backed by a sync.Map, standing in for the
// external KV store in tests and single-host deployments. Modeled on
// internal/inmemorystore.Store: independent-key, write-heavy, no global
// lock contention.
type InMemory struct {
	entries sync.Map // key string -> value string
}

// NewInMemory creates an empty in-memory registry.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Register implements Registry.
func (r *InMemory) Register(_ context.Context, key, value string) error {
	r.entries.Store(key, value)
	return nil
}

// Deregister implements Registry.
func (r *InMemory) Deregister(_ context.Context, key string) error {
	r.entries.Delete(key)
	return nil
}

// Lookup implements Registry.
func (r *InMemory) Lookup(_ context.Context, key string) (string, error) {
	v, ok := r.entries.Load(key)
	if !ok {
		return "", ErrNotFound
	}
	return v.(string), nil
}

// List implements Registry.
func (r *InMemory) List(_ context.Context, prefix string) (map[string]string, error) {
	out := make(map[string]string)
	r.entries.Range(func(k, v any) bool {
		key := k.(string)
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out[key] = v.(string)
		}
		return true
	})
	return out, nil
}
