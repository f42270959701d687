// Package triplestore is the triplestore-backed ResourceService and
// its read-side materialization. Persistence is abstracted
// behind Connection, "an abstract run-update + run-select interface"
// with three concrete backends: in-memory, an
// embedded on-disk store, and a remote endpoint — keyed respectively
// by nothing, a filesystem path, and an absolute URL.
package triplestore

import (
	"context"
	"sync"

	"github.com/trellis-ldp/trellis-core/domain/rdf"
)

// Connection is the storage abstraction every ResourceService
// operation runs against. Every Mutate call is atomic with respect to
// other Mutate calls on the same Connection.
type Connection interface {
	// Snapshot returns a copy of the full dataset as it stands right
	// now. Callers must not mutate the returned value.
	Snapshot(ctx context.Context) (*rdf.Dataset, error)
	// Mutate runs fn against a private working copy of the dataset and,
	// if fn returns nil, commits that copy as the new durable state.
	// Any error from fn leaves the durable state untouched.
	Mutate(ctx context.Context, fn func(*rdf.Dataset) error) error
}

// MemoryConnection is an in-memory transactional dataset.
type MemoryConnection struct {
	mu sync.Mutex
	ds *rdf.Dataset
}

// NewMemoryConnection creates an empty in-memory connection.
func NewMemoryConnection() *MemoryConnection {
	return &MemoryConnection{ds: rdf.NewDataset()}
}

func (c *MemoryConnection) Snapshot(ctx context.Context) (*rdf.Dataset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneDataset(c.ds), nil
}

func (c *MemoryConnection) Mutate(ctx context.Context, fn func(*rdf.Dataset) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	working := cloneDataset(c.ds)
	if err := fn(working); err != nil {
		return err
	}
	c.ds = working
	return nil
}

// cloneDataset produces an independent copy so a failed Mutate never
// leaves partial writes visible, and so Snapshot callers can't mutate
// the connection's durable state by holding a reference.
func cloneDataset(ds *rdf.Dataset) *rdf.Dataset {
	clone := rdf.NewDataset()
	for _, q := range ds.Quads() {
		clone.Add(q)
	}
	return clone
}
