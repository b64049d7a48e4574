package storage

import (
	"errors"

	"github.com/getmockd/mockscope/pkg/stub"
)

// ErrNotFound is returned when a stub ID is unknown.
var ErrNotFound = errors.New("stub not found")

// StubStore stores stubs keyed by ID.
type StubStore interface {
	// Get returns the stub with id, or nil.
	Get(id string) *stub.Stub

	// Put inserts or replaces a stub. The stub must carry an ID.
	Put(s *stub.Stub) error

	// Delete removes a stub. It returns ErrNotFound for unknown IDs.
	Delete(id string) error

	// List returns every stub in matching order: priority descending, then
	// registration order.
	List() []*stub.Stub

	Count() int
	Clear()
}
