package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/getmockd/mockscope/internal/id"
	"github.com/getmockd/mockscope/internal/storage"
	"github.com/getmockd/mockscope/pkg/stub"
)

var (
	// ErrStubNotFound is returned for unknown stub IDs.
	ErrStubNotFound = storage.ErrNotFound

	// ErrNilStub is returned when a nil stub is registered.
	ErrNilStub = errors.New("stub cannot be nil")
)

// StubFor validates st and registers a copy of it. A missing ID is
// generated; registering an existing ID replaces that stub and keeps its
// creation time. The stored copy is returned.
func (s *Server) StubFor(st *stub.Stub) (*stub.Stub, error) {
	if st == nil {
		return nil, ErrNilStub
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}

	cp := st.Clone()
	if cp.ID == "" {
		cp.ID = id.Stub()
	}
	now := time.Now()
	if existing := s.stubs.Get(cp.ID); existing != nil {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now

	if err := s.stubs.Put(cp); err != nil {
		return nil, fmt.Errorf("storing stub: %w", err)
	}
	s.metrics.SetStubs(s.stubs.Count())
	s.log.Debug("stub registered", "id", cp.ID, "stub", cp.Label())
	return cp.Clone(), nil
}

// GetStub returns a copy of the stub with stubID.
func (s *Server) GetStub(stubID string) (*stub.Stub, error) {
	st := s.stubs.Get(stubID)
	if st == nil {
		return nil, fmt.Errorf("%w: %s", ErrStubNotFound, stubID)
	}
	return st.Clone(), nil
}

// RemoveStub unregisters the stub with stubID.
func (s *Server) RemoveStub(stubID string) error {
	if err := s.stubs.Delete(stubID); err != nil {
		return fmt.Errorf("%w: %s", err, stubID)
	}
	s.metrics.SetStubs(s.stubs.Count())
	s.log.Debug("stub removed", "id", stubID)
	return nil
}

// Stubs returns copies of every stub in matching order.
func (s *Server) Stubs() []*stub.Stub {
	list := s.stubs.List()
	out := make([]*stub.Stub, len(list))
	for i, st := range list {
		out[i] = st.Clone()
	}
	return out
}

// ResetStubs removes every stub.
func (s *Server) ResetStubs() {
	s.stubs.Clear()
	s.metrics.SetStubs(0)
}
