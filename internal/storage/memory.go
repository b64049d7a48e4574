package storage

import (
	"cmp"
	"errors"
	"slices"
	"sync"

	"github.com/getmockd/mockscope/pkg/stub"
)

type entry struct {
	stub *stub.Stub
	seq  uint64
}

// MemoryStore is a concurrency-safe in-memory StubStore.
type MemoryStore struct {
	mu    sync.RWMutex
	stubs map[string]entry
	seq   uint64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stubs: make(map[string]entry)}
}

func (s *MemoryStore) Get(id string) *stub.Stub {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stubs[id].stub
}

// Put keeps the original registration position when replacing a stub.
func (s *MemoryStore) Put(st *stub.Stub) error {
	if st == nil {
		return errors.New("stub is nil")
	}
	if st.ID == "" {
		return errors.New("stub ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.stubs[st.ID]; ok {
		s.stubs[st.ID] = entry{stub: st, seq: existing.seq}
		return nil
	}
	s.seq++
	s.stubs[st.ID] = entry{stub: st, seq: s.seq}
	return nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stubs[id]; !ok {
		return ErrNotFound
	}
	delete(s.stubs, id)
	return nil
}

func (s *MemoryStore) List() []*stub.Stub {
	s.mu.RLock()
	entries := make([]entry, 0, len(s.stubs))
	for _, e := range s.stubs {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	slices.SortFunc(entries, func(a, b entry) int {
		if c := cmp.Compare(b.stub.Priority, a.stub.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	out := make([]*stub.Stub, len(entries))
	for i, e := range entries {
		out[i] = e.stub
	}
	return out
}

func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stubs)
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs = make(map[string]entry)
}

var _ StubStore = (*MemoryStore)(nil)
