package storage

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockscope/pkg/stub"
)

func newStub(id string, priority int) *stub.Stub {
	s := stub.Get("/" + id).WithPriority(priority).MustBuild()
	s.ID = id
	return s
}

func TestMemoryStore_CRUD(t *testing.T) {
	s := NewMemoryStore()

	require.NoError(t, s.Put(newStub("a", 0)))
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, "a", s.Get("a").ID)
	assert.Nil(t, s.Get("missing"))

	require.NoError(t, s.Delete("a"))
	assert.ErrorIs(t, s.Delete("a"), ErrNotFound)
	assert.Equal(t, 0, s.Count())
}

func TestMemoryStore_PutRejectsInvalid(t *testing.T) {
	s := NewMemoryStore()
	assert.Error(t, s.Put(nil))
	assert.Error(t, s.Put(stub.Get("/x").MustBuild()))
}

func TestMemoryStore_ListOrder(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Put(newStub("first", 0)))
	require.NoError(t, s.Put(newStub("second", 0)))
	require.NoError(t, s.Put(newStub("urgent", 5)))
	require.NoError(t, s.Put(newStub("third", 0)))

	var ids []string
	for _, st := range s.List() {
		ids = append(ids, st.ID)
	}
	assert.Equal(t, []string{"urgent", "first", "second", "third"}, ids)
}

func TestMemoryStore_ReplaceKeepsPosition(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Put(newStub("a", 0)))
	require.NoError(t, s.Put(newStub("b", 0)))

	replacement := newStub("a", 0)
	replacement.Name = "replaced"
	require.NoError(t, s.Put(replacement))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "replaced", list[0].Name)
}

func TestMemoryStore_Clear(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Put(newStub("a", 0)))
	s.Clear()
	assert.Empty(t, s.List())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			_ = s.Put(newStub(id, i%3))
			_ = s.List()
			_ = s.Get(id)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Count())
}
