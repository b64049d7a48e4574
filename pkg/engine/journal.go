package engine

import (
	"context"
	"slices"

	"github.com/getmockd/mockscope/internal/matching"
	"github.com/getmockd/mockscope/pkg/requestlog"
)

// NearMiss describes a stub that partially matched a journaled request.
type NearMiss = matching.NearMiss

// Requests returns journaled requests, newest first. A nil filter returns
// all of them.
func (s *Server) Requests(filter *requestlog.Filter) []*requestlog.Entry {
	return s.journal.List(filter)
}

// Request returns the journal entry with entryID, or nil.
func (s *Server) Request(entryID string) *requestlog.Entry {
	return s.journal.Get(entryID)
}

// FindUnmatchedRequests returns the requests no stub served, in the order
// they were received.
func (s *Server) FindUnmatchedRequests(ctx context.Context) ([]*requestlog.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries := s.journal.List(&requestlog.Filter{Unmatched: requestlog.Bool(true)})
	slices.Reverse(entries)
	return entries, nil
}

// FindNearMissesFor scores entry against the current stubs and returns the
// closest partial matches.
func (s *Server) FindNearMissesFor(entry *requestlog.Entry) []NearMiss {
	if entry == nil {
		return nil
	}
	req := matching.NewRequest(entry.Method, entry.Path, entry.QueryString, entry.Headers, []byte(entry.Body))
	misses := matching.CollectNearMisses(s.stubs.List(), req, matching.DefaultNearMissLimit)
	for i := range misses {
		misses[i].Request = entry.String()
	}
	return misses
}

// FindNearMissesForUnmatched returns the near misses of every unmatched
// request, grouped by request in the order the requests were received.
// Requests with no partial match contribute nothing.
func (s *Server) FindNearMissesForUnmatched(ctx context.Context) ([]NearMiss, error) {
	entries, err := s.FindUnmatchedRequests(ctx)
	if err != nil {
		return nil, err
	}
	var out []NearMiss
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, s.FindNearMissesFor(e)...)
	}
	return out, nil
}

// ResetRequests clears the journal.
func (s *Server) ResetRequests() {
	s.journal.Clear()
}
