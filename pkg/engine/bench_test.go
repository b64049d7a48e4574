package engine

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getmockd/mockscope/pkg/stub"
)

func benchServer(b *testing.B, n int) *Server {
	b.Helper()
	stubs := make([]*stub.Stub, 0, n)
	for i := range n {
		stubs = append(stubs, stub.Get(fmt.Sprintf("/api/items/%d", i)).WithBody("ok").MustBuild())
	}
	return NewServer(nil, WithStubs(stubs...))
}

func BenchmarkHandler_Matched(b *testing.B) {
	h := benchServer(b, 50).Handler()
	b.ReportAllocs()
	for b.Loop() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/25", nil))
		if rec.Code != http.StatusOK {
			b.Fatalf("status %d", rec.Code)
		}
	}
}

func BenchmarkHandler_Unmatched(b *testing.B) {
	h := benchServer(b, 50).Handler()
	b.ReportAllocs()
	for b.Loop() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/item/25", nil))
		if rec.Code != http.StatusNotFound {
			b.Fatalf("status %d", rec.Code)
		}
	}
}

func BenchmarkHandler_Parallel(b *testing.B) {
	h := benchServer(b, 50).Handler()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/7", nil))
		}
	})
}
