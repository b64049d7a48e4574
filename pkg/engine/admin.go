package engine

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/getmockd/mockscope/internal/matching"
	"github.com/getmockd/mockscope/pkg/httputil"
	"github.com/getmockd/mockscope/pkg/requestlog"
	"github.com/getmockd/mockscope/pkg/stub"
)

// AdminPrefix is where the admin API is mounted.
const AdminPrefix = "/__admin"

// maxStubBody bounds a stub definition posted to the admin API.
const maxStubBody = 1 << 20

// Admin API payloads.
type (
	HealthResponse struct {
		Status        string  `json:"status"`
		Running       bool    `json:"running"`
		Stubs         int     `json:"stubs"`
		Requests      int     `json:"requests"`
		UptimeSeconds float64 `json:"uptimeSeconds"`
	}

	StubsResponse struct {
		Mappings []*stub.Stub `json:"mappings"`
		Total    int          `json:"total"`
	}

	RequestsResponse struct {
		Requests []*requestlog.Entry `json:"requests"`
		Total    int                 `json:"total"`
	}

	NearMissesResponse struct {
		NearMisses []matching.NearMiss `json:"nearMisses"`
	}
)

func (s *Server) newRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route(AdminPrefix, func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/mappings", func(r chi.Router) {
			r.Get("/", s.handleListStubs)
			r.Post("/", s.handleCreateStub)
			r.Delete("/", s.handleResetStubs)
			r.Get("/{id}", s.handleGetStub)
			r.Delete("/{id}", s.handleDeleteStub)
		})

		r.Route("/requests", func(r chi.Router) {
			r.Get("/", s.handleListRequests)
			r.Delete("/", s.handleResetRequests)
			r.Get("/unmatched", s.handleUnmatched)
			r.Get("/unmatched/near-misses", s.handleNearMisses)
		})

		r.Post("/reset", s.handleReset)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	})

	r.Handle("/*", s.handler)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, &HealthResponse{
		Status:        "healthy",
		Running:       s.IsRunning(),
		Stubs:         s.stubs.Count(),
		Requests:      s.journal.Count(),
		UptimeSeconds: s.Uptime().Seconds(),
	})
}

func (s *Server) handleListStubs(w http.ResponseWriter, _ *http.Request) {
	stubs := s.Stubs()
	httputil.WriteJSON(w, http.StatusOK, &StubsResponse{Mappings: stubs, Total: len(stubs)})
}

func (s *Server) handleCreateStub(w http.ResponseWriter, r *http.Request) {
	var st stub.Stub
	if err := httputil.DecodeJSON(w, r, maxStubBody, &st); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeInvalidJSON, err.Error())
		return
	}
	created, err := s.StubFor(&st)
	if err != nil {
		var ve *stub.ValidationError
		if errors.As(err, &ve) {
			httputil.WriteError(w, http.StatusBadRequest, httputil.CodeValidationError, err.Error())
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) handleResetStubs(w http.ResponseWriter, _ *http.Request) {
	s.ResetStubs()
	httputil.WriteNoContent(w)
}

func (s *Server) handleGetStub(w http.ResponseWriter, r *http.Request) {
	st, err := s.GetStub(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, httputil.CodeNotFound, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (s *Server) handleDeleteStub(w http.ResponseWriter, r *http.Request) {
	if err := s.RemoveStub(chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, http.StatusNotFound, httputil.CodeNotFound, err.Error())
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &requestlog.Filter{
		Method:    q.Get("method"),
		Path:      q.Get("path"),
		MatchedID: q.Get("stubId"),
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))
	if v := q.Get("unmatched"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.Unmatched = requestlog.Bool(b)
		}
	}
	entries := s.Requests(filter)
	httputil.WriteJSON(w, http.StatusOK, &RequestsResponse{Requests: entries, Total: s.journal.Count()})
}

func (s *Server) handleResetRequests(w http.ResponseWriter, _ *http.Request) {
	s.ResetRequests()
	httputil.WriteNoContent(w)
}

func (s *Server) handleUnmatched(w http.ResponseWriter, r *http.Request) {
	entries, err := s.FindUnmatchedRequests(r.Context())
	if err != nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "canceled", err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &RequestsResponse{Requests: entries, Total: len(entries)})
}

func (s *Server) handleNearMisses(w http.ResponseWriter, r *http.Request) {
	misses, err := s.FindNearMissesForUnmatched(r.Context())
	if err != nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "canceled", err.Error())
		return
	}
	if misses == nil {
		misses = []matching.NearMiss{}
	}
	httputil.WriteJSON(w, http.StatusOK, &NearMissesResponse{NearMisses: misses})
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.Reset()
	httputil.WriteNoContent(w)
}
