package engine

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/getmockd/mockscope/internal/matching"
	"github.com/getmockd/mockscope/pkg/config"
	"github.com/getmockd/mockscope/pkg/httputil"
	"github.com/getmockd/mockscope/pkg/requestlog"
	"github.com/getmockd/mockscope/pkg/stub"
)

// NearMissHeader carries the number of near misses on a 404 response.
const NearMissHeader = "X-Mockscope-Near-Misses"

// Handler matches requests against the server's stubs and journals them.
type Handler struct {
	srv     *Server
	log     *slog.Logger
	maxBody int64

	// baseDir resolves relative bodyFile paths; empty means the working
	// directory.
	baseDir string
}

func newHandler(s *Server) *Handler {
	maxBody := s.cfg.MaxBodySize
	if maxBody <= 0 {
		maxBody = config.DefaultMaxBodySize
	}
	return &Handler{srv: s, log: s.log, maxBody: maxBody}
}

// noMatchResponse is the 404 body for an unmatched request.
type noMatchResponse struct {
	httputil.ErrorResponse
	Method     string              `json:"method"`
	Path       string              `json:"path"`
	NearMisses []matching.NearMiss `json:"nearMisses,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	entry := &requestlog.Entry{
		Timestamp:   start,
		Method:      r.Method,
		Path:        r.URL.Path,
		QueryString: r.URL.RawQuery,
		Headers:     r.Header.Clone(),
		RemoteAddr:  r.RemoteAddr,
	}
	defer func() {
		entry.DurationMs = int(time.Since(start).Milliseconds())
		h.srv.journal.Log(entry)
		h.srv.metrics.ObserveRequest(r.Method, !entry.Unmatched(), time.Since(start))
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	entry.Body = string(body)
	entry.BodySize = len(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.log.Warn("request body too large", "path", r.URL.Path, "limit", h.maxBody)
			entry.ResponseStatus = http.StatusRequestEntityTooLarge
			entry.Error = err.Error()
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, httputil.CodeBodyTooLarge,
				"request body exceeds "+strconv.FormatInt(h.maxBody, 10)+" bytes")
			return
		}
		h.log.Warn("failed to read request body", "path", r.URL.Path, "error", err)
		entry.Error = err.Error()
	}

	req := matching.FromHTTP(r, body)
	stubs := h.srv.stubs.List()
	match, res := matching.Select(stubs, req)
	if match == nil && r.Method == http.MethodHead {
		asGet := *req
		asGet.Method = http.MethodGet
		match, res = matching.Select(stubs, &asGet)
	}

	if match == nil {
		misses := matching.CollectNearMisses(stubs, req, matching.DefaultNearMissLimit)
		entry.ResponseStatus = http.StatusNotFound
		entry.NearMisses = nearMissInfos(misses)
		h.log.Debug("request unmatched", "method", r.Method, "path", r.URL.Path, "near_misses", len(misses))

		w.Header().Set(NearMissHeader, strconv.Itoa(len(misses)))
		httputil.WriteJSON(w, http.StatusNotFound, &noMatchResponse{
			ErrorResponse: httputil.ErrorResponse{Code: httputil.CodeNoMatch, Message: "no stub matched the request"},
			Method:        r.Method,
			Path:          r.URL.Path,
			NearMisses:    misses,
		})
		return
	}

	entry.MatchedStubID = match.ID
	h.log.Debug("request matched", "method", r.Method, "path", r.URL.Path, "stub_id", match.ID, "score", res.Score)
	entry.ResponseStatus = h.writeResponse(w, r, match.Response)
}

func nearMissInfos(misses []matching.NearMiss) []requestlog.NearMissInfo {
	if len(misses) == 0 {
		return nil
	}
	out := make([]requestlog.NearMissInfo, len(misses))
	for i, nm := range misses {
		out[i] = requestlog.NearMissInfo{
			StubID:          nm.StubID,
			StubName:        nm.StubName,
			MatchPercentage: nm.MatchPercentage,
			Reason:          nm.Reason,
		}
	}
	return out
}

// writeResponse replays resp and returns the status written.
func (h *Handler) writeResponse(w http.ResponseWriter, r *http.Request, resp *stub.ResponseDefinition) int {
	if resp.DelayMs > 0 {
		timer := time.NewTimer(time.Duration(resp.DelayMs) * time.Millisecond)
		select {
		case <-timer.C:
		case <-r.Context().Done():
			timer.Stop()
			return 0
		}
	}

	body := resp.Body
	if body == "" && resp.BodyFile != "" {
		data, err := h.readBodyFile(resp.BodyFile)
		if err != nil {
			h.log.Error("failed to read body file", "file", resp.BodyFile, "error", err)
			httputil.WriteError(w, http.StatusBadGateway, httputil.CodeBodyFileError, err.Error())
			return http.StatusBadGateway
		}
		body = string(data)
	}

	userSetContentType := false
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
		if strings.EqualFold(name, "Content-Type") {
			userSetContentType = true
		}
	}
	if !userSetContentType && body != "" {
		switch {
		case looksLikeJSON(body):
			w.Header().Set("Content-Type", "application/json")
		case looksLikeXML(body):
			w.Header().Set("Content-Type", "application/xml")
		default:
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
	}

	w.WriteHeader(resp.Status)
	if body != "" && r.Method != http.MethodHead {
		_, _ = io.WriteString(w, body)
	}
	return resp.Status
}

// readBodyFile reads a stub's bodyFile. Relative paths must stay inside the
// base directory.
func (h *Handler) readBodyFile(name string) ([]byte, error) {
	path := filepath.Clean(name)
	if !filepath.IsAbs(path) {
		if !filepath.IsLocal(path) {
			return nil, errors.New("bodyFile path escapes the base directory")
		}
		if h.baseDir != "" {
			path = filepath.Join(h.baseDir, path)
		}
	}
	return os.ReadFile(path)
}

func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	return (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
}

func looksLikeXML(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "<")
}
