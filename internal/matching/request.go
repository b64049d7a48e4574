package matching

import (
	"net/http"
	"net/url"
	"strings"
)

// Request is the subset of an HTTP request that matching looks at.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// FromHTTP snapshots r. body is passed separately because the caller has
// already drained r.Body.
func FromHTTP(r *http.Request, body []byte) *Request {
	return &Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	}
}

// NewRequest rebuilds a Request from journaled fields. Header names are
// canonicalized so lookups behave as they would on a live request.
func NewRequest(method, path, rawQuery string, header map[string][]string, body []byte) *Request {
	q, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		q = url.Values{}
	}
	h := make(http.Header, len(header))
	for k, vs := range header {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	return &Request{Method: method, Path: path, Query: q, Header: h, Body: body}
}
