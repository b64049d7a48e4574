package requestlog

import (
	"fmt"
	"time"
)

// Entry captures one request and the response it got.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	Method      string              `json:"method"`
	Path        string              `json:"path"`
	QueryString string              `json:"queryString,omitempty"`
	Headers     map[string][]string `json:"headers,omitempty"`
	Body        string              `json:"body,omitempty"`
	BodySize    int                 `json:"bodySize"`
	RemoteAddr  string              `json:"remoteAddr"`

	// MatchedStubID is empty when no stub matched.
	MatchedStubID string `json:"matchedStubId,omitempty"`

	ResponseStatus int    `json:"responseStatus"`
	DurationMs     int    `json:"durationMs"`
	Error          string `json:"error,omitempty"`

	// NearMisses is only populated for unmatched requests.
	NearMisses []NearMissInfo `json:"nearMisses,omitempty"`
}

// Unmatched reports whether no stub served the request.
func (e *Entry) Unmatched() bool {
	return e.MatchedStubID == ""
}

// URL returns the path with its query string, as the client sent it.
func (e *Entry) URL() string {
	if e.QueryString == "" {
		return e.Path
	}
	return e.Path + "?" + e.QueryString
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s %s", e.Method, e.URL())
}
