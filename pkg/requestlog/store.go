package requestlog

// Logger records entries.
type Logger interface {
	Log(entry *Entry)
}

// Store is a queryable request journal.
type Store interface {
	Logger

	// Get returns the entry with id, or nil.
	Get(id string) *Entry

	// List returns entries newest first. A nil filter returns everything.
	List(filter *Filter) []*Entry

	Clear()
	Count() int
}

// Filter narrows List results. Zero fields do not filter.
type Filter struct {
	Method string

	// Path matches entries whose path starts with this prefix.
	Path string

	// MatchedID matches entries served by this stub.
	MatchedID string

	// Unmatched selects only unmatched (true) or only matched (false) entries.
	Unmatched *bool

	Limit  int
	Offset int
}

// Bool returns a pointer to b, for Filter.Unmatched.
func Bool(b bool) *bool { return &b }

func (f *Filter) matches(e *Entry) bool {
	if f.Method != "" && e.Method != f.Method {
		return false
	}
	if f.Path != "" && (len(e.Path) < len(f.Path) || e.Path[:len(f.Path)] != f.Path) {
		return false
	}
	if f.MatchedID != "" && e.MatchedStubID != f.MatchedID {
		return false
	}
	if f.Unmatched != nil && e.Unmatched() != *f.Unmatched {
		return false
	}
	return true
}
