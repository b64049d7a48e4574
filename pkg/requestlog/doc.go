// Package requestlog records the requests an engine received so tests can
// inspect them and the verification gate can find the ones no stub matched.
//
// It is distinct from operational logging, which goes through log/slog.
//
//	store := requestlog.NewMemoryStore(1000)
//	store.Log(&requestlog.Entry{Method: "GET", Path: "/api/users"})
//	unmatched := store.List(&requestlog.Filter{Unmatched: requestlog.Bool(true)})
package requestlog
