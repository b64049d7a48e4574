package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Stub generates a stub ID (UUID v4).
func Stub() string {
	return uuid.NewString()
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// Entry generates a journal entry ID.
// IDs generated within the same millisecond are strictly increasing.
func Entry() string {
	return EntryAt(time.Now())
}

// EntryAt generates a journal entry ID for the given time.
func EntryAt(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// EntryTime extracts the timestamp encoded in a journal entry ID.
func EntryTime(s string) (time.Time, error) {
	parsed, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

// IsStub reports whether s is a well-formed stub ID.
func IsStub(s string) bool {
	return uuid.Validate(s) == nil
}
