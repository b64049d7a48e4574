package scope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getmockd/mockscope/pkg/logging"
)

// Gate fails a scope whose servers received requests no stub matched.
// The zero value reports the first failing server only.
type Gate struct {
	// Aggregate checks every server and joins all failures.
	Aggregate bool
	Logger    *slog.Logger
}

// Verify checks handles in order. A handle's own override wins over
// settings; handles that do not fail on unmatched requests are skipped.
func (g *Gate) Verify(ctx context.Context, handles []*Handle, settings Settings) error {
	var errs []error
	for _, h := range handles {
		fail := settings.FailOnUnmatchedRequests
		if v, ok := h.FailOnUnmatchedOverride(); ok {
			fail = v
		}
		if !fail {
			continue
		}
		err := g.check(ctx, h.srv, h.URL())
		if err == nil {
			continue
		}
		if g == nil || !g.Aggregate {
			return err
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// VerifyJournal checks a single journal unconditionally. server names it
// in the error.
func (g *Gate) VerifyJournal(ctx context.Context, j Journal, server string) error {
	return g.check(ctx, j, server)
}

func (g *Gate) check(ctx context.Context, j Journal, server string) error {
	unmatched, err := j.FindUnmatchedRequests(ctx)
	if err != nil {
		return fmt.Errorf("failed to read unmatched requests from %s: %w", server, err)
	}
	if len(unmatched) == 0 {
		return nil
	}
	misses, err := j.FindNearMissesForUnmatched(ctx)
	if err != nil {
		return fmt.Errorf("failed to find near misses on %s: %w", server, err)
	}
	g.logger().Debug("unmatched requests", "server", server, "requests", len(unmatched), "nearMisses", len(misses))
	if len(misses) > 0 {
		return &UnmatchedNearMissError{Server: server, Requests: unmatched, NearMisses: misses}
	}
	return &UnmatchedRequestError{Server: server, Requests: unmatched}
}

func (g *Gate) logger() *slog.Logger {
	if g == nil {
		return logging.Nop()
	}
	return logging.OrNop(g.Logger)
}
