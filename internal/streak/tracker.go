// Package streak maintains the per-site consecutive-failure counter.
package streak

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimeprobe/internal/domain"
	"github.com/hamed0406/uptimeprobe/internal/repo"
)

// ErrorCounter receives store failures; *metrics.Metrics implements it.
type ErrorCounter interface {
	StreakStoreError(op string)
}

// Tracker updates the failure streak exactly once per check. The streak is a
// diagnostic, so store failures degrade to the last value this process saw
// instead of failing the check.
type Tracker struct {
	store repo.StreakStore
	log   *zap.Logger
	errs  ErrorCounter
	mu    sync.Mutex
	known map[domain.SiteID]int
}

func NewTracker(store repo.StreakStore, log *zap.Logger, errs ErrorCounter) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{store: store, log: log, errs: errs, known: make(map[domain.SiteID]int)}
}

// Update increments the counter for DOWN and resets it for anything else,
// returning the streak after the update.
func (t *Tracker) Update(ctx context.Context, id domain.SiteID, status domain.Status) int {
	if status == domain.StatusDown {
		n, err := t.store.Increment(ctx, id)
		if err != nil {
			return t.degrade(id, "increment", err)
		}
		t.remember(id, n)
		return n
	}

	// a non-DOWN check ends the streak even when the store cannot record it
	if err := t.store.Reset(ctx, id); err != nil {
		t.report(id, "reset", 0, err)
	}
	t.remember(id, 0)
	return 0
}

func (t *Tracker) degrade(id domain.SiteID, op string, err error) int {
	t.mu.Lock()
	prior := t.known[id]
	t.mu.Unlock()

	t.report(id, op, prior, err)
	return prior
}

func (t *Tracker) report(id domain.SiteID, op string, fallback int, err error) {
	t.log.Warn("streak_store_error",
		zap.String("site_id", string(id)),
		zap.String("op", op),
		zap.Int("fallback_streak", fallback),
		zap.Error(err),
	)
	if t.errs != nil {
		t.errs.StreakStoreError(op)
	}
}

func (t *Tracker) remember(id domain.SiteID, n int) {
	t.mu.Lock()
	t.known[id] = n
	t.mu.Unlock()
}
