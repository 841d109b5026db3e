package streak

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimeprobe/internal/domain"
	"github.com/hamed0406/uptimeprobe/internal/repo/memory"
)

type flakyStore struct {
	*memory.Store
	fail bool
}

func (f *flakyStore) Increment(ctx context.Context, id domain.SiteID) (int, error) {
	if f.fail {
		return 0, errors.New("store unavailable")
	}
	return f.Store.Increment(ctx, id)
}

func (f *flakyStore) Reset(ctx context.Context, id domain.SiteID) error {
	if f.fail {
		return errors.New("store unavailable")
	}
	return f.Store.Reset(ctx, id)
}

type countingErrs struct{ ops []string }

func (c *countingErrs) StreakStoreError(op string) { c.ops = append(c.ops, op) }

func TestTracker_ConsecutiveDownIncrements(t *testing.T) {
	tr := NewTracker(memory.New(), zap.NewNop(), nil)
	ctx := context.Background()

	first := tr.Update(ctx, "s1", domain.StatusDown)
	second := tr.Update(ctx, "s1", domain.StatusDown)
	assert.Equal(t, 1, first)
	assert.Equal(t, first+1, second)

	// other sites are independent
	assert.Equal(t, 1, tr.Update(ctx, "s2", domain.StatusDown))
}

func TestTracker_NonDownResets(t *testing.T) {
	for _, st := range []domain.Status{domain.StatusUp, domain.StatusMaintenance} {
		tr := NewTracker(memory.New(), zap.NewNop(), nil)
		ctx := context.Background()
		for i := 0; i < 4; i++ {
			tr.Update(ctx, "s1", domain.StatusDown)
		}
		assert.Equal(t, 0, tr.Update(ctx, "s1", st), "status %v", st)
		assert.Equal(t, 1, tr.Update(ctx, "s1", domain.StatusDown))
	}
}

func TestTracker_StoreFailureFallsBackToLastKnown(t *testing.T) {
	store := &flakyStore{Store: memory.New()}
	errs := &countingErrs{}
	tr := NewTracker(store, zap.NewNop(), errs)
	ctx := context.Background()

	tr.Update(ctx, "s1", domain.StatusDown)
	tr.Update(ctx, "s1", domain.StatusDown)

	store.fail = true
	assert.Equal(t, 2, tr.Update(ctx, "s1", domain.StatusDown))
	assert.Equal(t, 0, tr.Update(ctx, "never-seen", domain.StatusDown))
	assert.Equal(t, []string{"increment", "increment"}, errs.ops)
}

func TestTracker_FailedResetStillReportsZero(t *testing.T) {
	for _, st := range []domain.Status{domain.StatusUp, domain.StatusMaintenance} {
		store := &flakyStore{Store: memory.New()}
		errs := &countingErrs{}
		tr := NewTracker(store, zap.NewNop(), errs)
		ctx := context.Background()

		for i := 0; i < 4; i++ {
			tr.Update(ctx, "s1", domain.StatusDown)
		}

		store.fail = true
		assert.Equal(t, 0, tr.Update(ctx, "s1", st), "status %v", st)
		assert.Equal(t, []string{"reset"}, errs.ops)

		// the next failed increment falls back to the reset value, not the old streak
		assert.Equal(t, 0, tr.Update(ctx, "s1", domain.StatusDown))
	}
}

func TestTracker_ConcurrentDownsAreNotLost(t *testing.T) {
	tr := NewTracker(memory.New(), zap.NewNop(), nil)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Update(ctx, "s1", domain.StatusDown)
		}()
	}
	wg.Wait()
	assert.Equal(t, n+1, tr.Update(ctx, "s1", domain.StatusDown))
}
