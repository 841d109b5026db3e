package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/hamed0406/uptimeprobe/internal/domain"
	"github.com/hamed0406/uptimeprobe/internal/repo"
)

// StreakStore keeps failure streaks in uptime_failure_streaks. Each call is a
// single upsert statement, so concurrent checks of one site never lose an
// increment.
type StreakStore struct {
	db Querier
}

func NewStreakStore(db Querier) *StreakStore {
	return &StreakStore{db: db}
}

func (s *StreakStore) Increment(ctx context.Context, id domain.SiteID) (int, error) {
	query, args, err := builder.
		Insert("uptime_failure_streaks").
		Columns("site_id", "streak", "updated_at").
		Values(string(id), 1, sq.Expr("now()")).
		Suffix("ON CONFLICT (site_id) DO UPDATE SET streak = uptime_failure_streaks.streak + 1, updated_at = now() RETURNING streak").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build increment: %w", err)
	}
	var n int
	if err := s.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("increment streak %s: %w", id, err)
	}
	return n, nil
}

func (s *StreakStore) Reset(ctx context.Context, id domain.SiteID) error {
	query, args, err := builder.
		Insert("uptime_failure_streaks").
		Columns("site_id", "streak", "updated_at").
		Values(string(id), 0, sq.Expr("now()")).
		Suffix("ON CONFLICT (site_id) DO UPDATE SET streak = 0, updated_at = now()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build reset: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("reset streak %s: %w", id, err)
	}
	return nil
}

var _ repo.StreakStore = (*StreakStore)(nil)
