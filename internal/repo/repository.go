package repo

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimeprobe/internal/domain"
)

// ErrSiteNotFound is returned by WebsiteStore implementations for unknown ids.
var ErrSiteNotFound = errors.New("website not found")

// Ports; the check engine only sees these.
type WebsiteStore interface {
	Lookup(ctx context.Context, id domain.SiteID) (domain.Site, error)
}

// StreakStore holds the consecutive-failure counter per site. Both methods
// must be atomic on the store side; callers never read-then-write.
type StreakStore interface {
	Increment(ctx context.Context, id domain.SiteID) (int, error)
	Reset(ctx context.Context, id domain.SiteID) error
}

// ResultSink persists finished check results.
type ResultSink interface {
	Write(ctx context.Context, r domain.CheckResult) error
}

// MultiSink writes to every sink and joins their errors.
type MultiSink []ResultSink

func (m MultiSink) Write(ctx context.Context, r domain.CheckResult) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Write(ctx, r); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", s, err))
		}
	}
	return errors.Join(errs...)
}

// LogSink is the sink used when no external store is configured. It only
// records that a result was produced.
type LogSink struct {
	Log *zap.Logger
}

func (s LogSink) Write(_ context.Context, r domain.CheckResult) error {
	if s.Log != nil {
		s.Log.Debug("result_dropped", zap.String("site_id", string(r.SiteID)), zap.Stringer("status", r.Status))
	}
	return nil
}
