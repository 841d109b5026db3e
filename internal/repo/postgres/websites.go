package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/uptimeprobe/internal/domain"
	"github.com/hamed0406/uptimeprobe/internal/repo"
)

type WebsiteStore struct {
	db Querier
}

func NewWebsiteStore(db Querier) *WebsiteStore {
	return &WebsiteStore{db: db}
}

func (s *WebsiteStore) Lookup(ctx context.Context, id domain.SiteID) (domain.Site, error) {
	query, args, err := builder.
		Select("domain", "maintenance").
		From("websites").
		Where(sq.Eq{"id": string(id)}).
		ToSql()
	if err != nil {
		return domain.Site{}, fmt.Errorf("build website query: %w", err)
	}

	site := domain.Site{ID: id}
	if err := s.db.QueryRow(ctx, query, args...).Scan(&site.Domain, &site.Maintenance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Site{}, repo.ErrSiteNotFound
		}
		return domain.Site{}, fmt.Errorf("lookup website %s: %w", id, err)
	}
	return site, nil
}

var _ repo.WebsiteStore = (*WebsiteStore)(nil)
