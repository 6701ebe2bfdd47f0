// api/store/shortlink_store.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"linkboard/api/database"
	"linkboard/api/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// ErrShortLinkNotFound is returned when a short code does not exist. An
// inactive link is surfaced the same way by the handler layer.
var ErrShortLinkNotFound = errors.New("short link not found")

// ShortLinkStore reads the short-link registry. The registry's CRUD surface
// is owned elsewhere; this service only looks links up during redirects and
// increments their counters. CreateShortLink exists for seeding and tests.
type ShortLinkStore struct {
	db    *database.DBClient
	qb    sq.StatementBuilderType
	nowFn func() time.Time
}

func NewShortLinkStore(db *database.DBClient) *ShortLinkStore {
	return &ShortLinkStore{
		db:    db,
		qb:    sq.StatementBuilder.PlaceholderFormat(db.Dialect.PlaceholderFormat()),
		nowFn: time.Now,
	}
}

func (s *ShortLinkStore) GetShortLink(ctx context.Context, shortCode string) (*models.ShortLink, error) {
	link := &models.ShortLink{}
	var createdAt, updatedAt int64

	err := s.qb.Select("id", "short_code", "original_url", "platform", "title",
		"COALESCE(description, '')", "is_active", "click_count", "created_at", "updated_at").
		From("short_links").
		Where(sq.Eq{"short_code": shortCode}).
		RunWith(s.db.DB).
		QueryRowContext(ctx).
		Scan(&link.ID, &link.ShortCode, &link.OriginalURL, &link.Platform, &link.Title,
			&link.Description, &link.IsActive, &link.ClickCount, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShortLinkNotFound
		}
		return nil, fmt.Errorf("failed to get short link %q: %w", shortCode, err)
	}

	link.CreatedAt = time.Unix(createdAt, 0).UTC()
	link.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return link, nil
}

// RecordRedirect appends one Click attributed to the link and increments
// its click counter, in a single transaction. The increment is a relative
// UPDATE so concurrent redirects never lose updates.
func (s *ShortLinkStore) RecordRedirect(ctx context.Context, link *models.ShortLink, referrer string) (*models.Click, error) {
	now := s.nowFn().UTC().Truncate(time.Second)
	click := &models.Click{
		ID:        uuid.New().String(),
		Platform:  link.Platform,
		URL:       link.OriginalURL,
		Referrer:  referrer,
		Timestamp: now,
	}

	tx, err := s.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin redirect transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = s.qb.Insert("clicks").
		Columns("id", "platform", "url", "referrer", "timestamp").
		Values(click.ID, click.Platform, click.URL, nullable(referrer), now.Unix()).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert redirect click: %w", err)
	}

	_, err = s.qb.Update("short_links").
		Set("click_count", sq.Expr("click_count + 1")).
		Set("updated_at", now.Unix()).
		Where(sq.Eq{"short_code": link.ShortCode}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to increment click count for %q: %w", link.ShortCode, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit redirect transaction: %w", err)
	}
	return click, nil
}

// CreateShortLink inserts a new registry entry. Used by seed tooling and
// tests; there is deliberately no HTTP surface for it here.
func (s *ShortLinkStore) CreateShortLink(ctx context.Context, link *models.ShortLink) (*models.ShortLink, error) {
	now := s.nowFn().UTC().Truncate(time.Second)
	stored := *link
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now

	_, err := s.qb.Insert("short_links").
		Columns("id", "short_code", "original_url", "platform", "title",
			"description", "is_active", "click_count", "created_at", "updated_at").
		Values(stored.ID, stored.ShortCode, stored.OriginalURL, stored.Platform, stored.Title,
			nullable(stored.Description), stored.IsActive, stored.ClickCount, now.Unix(), now.Unix()).
		RunWith(s.db.DB).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create short link %q: %w", link.ShortCode, err)
	}
	return &stored, nil
}
