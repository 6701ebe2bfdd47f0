// api/store/event_store.go
package store

import (
	"context"
	"fmt"
	"time"

	"linkboard/api/database"
	"linkboard/api/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// EventStore is the append-only persistence layer for Visit and Click
// events. IDs and timestamps are assigned here, at write time; the only
// delete path is DeleteBefore, used by the retention purge.
type EventStore struct {
	db    *database.DBClient
	qb    sq.StatementBuilderType
	nowFn func() time.Time
}

func NewEventStore(db *database.DBClient) *EventStore {
	return &EventStore{
		db:    db,
		qb:    sq.StatementBuilder.PlaceholderFormat(db.Dialect.PlaceholderFormat()),
		nowFn: time.Now,
	}
}

func tableFor(kind models.EventKind) (string, error) {
	switch kind {
	case models.EventVisit:
		return "visits", nil
	case models.EventClick:
		return "clicks", nil
	default:
		return "", fmt.Errorf("unknown event kind %q", kind)
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (s *EventStore) RecordVisit(ctx context.Context, referrer, userAgent string) (*models.Visit, error) {
	visit := &models.Visit{
		ID:        uuid.New().String(),
		Referrer:  referrer,
		UserAgent: userAgent,
		Timestamp: s.nowFn().UTC().Truncate(time.Second),
	}

	_, err := s.qb.Insert("visits").
		Columns("id", "referrer", "user_agent", "timestamp").
		Values(visit.ID, nullable(referrer), nullable(userAgent), visit.Timestamp.Unix()).
		RunWith(s.db.DB).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert visit: %w", err)
	}
	return visit, nil
}

func (s *EventStore) RecordClick(ctx context.Context, platform, url, referrer string) (*models.Click, error) {
	click := &models.Click{
		ID:        uuid.New().String(),
		Platform:  platform,
		URL:       url,
		Referrer:  referrer,
		Timestamp: s.nowFn().UTC().Truncate(time.Second),
	}

	_, err := s.qb.Insert("clicks").
		Columns("id", "platform", "url", "referrer", "timestamp").
		Values(click.ID, platform, url, nullable(referrer), click.Timestamp.Unix()).
		RunWith(s.db.DB).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert click: %w", err)
	}
	return click, nil
}

// ListVisits returns every stored visit, newest first. A full scan is
// acceptable here: the retention horizon bounds the table.
func (s *EventStore) ListVisits(ctx context.Context) ([]models.Visit, error) {
	return s.queryVisits(ctx, s.visitSelect().OrderBy("timestamp DESC"))
}

func (s *EventStore) ListClicks(ctx context.Context) ([]models.Click, error) {
	return s.queryClicks(ctx, s.clickSelect().OrderBy("timestamp DESC"))
}

// VisitsInWindow returns visits with start <= timestamp < end, ascending.
func (s *EventStore) VisitsInWindow(ctx context.Context, start, end time.Time) ([]models.Visit, error) {
	return s.queryVisits(ctx, s.visitSelect().
		Where(sq.GtOrEq{"timestamp": start.Unix()}).
		Where(sq.Lt{"timestamp": end.Unix()}).
		OrderBy("timestamp ASC"))
}

func (s *EventStore) ClicksInWindow(ctx context.Context, start, end time.Time) ([]models.Click, error) {
	return s.queryClicks(ctx, s.clickSelect().
		Where(sq.GtOrEq{"timestamp": start.Unix()}).
		Where(sq.Lt{"timestamp": end.Unix()}).
		OrderBy("timestamp ASC"))
}

// CountInWindow counts events of the given kind with
// start <= timestamp < end.
func (s *EventStore) CountInWindow(ctx context.Context, kind models.EventKind, start, end time.Time) (int, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	var count int
	err = s.qb.Select("count(*)").
		From(table).
		Where(sq.GtOrEq{"timestamp": start.Unix()}).
		Where(sq.Lt{"timestamp": end.Unix()}).
		RunWith(s.db.DB).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %ss in window: %w", kind, err)
	}
	return count, nil
}

func (s *EventStore) CountAll(ctx context.Context, kind models.EventKind) (int, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	var count int
	err = s.qb.Select("count(*)").
		From(table).
		RunWith(s.db.DB).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %ss: %w", kind, err)
	}
	return count, nil
}

// DeleteBefore removes events of the given kind with timestamp < cutoff
// and reports how many rows were removed.
func (s *EventStore) DeleteBefore(ctx context.Context, kind models.EventKind, cutoff time.Time) (int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	res, err := s.qb.Delete(table).
		Where(sq.Lt{"timestamp": cutoff.Unix()}).
		RunWith(s.db.DB).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old %ss: %w", kind, err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return deleted, nil
}

func (s *EventStore) visitSelect() sq.SelectBuilder {
	return s.qb.Select("id", "COALESCE(referrer, '')", "COALESCE(user_agent, '')", "timestamp").
		From("visits")
}

func (s *EventStore) clickSelect() sq.SelectBuilder {
	return s.qb.Select("id", "platform", "url", "COALESCE(referrer, '')", "timestamp").
		From("clicks")
}

func (s *EventStore) queryVisits(ctx context.Context, builder sq.SelectBuilder) ([]models.Visit, error) {
	rows, err := builder.RunWith(s.db.DB).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	var visits []models.Visit
	for rows.Next() {
		var v models.Visit
		var ts int64
		if err := rows.Scan(&v.ID, &v.Referrer, &v.UserAgent, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan visit row: %w", err)
		}
		v.Timestamp = time.Unix(ts, 0).UTC()
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during visit query: %w", err)
	}
	return visits, nil
}

func (s *EventStore) queryClicks(ctx context.Context, builder sq.SelectBuilder) ([]models.Click, error) {
	rows, err := builder.RunWith(s.db.DB).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query clicks: %w", err)
	}
	defer rows.Close()

	var clicks []models.Click
	for rows.Next() {
		var c models.Click
		var ts int64
		if err := rows.Scan(&c.ID, &c.Platform, &c.URL, &c.Referrer, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan click row: %w", err)
		}
		c.Timestamp = time.Unix(ts, 0).UTC()
		clicks = append(clicks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during click query: %w", err)
	}
	return clicks, nil
}
