// api/analytics/retention.go
package analytics

import (
	"context"
	"time"

	"linkboard/api/models"
)

// RetentionHorizon is the age beyond which events are purged.
const RetentionHorizon = 365 * 24 * time.Hour

type PurgeResult struct {
	DeletedVisits int64 `json:"deletedVisits"`
	DeletedClicks int64 `json:"deletedClicks"`
}

// Retention deletes events older than the fixed horizon. It runs once at
// process start (best effort) and on demand through the admin purge
// endpoint; no other deletion path exists.
type Retention struct {
	source EventSource
	nowFn  func() time.Time
}

func NewRetention(source EventSource) *Retention {
	return &Retention{source: source, nowFn: time.Now}
}

// PurgeExpired removes all events with timestamp < now - 365d and returns
// exact counts. Idempotent: an immediate second call deletes nothing.
func (r *Retention) PurgeExpired(ctx context.Context) (*PurgeResult, error) {
	cutoff := r.nowFn().UTC().Add(-RetentionHorizon)

	deletedVisits, err := r.source.DeleteBefore(ctx, models.EventVisit, cutoff)
	if err != nil {
		return nil, err
	}
	deletedClicks, err := r.source.DeleteBefore(ctx, models.EventClick, cutoff)
	if err != nil {
		return nil, err
	}

	return &PurgeResult{
		DeletedVisits: deletedVisits,
		DeletedClicks: deletedClicks,
	}, nil
}
