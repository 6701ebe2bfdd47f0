// api/analytics/compare.go
package analytics

import (
	"context"

	"linkboard/api/models"
)

// Comparison holds the current trailing-window count, the count over the
// immediately preceding equal-length window, and the relative change.
type Comparison struct {
	Current       int     `json:"current"`
	Previous      int     `json:"previous"`
	PercentChange float64 `json:"percentChange"`
}

// Compare computes the period-over-period comparison for the trailing
// `days` window. When the previous window is empty, the change is reported
// as a full positive swing (100.0) if there is any current activity and
// 0.0 otherwise; this avoids a division by zero while still signaling new
// activity.
func (e *Engine) Compare(ctx context.Context, kind models.EventKind, days int) (*Comparison, error) {
	current := e.window(days)
	previous := current.Previous()

	currentCount, err := e.source.CountInWindow(ctx, kind, current.Start, current.End)
	if err != nil {
		return nil, err
	}
	previousCount, err := e.source.CountInWindow(ctx, kind, previous.Start, previous.End)
	if err != nil {
		return nil, err
	}

	return &Comparison{
		Current:       currentCount,
		Previous:      previousCount,
		PercentChange: PercentChange(currentCount, previousCount),
	}, nil
}

func PercentChange(current, previous int) float64 {
	if previous == 0 {
		if current > 0 {
			return 100.0
		}
		return 0.0
	}
	return float64(current-previous) / float64(previous) * 100
}
