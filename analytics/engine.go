// api/analytics/engine.go
package analytics

import (
	"context"
	"sort"
	"time"

	"linkboard/api/models"
)

// EventSource is the slice of the event store the engine reads from. The
// concrete implementation lives in the store package; tests substitute a
// fake.
type EventSource interface {
	ListVisits(ctx context.Context) ([]models.Visit, error)
	ListClicks(ctx context.Context) ([]models.Click, error)
	VisitsInWindow(ctx context.Context, start, end time.Time) ([]models.Visit, error)
	ClicksInWindow(ctx context.Context, start, end time.Time) ([]models.Click, error)
	CountInWindow(ctx context.Context, kind models.EventKind, start, end time.Time) (int, error)
	CountAll(ctx context.Context, kind models.EventKind) (int, error)
	DeleteBefore(ctx context.Context, kind models.EventKind, cutoff time.Time) (int64, error)
}

// DirectReferrer is the label substituted for visits with no referrer.
const DirectReferrer = "Direct"

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type PlatformCount struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Count    int    `json:"count"`
}

type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Count    int    `json:"count"`
}

// Engine computes ad-hoc aggregates over full scans of the bounded event
// table. days == 0 means "all time" on every method that takes a window.
type Engine struct {
	source EventSource
	nowFn  func() time.Time
}

func NewEngine(source EventSource) *Engine {
	return &Engine{source: source, nowFn: time.Now}
}

func (e *Engine) window(days int) Window {
	return LastDays(e.nowFn(), days)
}

func (e *Engine) visitsInScope(ctx context.Context, days int) ([]models.Visit, error) {
	if days <= 0 {
		return e.source.ListVisits(ctx)
	}
	w := e.window(days)
	return e.source.VisitsInWindow(ctx, w.Start, w.End)
}

func (e *Engine) clicksInScope(ctx context.Context, days int) ([]models.Click, error) {
	if days <= 0 {
		return e.source.ListClicks(ctx)
	}
	w := e.window(days)
	return e.source.ClicksInWindow(ctx, w.Start, w.End)
}

func (e *Engine) totalCount(ctx context.Context, kind models.EventKind, days int) (int, error) {
	if days <= 0 {
		return e.source.CountAll(ctx, kind)
	}
	w := e.window(days)
	return e.source.CountInWindow(ctx, kind, w.Start, w.End)
}

func (e *Engine) TotalVisits(ctx context.Context, days int) (int, error) {
	return e.totalCount(ctx, models.EventVisit, days)
}

func (e *Engine) TotalClicks(ctx context.Context, days int) (int, error) {
	return e.totalCount(ctx, models.EventClick, days)
}

// VisitsByDay groups visits in the trailing window by UTC calendar day,
// ascending. Days with zero events are omitted, not zero-filled.
func (e *Engine) VisitsByDay(ctx context.Context, days int) ([]DayCount, error) {
	visits, err := e.visitsInScope(ctx, days)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]int)
	for _, v := range visits {
		buckets[DayKey(v.Timestamp)]++
	}
	return sortedDayCounts(buckets), nil
}

func (e *Engine) ClicksByDay(ctx context.Context, days int) ([]DayCount, error) {
	clicks, err := e.clicksInScope(ctx, days)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]int)
	for _, c := range clicks {
		buckets[DayKey(c.Timestamp)]++
	}
	return sortedDayCounts(buckets), nil
}

// ClickBreakdown counts clicks per (platform, url) pair.
func (e *Engine) ClickBreakdown(ctx context.Context, days int) ([]PlatformCount, error) {
	clicks, err := e.clicksInScope(ctx, days)
	if err != nil {
		return nil, err
	}

	type key struct{ platform, url string }
	counts := make(map[key]int)
	for _, c := range clicks {
		counts[key{c.Platform, c.URL}]++
	}

	results := make([]PlatformCount, 0, len(counts))
	for k, n := range counts {
		results = append(results, PlatformCount{Platform: k.platform, URL: k.url, Count: n})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		if results[i].Platform != results[j].Platform {
			return results[i].Platform < results[j].Platform
		}
		return results[i].URL < results[j].URL
	})
	return results, nil
}

// ReferrerBreakdown counts visits per referrer, folding missing referrers
// into the "Direct" label before grouping.
func (e *Engine) ReferrerBreakdown(ctx context.Context, days int) ([]ReferrerCount, error) {
	visits, err := e.visitsInScope(ctx, days)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, v := range visits {
		referrer := v.Referrer
		if referrer == "" {
			referrer = DirectReferrer
		}
		counts[referrer]++
	}

	results := make([]ReferrerCount, 0, len(counts))
	for referrer, n := range counts {
		results = append(results, ReferrerCount{Referrer: referrer, Count: n})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		return results[i].Referrer < results[j].Referrer
	})
	return results, nil
}

// UniqueVisitors estimates unique visitors as the number of distinct
// user-agent strings in scope. A missing user agent counts as one distinct
// value like any other. This is an approximation, not an identity count.
func (e *Engine) UniqueVisitors(ctx context.Context, days int) (int, error) {
	visits, err := e.visitsInScope(ctx, days)
	if err != nil {
		return 0, err
	}

	agents := make(map[string]struct{})
	for _, v := range visits {
		agents[v.UserAgent] = struct{}{}
	}
	return len(agents), nil
}

// UniqueVisitorsByDay reports the per-day distinct user-agent count.
func (e *Engine) UniqueVisitorsByDay(ctx context.Context, days int) ([]DayCount, error) {
	visits, err := e.visitsInScope(ctx, days)
	if err != nil {
		return nil, err
	}

	agentsByDay := make(map[string]map[string]struct{})
	for _, v := range visits {
		day := DayKey(v.Timestamp)
		if agentsByDay[day] == nil {
			agentsByDay[day] = make(map[string]struct{})
		}
		agentsByDay[day][v.UserAgent] = struct{}{}
	}

	buckets := make(map[string]int, len(agentsByDay))
	for day, agents := range agentsByDay {
		buckets[day] = len(agents)
	}
	return sortedDayCounts(buckets), nil
}

func sortedDayCounts(buckets map[string]int) []DayCount {
	results := make([]DayCount, 0, len(buckets))
	for date, count := range buckets {
		results = append(results, DayCount{Date: date, Count: count})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Date < results[j].Date })
	return results
}
