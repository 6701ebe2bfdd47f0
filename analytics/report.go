// api/analytics/report.go
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"linkboard/api/models"
)

type ReportMeta struct {
	GeneratedAt  time.Time `json:"generatedAt"`
	Days         int       `json:"days"`
	VisitRecords int       `json:"visitRecords"`
	ClickRecords int       `json:"clickRecords"`
}

type ReportSummary struct {
	TotalVisits    int     `json:"totalVisits"`
	PreviousVisits int     `json:"previousVisits"`
	VisitChange    float64 `json:"visitChange"`
	TotalClicks    int     `json:"totalClicks"`
	PreviousClicks int     `json:"previousClicks"`
	ClickChange    float64 `json:"clickChange"`
	UniqueVisitors int     `json:"uniqueVisitors"`
}

type ClickRow struct {
	Platform  string    `json:"platform"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
	Date      string    `json:"date"`
	Referrer  string    `json:"referrer"`
}

type VisitRow struct {
	Referrer  string    `json:"referrer"`
	UserAgent string    `json:"userAgent"`
	Timestamp time.Time `json:"timestamp"`
	Date      string    `json:"date"`
}

// ReportBundle is the full multi-section export assembled by BuildReport
// and rendered by RenderJSON or RenderCSV.
type ReportBundle struct {
	Meta                ReportMeta      `json:"meta"`
	Summary             ReportSummary   `json:"summary"`
	VisitsByDay         []DayCount      `json:"visitsByDay"`
	ClicksByDay         []DayCount      `json:"clicksByDay"`
	UniqueVisitorsByDay []DayCount      `json:"uniqueVisitorsByDay"`
	PlatformBreakdown   []PlatformCount `json:"platformBreakdown"`
	ReferrerBreakdown   []ReferrerCount `json:"referrerBreakdown"`
	RawClicks           []ClickRow      `json:"rawClicks"`
	RawVisits           []VisitRow      `json:"rawVisits"`
}

// Reporter builds export reports on top of the aggregation and comparison
// engines plus raw rows from the event source.
type Reporter struct {
	engine *Engine
	nowFn  func() time.Time
}

func NewReporter(engine *Engine) *Reporter {
	return &Reporter{engine: engine, nowFn: time.Now}
}

func (r *Reporter) BuildReport(ctx context.Context, days int) (*ReportBundle, error) {
	visitComparison, err := r.engine.Compare(ctx, models.EventVisit, days)
	if err != nil {
		return nil, err
	}
	clickComparison, err := r.engine.Compare(ctx, models.EventClick, days)
	if err != nil {
		return nil, err
	}
	uniqueVisitors, err := r.engine.UniqueVisitors(ctx, days)
	if err != nil {
		return nil, err
	}

	visitsByDay, err := r.engine.VisitsByDay(ctx, days)
	if err != nil {
		return nil, err
	}
	clicksByDay, err := r.engine.ClicksByDay(ctx, days)
	if err != nil {
		return nil, err
	}
	uniqueByDay, err := r.engine.UniqueVisitorsByDay(ctx, days)
	if err != nil {
		return nil, err
	}
	platformBreakdown, err := r.engine.ClickBreakdown(ctx, days)
	if err != nil {
		return nil, err
	}
	referrerBreakdown, err := r.engine.ReferrerBreakdown(ctx, days)
	if err != nil {
		return nil, err
	}

	visits, err := r.engine.visitsInScope(ctx, days)
	if err != nil {
		return nil, err
	}
	clicks, err := r.engine.clicksInScope(ctx, days)
	if err != nil {
		return nil, err
	}

	rawVisits := make([]VisitRow, 0, len(visits))
	for _, v := range visits {
		rawVisits = append(rawVisits, VisitRow{
			Referrer:  v.Referrer,
			UserAgent: v.UserAgent,
			Timestamp: v.Timestamp,
			Date:      DayKey(v.Timestamp),
		})
	}
	rawClicks := make([]ClickRow, 0, len(clicks))
	for _, c := range clicks {
		rawClicks = append(rawClicks, ClickRow{
			Platform:  c.Platform,
			URL:       c.URL,
			Timestamp: c.Timestamp,
			Date:      DayKey(c.Timestamp),
			Referrer:  c.Referrer,
		})
	}

	return &ReportBundle{
		Meta: ReportMeta{
			GeneratedAt:  r.nowFn().UTC(),
			Days:         days,
			VisitRecords: len(rawVisits),
			ClickRecords: len(rawClicks),
		},
		Summary: ReportSummary{
			TotalVisits:    visitComparison.Current,
			PreviousVisits: visitComparison.Previous,
			VisitChange:    visitComparison.PercentChange,
			TotalClicks:    clickComparison.Current,
			PreviousClicks: clickComparison.Previous,
			ClickChange:    clickComparison.PercentChange,
			UniqueVisitors: uniqueVisitors,
		},
		VisitsByDay:         visitsByDay,
		ClicksByDay:         clicksByDay,
		UniqueVisitorsByDay: uniqueByDay,
		PlatformBreakdown:   platformBreakdown,
		ReferrerBreakdown:   referrerBreakdown,
		RawClicks:           rawClicks,
		RawVisits:           rawVisits,
	}, nil
}

func RenderJSON(bundle *ReportBundle) ([]byte, error) {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}

// sanitizeCSVField keeps the row structure intact by substituting the
// delimiter (and line breaks) inside free-text fields. Substitution rather
// than quoting is the documented export format.
func sanitizeCSVField(s string) string {
	s = strings.ReplaceAll(s, ",", ";")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

func formatPercent(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// RenderCSV emits the bundle as a single text document with ordered,
// labeled sections, each a header line followed by comma-delimited rows.
func RenderCSV(bundle *ReportBundle) ([]byte, error) {
	var b strings.Builder

	b.WriteString("=== EXECUTIVE SUMMARY ===\n")
	b.WriteString("Metric,Value\n")
	fmt.Fprintf(&b, "Report Generated,%s\n", bundle.Meta.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Window (days),%d\n", bundle.Meta.Days)
	fmt.Fprintf(&b, "Total Visits,%d\n", bundle.Summary.TotalVisits)
	fmt.Fprintf(&b, "Previous Period Visits,%d\n", bundle.Summary.PreviousVisits)
	fmt.Fprintf(&b, "Visit Change (%%),%s\n", formatPercent(bundle.Summary.VisitChange))
	fmt.Fprintf(&b, "Total Clicks,%d\n", bundle.Summary.TotalClicks)
	fmt.Fprintf(&b, "Previous Period Clicks,%d\n", bundle.Summary.PreviousClicks)
	fmt.Fprintf(&b, "Click Change (%%),%s\n", formatPercent(bundle.Summary.ClickChange))
	fmt.Fprintf(&b, "Unique Visitors,%d\n", bundle.Summary.UniqueVisitors)
	b.WriteString("\n")

	writeDaySection(&b, "VISITS BY DAY", bundle.VisitsByDay)
	writeDaySection(&b, "CLICKS BY DAY", bundle.ClicksByDay)
	writeDaySection(&b, "UNIQUE VISITORS BY DAY", bundle.UniqueVisitorsByDay)

	b.WriteString("=== PLATFORM BREAKDOWN ===\n")
	b.WriteString("Platform,URL,Count\n")
	for _, p := range bundle.PlatformBreakdown {
		fmt.Fprintf(&b, "%s,%s,%d\n", sanitizeCSVField(p.Platform), sanitizeCSVField(p.URL), p.Count)
	}
	b.WriteString("\n")

	b.WriteString("=== REFERRER BREAKDOWN ===\n")
	b.WriteString("Referrer,Count\n")
	for _, r := range bundle.ReferrerBreakdown {
		fmt.Fprintf(&b, "%s,%d\n", sanitizeCSVField(r.Referrer), r.Count)
	}
	b.WriteString("\n")

	b.WriteString("=== RAW CLICKS ===\n")
	b.WriteString("Platform,URL,Timestamp,Date,Referrer\n")
	for _, c := range bundle.RawClicks {
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s\n",
			sanitizeCSVField(c.Platform), sanitizeCSVField(c.URL),
			c.Timestamp.Format(time.RFC3339), c.Date, sanitizeCSVField(c.Referrer))
	}
	b.WriteString("\n")

	b.WriteString("=== RAW VISITS ===\n")
	b.WriteString("Referrer,User Agent,Timestamp,Date\n")
	for _, v := range bundle.RawVisits {
		fmt.Fprintf(&b, "%s,%s,%s,%s\n",
			sanitizeCSVField(v.Referrer), sanitizeCSVField(v.UserAgent),
			v.Timestamp.Format(time.RFC3339), v.Date)
	}

	return []byte(b.String()), nil
}

func writeDaySection(b *strings.Builder, label string, series []DayCount) {
	fmt.Fprintf(b, "=== %s ===\n", label)
	b.WriteString("Date,Count\n")
	for _, d := range series {
		fmt.Fprintf(b, "%s,%d\n", d.Date, d.Count)
	}
	b.WriteString("\n")
}
