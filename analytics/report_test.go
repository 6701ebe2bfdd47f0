package analytics

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"linkboard/api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportFixture() *fakeSource {
	return &fakeSource{
		visits: []models.Visit{
			visitAt(testNow.Add(-2*time.Hour), "example.com", "Mozilla/5.0 (X11, Linux x86_64)"),
			visitAt(testNow.Add(-3*time.Hour), "", "Mozilla/5.0 (Macintosh; Intel)"),
			visitAt(testNow.Add(-26*time.Hour), "example.com", "Mozilla/5.0 (X11, Linux x86_64)"),
		},
		clicks: []models.Click{
			clickAt(testNow.Add(-1*time.Hour), "Instagram", "https://instagram.com/x"),
			clickAt(testNow.Add(-25*time.Hour), "TikTok", "https://tiktok.com/@x"),
		},
	}
}

func newTestReporter(source *fakeSource) *Reporter {
	reporter := NewReporter(newTestEngine(source))
	reporter.nowFn = func() time.Time { return testNow }
	return reporter
}

func TestBuildReport(t *testing.T) {
	reporter := newTestReporter(reportFixture())

	bundle, err := reporter.BuildReport(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, 7, bundle.Meta.Days)
	assert.Equal(t, testNow, bundle.Meta.GeneratedAt)
	assert.Equal(t, 3, bundle.Meta.VisitRecords)
	assert.Equal(t, 2, bundle.Meta.ClickRecords)

	assert.Equal(t, 3, bundle.Summary.TotalVisits)
	assert.Equal(t, 2, bundle.Summary.TotalClicks)
	assert.Equal(t, 0, bundle.Summary.PreviousVisits)
	assert.Equal(t, 100.0, bundle.Summary.VisitChange)
	assert.Equal(t, 2, bundle.Summary.UniqueVisitors)

	require.Len(t, bundle.VisitsByDay, 2)
	assert.Equal(t, "2025-06-14", bundle.VisitsByDay[0].Date)
	assert.Equal(t, "2025-06-15", bundle.VisitsByDay[1].Date)

	require.Len(t, bundle.RawClicks, 2)
	assert.Equal(t, "2025-06-14", bundle.RawClicks[0].Date)
	require.Len(t, bundle.RawVisits, 3)
}

func TestRenderCSVSectionsAndRowCounts(t *testing.T) {
	reporter := newTestReporter(reportFixture())

	bundle, err := reporter.BuildReport(context.Background(), 7)
	require.NoError(t, err)

	body, err := RenderCSV(bundle)
	require.NoError(t, err)
	doc := string(body)

	for _, section := range []string{
		"=== EXECUTIVE SUMMARY ===",
		"=== VISITS BY DAY ===",
		"=== CLICKS BY DAY ===",
		"=== UNIQUE VISITORS BY DAY ===",
		"=== PLATFORM BREAKDOWN ===",
		"=== REFERRER BREAKDOWN ===",
		"=== RAW CLICKS ===",
		"=== RAW VISITS ===",
	} {
		assert.Contains(t, doc, section)
	}

	// Section order is fixed.
	assert.Less(t, strings.Index(doc, "=== EXECUTIVE SUMMARY ==="), strings.Index(doc, "=== VISITS BY DAY ==="))
	assert.Less(t, strings.Index(doc, "=== REFERRER BREAKDOWN ==="), strings.Index(doc, "=== RAW CLICKS ==="))
	assert.Less(t, strings.Index(doc, "=== RAW CLICKS ==="), strings.Index(doc, "=== RAW VISITS ==="))

	// Raw section row counts match the window's event counts.
	assert.Equal(t, bundle.Meta.ClickRecords, sectionRowCount(t, doc, "=== RAW CLICKS ==="))
	assert.Equal(t, bundle.Meta.VisitRecords, sectionRowCount(t, doc, "=== RAW VISITS ==="))
}

func TestRenderCSVReplacesEmbeddedCommas(t *testing.T) {
	reporter := newTestReporter(reportFixture())

	bundle, err := reporter.BuildReport(context.Background(), 7)
	require.NoError(t, err)

	body, err := RenderCSV(bundle)
	require.NoError(t, err)
	doc := string(body)

	// The user agent "Mozilla/5.0 (X11, Linux x86_64)" carries a comma;
	// it must come out substituted.
	assert.NotContains(t, doc, "Mozilla/5.0 (X11, Linux x86_64)")
	assert.Contains(t, doc, "Mozilla/5.0 (X11; Linux x86_64)")
}

// sectionRowCount counts data rows between a section label and the next
// blank line, excluding the header line.
func sectionRowCount(t *testing.T, doc, label string) int {
	t.Helper()
	idx := strings.Index(doc, label)
	require.GreaterOrEqual(t, idx, 0)

	rest := doc[idx+len(label):]
	rest = strings.TrimPrefix(rest, "\n")
	lines := strings.Split(rest, "\n")
	require.NotEmpty(t, lines)

	count := 0
	for _, line := range lines[1:] { // skip the header line
		if strings.TrimSpace(line) == "" {
			break
		}
		count++
	}
	return count
}

func TestRenderJSONRoundTrips(t *testing.T) {
	reporter := newTestReporter(reportFixture())

	bundle, err := reporter.BuildReport(context.Background(), 7)
	require.NoError(t, err)

	body, err := RenderJSON(bundle)
	require.NoError(t, err)

	var decoded ReportBundle
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, bundle.Summary, decoded.Summary)
	assert.Equal(t, bundle.VisitsByDay, decoded.VisitsByDay)
	assert.Equal(t, len(bundle.RawVisits), len(decoded.RawVisits))
}
