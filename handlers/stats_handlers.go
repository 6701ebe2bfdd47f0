// api/handlers/stats_handlers.go
package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"linkboard/api/analytics"
	"linkboard/api/models"

	"github.com/gin-gonic/gin"
)

type StatsHandlers struct {
	Engine    *analytics.Engine
	Reporter  *analytics.Reporter
	Retention *analytics.Retention
}

func NewStatsHandlers(engine *analytics.Engine, reporter *analytics.Reporter, retention *analytics.Retention) *StatsHandlers {
	return &StatsHandlers{Engine: engine, Reporter: reporter, Retention: retention}
}

// parseDays reads the optional `days` query parameter; 0 means "all time".
func parseDays(c *gin.Context, defaultDays int) (int, bool) {
	daysParam := c.Query("days")
	if daysParam == "" {
		return defaultDays, true
	}
	days, err := strconv.Atoi(daysParam)
	if err != nil || days < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'days' parameter. Must be a non-negative integer."})
		return 0, false
	}
	return days, true
}

// GetStats returns totals and breakdowns, plus day series and
// previous-period comparisons when a window is given. The independent
// sub-queries run concurrently; they touch disjoint data and have no
// ordering dependency on each other.
func (h *StatsHandlers) GetStats(c *gin.Context) {
	days, ok := parseDays(c, 0)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	var (
		clickStats     []analytics.PlatformCount
		visitStats     []analytics.ReferrerCount
		totalClicks    int
		totalVisits    int
		uniqueVisitors int
	)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	run := func(fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				errs <- err
			}
		}()
	}

	run(func() (err error) { clickStats, err = h.Engine.ClickBreakdown(ctx, days); return })
	run(func() (err error) { visitStats, err = h.Engine.ReferrerBreakdown(ctx, days); return })
	run(func() (err error) { totalClicks, err = h.Engine.TotalClicks(ctx, days); return })
	run(func() (err error) { totalVisits, err = h.Engine.TotalVisits(ctx, days); return })
	run(func() (err error) { uniqueVisitors, err = h.Engine.UniqueVisitors(ctx, days); return })
	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		log.Printf("Error computing stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch analytics"})
		return
	}

	response := gin.H{
		"clickStats":     clickStats,
		"visitStats":     visitStats,
		"totalClicks":    totalClicks,
		"totalVisits":    totalVisits,
		"uniqueVisitors": uniqueVisitors,
	}

	if days > 0 {
		visitComparison, err := h.Engine.Compare(ctx, models.EventVisit, days)
		if err == nil {
			var clickComparison *analytics.Comparison
			clickComparison, err = h.Engine.Compare(ctx, models.EventClick, days)
			if err == nil {
				response["previousVisits"] = visitComparison.Previous
				response["visitChange"] = visitComparison.PercentChange
				response["previousClicks"] = clickComparison.Previous
				response["clickChange"] = clickComparison.PercentChange
			}
		}
		if err == nil {
			var visitsByDay, clicksByDay []analytics.DayCount
			visitsByDay, err = h.Engine.VisitsByDay(ctx, days)
			if err == nil {
				clicksByDay, err = h.Engine.ClicksByDay(ctx, days)
				response["visitsByDay"] = visitsByDay
				response["clicksByDay"] = clicksByDay
			}
		}
		if err != nil {
			log.Printf("Error computing windowed stats: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch analytics"})
			return
		}
	}

	c.JSON(http.StatusOK, response)
}

// GetVisitorsByDay returns the unique-visitor estimate for the trailing
// window (default 7 days) plus its per-day series.
func (h *StatsHandlers) GetVisitorsByDay(c *gin.Context) {
	days, ok := parseDays(c, 7)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	total, err := h.Engine.UniqueVisitors(ctx, days)
	if err != nil {
		log.Printf("Error getting unique visitors: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch analytics"})
		return
	}
	byDay, err := h.Engine.UniqueVisitorsByDay(ctx, days)
	if err != nil {
		log.Printf("Error getting unique visitors by day: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch analytics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"days":  days,
		"total": total,
		"byDay": byDay,
	})
}

// GetClicksByDay returns the click total for the trailing window (default
// 7 days), its per-day series, and the previous-period count.
func (h *StatsHandlers) GetClicksByDay(c *gin.Context) {
	days, ok := parseDays(c, 7)
	if !ok {
		return
	}
	if days == 0 {
		days = 7
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	comparison, err := h.Engine.Compare(ctx, models.EventClick, days)
	if err != nil {
		log.Printf("Error comparing click periods: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch analytics"})
		return
	}
	byDay, err := h.Engine.ClicksByDay(ctx, days)
	if err != nil {
		log.Printf("Error getting clicks by day: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch analytics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"days":          days,
		"total":         comparison.Current,
		"previous":      comparison.Previous,
		"percentChange": comparison.PercentChange,
		"byDay":         byDay,
	})
}

// ExportReport renders the full report as CSV or JSON with a dated
// download filename.
func (h *StatsHandlers) ExportReport(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	if format != "csv" && format != "json" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'format' parameter. Must be 'csv' or 'json'."})
		return
	}
	days, ok := parseDays(c, 365)
	if !ok {
		return
	}
	if days == 0 {
		days = 365
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	bundle, err := h.Reporter.BuildReport(ctx, days)
	if err != nil {
		log.Printf("Error building export report: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export analytics"})
		return
	}

	filename := fmt.Sprintf("linkboard-report-%s", time.Now().UTC().Format("2006-01-02"))
	if format == "csv" {
		body, err := analytics.RenderCSV(bundle)
		if err != nil {
			log.Printf("Error rendering CSV report: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export analytics"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", body)
		return
	}

	body, err := analytics.RenderJSON(bundle)
	if err != nil {
		log.Printf("Error rendering JSON report: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export analytics"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.json", filename))
	c.Data(http.StatusOK, "application/json", body)
}

// PurgeExpired runs the retention purge on demand.
func (h *StatsHandlers) PurgeExpired(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result, err := h.Retention.PurgeExpired(ctx)
	if err != nil {
		log.Printf("Error purging expired events: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to purge expired data"})
		return
	}

	log.Printf("Retention purge removed %d visits and %d clicks", result.DeletedVisits, result.DeletedClicks)
	c.JSON(http.StatusOK, result)
}
