// api/handlers/track_handlers.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"linkboard/api/models"

	"github.com/gin-gonic/gin"
)

// EventRecorder is the slice of the event store the ingestion handlers
// write through.
type EventRecorder interface {
	RecordVisit(ctx context.Context, referrer, userAgent string) (*models.Visit, error)
	RecordClick(ctx context.Context, platform, url, referrer string) (*models.Click, error)
}

type TrackHandlers struct {
	Events EventRecorder
}

func NewTrackHandlers(events EventRecorder) *TrackHandlers {
	return &TrackHandlers{Events: events}
}

// TrackVisit records one page load. Referrer and user agent come from the
// body when present, falling back to the request headers.
func (h *TrackHandlers) TrackVisit(c *gin.Context) {
	var req models.TrackVisitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}
	if req.Referrer == "" {
		req.Referrer = c.Request.Referer()
	}
	if req.UserAgent == "" {
		req.UserAgent = c.Request.UserAgent()
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	visit, err := h.Events.RecordVisit(ctx, req.Referrer, req.UserAgent)
	if err != nil {
		log.Printf("Error recording visit: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to track visit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "visit": visit})
}

// TrackClick records one outbound interaction. Platform and URL are
// required; a miss is a validation failure and nothing is stored.
func (h *TrackHandlers) TrackClick(c *gin.Context) {
	var req models.TrackClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Referrer == "" {
		req.Referrer = c.Request.Referer()
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	click, err := h.Events.RecordClick(ctx, req.Platform, req.URL, req.Referrer)
	if err != nil {
		log.Printf("Error recording click: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to track click"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "click": click})
}
