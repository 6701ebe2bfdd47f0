// api/handlers/redirect_handlers.go
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"linkboard/api/models"
	"linkboard/api/store"

	"github.com/gin-gonic/gin"
)

// ShortLinkSource resolves short codes and records redirect side effects.
type ShortLinkSource interface {
	GetShortLink(ctx context.Context, shortCode string) (*models.ShortLink, error)
	RecordRedirect(ctx context.Context, link *models.ShortLink, referrer string) (*models.Click, error)
}

// ShortLinkCache is the optional Redis layer in front of the registry.
type ShortLinkCache interface {
	Get(ctx context.Context, shortCode string) (*models.ShortLink, bool, error)
	Set(ctx context.Context, link *models.ShortLink) error
}

type RedirectHandlers struct {
	Links ShortLinkSource
	Cache ShortLinkCache // nil when Redis is not configured
}

func NewRedirectHandlers(links ShortLinkSource, cache ShortLinkCache) *RedirectHandlers {
	return &RedirectHandlers{Links: links, Cache: cache}
}

// Redirect resolves a short code to its destination, records one Click and
// increments the link's counter, then issues a 301. Unknown or inactive
// codes get a 404 with no side effects.
func (h *RedirectHandlers) Redirect(c *gin.Context) {
	shortCode := c.Param("code")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	link := h.cachedLink(ctx, shortCode)
	if link == nil {
		var err error
		link, err = h.Links.GetShortLink(ctx, shortCode)
		if err != nil {
			if errors.Is(err, store.ErrShortLinkNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Short link not found"})
				return
			}
			log.Printf("Error looking up short link %q: %v", shortCode, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve short link"})
			return
		}
		if h.Cache != nil && link.IsActive {
			if err := h.Cache.Set(ctx, link); err != nil {
				log.Printf("Failed to cache short link %q: %v", shortCode, err)
			}
		}
	}

	if !link.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Short link not found"})
		return
	}

	if _, err := h.Links.RecordRedirect(ctx, link, c.Request.Referer()); err != nil {
		log.Printf("Error recording redirect for %q: %v", shortCode, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve short link"})
		return
	}

	c.Redirect(http.StatusMovedPermanently, link.OriginalURL)
}

func (h *RedirectHandlers) cachedLink(ctx context.Context, shortCode string) *models.ShortLink {
	if h.Cache == nil {
		return nil
	}
	link, ok, err := h.Cache.Get(ctx, shortCode)
	if err != nil {
		log.Printf("Short link cache lookup failed for %q: %v", shortCode, err)
		return nil
	}
	if !ok {
		return nil
	}
	return link
}
