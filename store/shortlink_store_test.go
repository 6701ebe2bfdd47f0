package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"linkboard/api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedShortLink(t *testing.T, s *ShortLinkStore, shortCode string, active bool) *models.ShortLink {
	t.Helper()
	link, err := s.CreateShortLink(context.Background(), &models.ShortLink{
		ShortCode:   shortCode,
		OriginalURL: "https://instagram.com/x",
		Platform:    "Instagram",
		Title:       "Instagram profile",
		IsActive:    active,
	})
	require.NoError(t, err)
	return link
}

func TestGetShortLink(t *testing.T) {
	db := newTestDB(t)
	s := NewShortLinkStore(db)
	seedShortLink(t, s, "ig", true)

	link, err := s.GetShortLink(context.Background(), "ig")
	require.NoError(t, err)
	assert.Equal(t, "https://instagram.com/x", link.OriginalURL)
	assert.Equal(t, "Instagram", link.Platform)
	assert.True(t, link.IsActive)
	assert.Equal(t, int64(0), link.ClickCount)
}

func TestGetShortLinkNotFound(t *testing.T) {
	db := newTestDB(t)
	s := NewShortLinkStore(db)

	_, err := s.GetShortLink(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrShortLinkNotFound)
}

func TestRecordRedirectAppendsClickAndIncrementsCounter(t *testing.T) {
	db := newTestDB(t)
	links := NewShortLinkStore(db)
	events := NewEventStore(db)
	link := seedShortLink(t, links, "ig", true)

	links.nowFn = func() time.Time { return baseTime }
	click, err := links.RecordRedirect(context.Background(), link, "example.com")
	require.NoError(t, err)
	assert.Equal(t, "Instagram", click.Platform)
	assert.Equal(t, "https://instagram.com/x", click.URL)
	assert.Equal(t, "example.com", click.Referrer)

	updated, err := links.GetShortLink(context.Background(), "ig")
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.ClickCount)

	count, err := events.CountAll(context.Background(), models.EventClick)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestConcurrentRedirectsLoseNoUpdates(t *testing.T) {
	db := newTestDB(t)
	links := NewShortLinkStore(db)
	events := NewEventStore(db)
	link := seedShortLink(t, links, "ig", true)

	const redirects = 25
	var wg sync.WaitGroup
	errs := make(chan error, redirects)
	for i := 0; i < redirects; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := links.RecordRedirect(context.Background(), link, ""); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	updated, err := links.GetShortLink(context.Background(), "ig")
	require.NoError(t, err)
	assert.Equal(t, int64(redirects), updated.ClickCount)

	count, err := events.CountAll(context.Background(), models.EventClick)
	require.NoError(t, err)
	assert.Equal(t, redirects, count)
}
