package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"linkboard/api/models"
	"linkboard/api/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockLinkSource struct {
	mock.Mock
}

func (m *mockLinkSource) GetShortLink(ctx context.Context, shortCode string) (*models.ShortLink, error) {
	args := m.Called(shortCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ShortLink), args.Error(1)
}

func (m *mockLinkSource) RecordRedirect(ctx context.Context, link *models.ShortLink, referrer string) (*models.Click, error) {
	args := m.Called(link.ShortCode, referrer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Click), args.Error(1)
}

type mockLinkCache struct {
	mock.Mock
}

func (m *mockLinkCache) Get(ctx context.Context, shortCode string) (*models.ShortLink, bool, error) {
	args := m.Called(shortCode)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.ShortLink), args.Bool(1), args.Error(2)
}

func (m *mockLinkCache) Set(ctx context.Context, link *models.ShortLink) error {
	args := m.Called(link.ShortCode)
	return args.Error(0)
}

func setupRedirectRouter(links ShortLinkSource, cache ShortLinkCache) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewRedirectHandlers(links, cache)
	r.GET("/s/:code", h.Redirect)
	return r
}

func activeLink() *models.ShortLink {
	return &models.ShortLink{
		ID:          "sl1",
		ShortCode:   "ig",
		OriginalURL: "https://instagram.com/x",
		Platform:    "Instagram",
		Title:       "Instagram profile",
		IsActive:    true,
	}
}

func TestRedirectFollowsActiveLink(t *testing.T) {
	links := new(mockLinkSource)
	links.On("GetShortLink", "ig").Return(activeLink(), nil)
	links.On("RecordRedirect", "ig", "").Return(&models.Click{ID: "c1"}, nil)

	r := setupRedirectRouter(links, nil)
	req := httptest.NewRequest(http.MethodGet, "/s/ig", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "https://instagram.com/x", w.Header().Get("Location"))
	links.AssertExpectations(t)
}

func TestRedirectUnknownCodeHasNoSideEffects(t *testing.T) {
	links := new(mockLinkSource)
	links.On("GetShortLink", "nope").Return(nil, store.ErrShortLinkNotFound)

	r := setupRedirectRouter(links, nil)
	req := httptest.NewRequest(http.MethodGet, "/s/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	links.AssertNotCalled(t, "RecordRedirect", mock.Anything, mock.Anything)
}

func TestRedirectInactiveLinkHasNoSideEffects(t *testing.T) {
	inactive := activeLink()
	inactive.IsActive = false

	links := new(mockLinkSource)
	links.On("GetShortLink", "ig").Return(inactive, nil)

	r := setupRedirectRouter(links, nil)
	req := httptest.NewRequest(http.MethodGet, "/s/ig", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	links.AssertNotCalled(t, "RecordRedirect", mock.Anything, mock.Anything)
}

func TestRedirectServesFromCache(t *testing.T) {
	links := new(mockLinkSource)
	links.On("RecordRedirect", "ig", "").Return(&models.Click{ID: "c1"}, nil)

	linkCache := new(mockLinkCache)
	linkCache.On("Get", "ig").Return(activeLink(), true, nil)

	r := setupRedirectRouter(links, linkCache)
	req := httptest.NewRequest(http.MethodGet, "/s/ig", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	// The registry lookup is skipped on a cache hit; the counter
	// increment still goes to the store.
	links.AssertNotCalled(t, "GetShortLink", mock.Anything)
	links.AssertExpectations(t)
}

func TestRedirectCacheMissFallsThroughAndPopulates(t *testing.T) {
	links := new(mockLinkSource)
	links.On("GetShortLink", "ig").Return(activeLink(), nil)
	links.On("RecordRedirect", "ig", "").Return(&models.Click{ID: "c1"}, nil)

	linkCache := new(mockLinkCache)
	linkCache.On("Get", "ig").Return(nil, false, nil)
	linkCache.On("Set", "ig").Return(nil)

	r := setupRedirectRouter(links, linkCache)
	req := httptest.NewRequest(http.MethodGet, "/s/ig", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	linkCache.AssertExpectations(t)
	links.AssertExpectations(t)
}
