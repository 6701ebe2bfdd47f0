package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"linkboard/api/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordVisit(ctx context.Context, referrer, userAgent string) (*models.Visit, error) {
	args := m.Called(referrer, userAgent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Visit), args.Error(1)
}

func (m *mockRecorder) RecordClick(ctx context.Context, platform, url, referrer string) (*models.Click, error) {
	args := m.Called(platform, url, referrer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Click), args.Error(1)
}

func setupTrackRouter(recorder EventRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewTrackHandlers(recorder)
	r.POST("/api/track/visit", h.TrackVisit)
	r.POST("/api/track/click", h.TrackClick)
	return r
}

func TestTrackVisitFromBody(t *testing.T) {
	recorder := new(mockRecorder)
	recorder.On("RecordVisit", "example.com", "test-agent").
		Return(&models.Visit{ID: "v1", Referrer: "example.com", UserAgent: "test-agent", Timestamp: time.Now()}, nil)

	r := setupTrackRouter(recorder)
	req := httptest.NewRequest(http.MethodPost, "/api/track/visit",
		strings.NewReader(`{"referrer":"example.com","userAgent":"test-agent"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	recorder.AssertExpectations(t)
}

func TestTrackVisitFallsBackToHeaders(t *testing.T) {
	recorder := new(mockRecorder)
	recorder.On("RecordVisit", "https://referrer.example", "header-agent").
		Return(&models.Visit{ID: "v1"}, nil)

	r := setupTrackRouter(recorder)
	req := httptest.NewRequest(http.MethodPost, "/api/track/visit", nil)
	req.Header.Set("Referer", "https://referrer.example")
	req.Header.Set("User-Agent", "header-agent")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	recorder.AssertExpectations(t)
}

func TestTrackClickRequiresPlatformAndURL(t *testing.T) {
	recorder := new(mockRecorder)
	r := setupTrackRouter(recorder)

	for _, body := range []string{
		`{"url":"https://instagram.com/x"}`,
		`{"platform":"Instagram"}`,
		`{}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/track/click", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s must be rejected", body)
	}
	recorder.AssertNotCalled(t, "RecordClick", mock.Anything, mock.Anything, mock.Anything)
}

func TestTrackClickStoresEvent(t *testing.T) {
	recorder := new(mockRecorder)
	recorder.On("RecordClick", "Instagram", "https://instagram.com/x", "").
		Return(&models.Click{ID: "c1", Platform: "Instagram", URL: "https://instagram.com/x"}, nil)

	r := setupTrackRouter(recorder)
	req := httptest.NewRequest(http.MethodPost, "/api/track/click",
		strings.NewReader(`{"platform":"Instagram","url":"https://instagram.com/x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	recorder.AssertExpectations(t)
}

func TestTrackClickStorageFailureIsGeneric(t *testing.T) {
	recorder := new(mockRecorder)
	recorder.On("RecordClick", "Instagram", "https://instagram.com/x", "").
		Return(nil, assert.AnError)

	r := setupTrackRouter(recorder)
	req := httptest.NewRequest(http.MethodPost, "/api/track/click",
		strings.NewReader(`{"platform":"Instagram","url":"https://instagram.com/x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// Internal detail must not leak to the caller.
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}
