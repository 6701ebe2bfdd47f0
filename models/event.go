// api/models/event.go
package models

import "time"

// EventKind names one of the two event tables.
type EventKind string

const (
	EventVisit EventKind = "visit"
	EventClick EventKind = "click"
)

// Visit represents one page load of the public profile.
type Visit struct {
	ID        string    `json:"id"`
	Referrer  string    `json:"referrer,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Click represents one tracked outbound interaction, either a direct
// button click or a short-link redirect.
type Click struct {
	ID        string    `json:"id"`
	Platform  string    `json:"platform"`
	URL       string    `json:"url"`
	Referrer  string    `json:"referrer,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type TrackVisitRequest struct {
	Referrer  string `json:"referrer"`
	UserAgent string `json:"userAgent"`
}

type TrackClickRequest struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Referrer string `json:"referrer"`
}

// ValidationError reports a missing or malformed ingestion field. Handlers
// map it to a 400 response; the event is not stored.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// Validate never fails: both fields of a visit are optional.
func (r *TrackVisitRequest) Validate() error {
	return nil
}

func (r *TrackClickRequest) Validate() error {
	if r.Platform == "" {
		return &ValidationError{Field: "platform", Reason: "must be a non-empty string"}
	}
	if r.URL == "" {
		return &ValidationError{Field: "url", Reason: "must be a non-empty string"}
	}
	return nil
}
