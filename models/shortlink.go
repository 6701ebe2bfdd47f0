package models

import "time"

// ShortLink maps a short code to a destination URL with a running click
// counter. The analytics core only reads it during redirects; the CRUD
// surface lives outside this service.
type ShortLink struct {
	ID          string    `json:"id"`
	ShortCode   string    `json:"shortCode"`
	OriginalURL string    `json:"originalUrl"`
	Platform    string    `json:"platform"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
	ClickCount  int64     `json:"clickCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
