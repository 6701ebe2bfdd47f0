// api/cache/shortlinks.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"linkboard/api/models"

	"github.com/go-redis/redis/v8"
)

const shortLinkTTL = 5 * time.Minute

// ShortLinks caches short-link lookups on the redirect hot path. A miss or
// any Redis fault simply falls through to the database; the counter
// increment always goes to the store regardless.
type ShortLinks struct {
	rdb *redis.Client
}

func NewShortLinks(rdb *redis.Client) *ShortLinks {
	return &ShortLinks{rdb: rdb}
}

func key(shortCode string) string {
	return "shortlink:" + shortCode
}

func (c *ShortLinks) Get(ctx context.Context, shortCode string) (*models.ShortLink, bool, error) {
	val, err := c.rdb.Get(ctx, key(shortCode)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed for %q: %w", shortCode, err)
	}

	var link models.ShortLink
	if err := json.Unmarshal([]byte(val), &link); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached short link %q: %w", shortCode, err)
	}
	return &link, true, nil
}

func (c *ShortLinks) Set(ctx context.Context, link *models.ShortLink) error {
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to encode short link %q: %w", link.ShortCode, err)
	}
	if err := c.rdb.Set(ctx, key(link.ShortCode), data, shortLinkTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed for %q: %w", link.ShortCode, err)
	}
	return nil
}
