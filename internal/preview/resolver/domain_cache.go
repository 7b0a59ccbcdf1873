package resolver

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const domainKeyPrefix = "og:domain:"

// DomainCache memoizes custom-domain to card-id mappings in Redis so repeat
// crawler hits on a custom domain skip the mapping query. Only positive
// results are stored.
type DomainCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDomainCache(client *redis.Client, ttl time.Duration) *DomainCache {
	return &DomainCache{client: client, ttl: ttl}
}

func domainKey(domain string) string {
	return domainKeyPrefix + strings.ToLower(domain)
}

// Get returns the cached card id. ok is false on a miss.
func (c *DomainCache) Get(ctx context.Context, domain string) (string, bool, error) {
	id, err := c.client.Get(ctx, domainKey(domain)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (c *DomainCache) Set(ctx context.Context, domain, cardID string) error {
	return c.client.Set(ctx, domainKey(domain), cardID, c.ttl).Err()
}

// Forget drops a mapping whose card is no longer resolvable.
func (c *DomainCache) Forget(ctx context.Context, domain string) error {
	return c.client.Del(ctx, domainKey(domain)).Err()
}
