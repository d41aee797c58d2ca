package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/ARF-DEV/caffeine_reply_bot/internal/cache"
	"github.com/ARF-DEV/caffeine_reply_bot/model"
)

var _ Store = (*CacheStore)(nil)

// CacheStore keeps each guild's patterns as one JSON value under
// "<prefix>:<guildID>" in a cache.Cache. With a ttl of 0 the values never
// expire.
type CacheStore struct {
	c      cache.Cache
	prefix string
	ttl    time.Duration
}

func NewCacheStore(c cache.Cache, prefix string, ttl time.Duration) *CacheStore {
	if prefix == "" {
		prefix = "reply_patterns"
	}
	return &CacheStore{c: c, prefix: prefix, ttl: ttl}
}

func (cs *CacheStore) key(guildID string) string {
	return fmt.Sprintf("%s:%s", cs.prefix, guildID)
}

func (cs *CacheStore) Load(ctx context.Context, guildID string) ([]model.ReplyPatternRecord, error) {
	var records []model.ReplyPatternRecord
	err := cs.c.GetAndParse(ctx, cs.key(guildID), &records)
	if errors.Is(err, cache.ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (cs *CacheStore) Save(ctx context.Context, guildID string, patterns []model.ReplyPatternRecord) error {
	if len(patterns) == 0 {
		return cs.c.Del(ctx, cs.key(guildID))
	}
	return cs.c.SetExpFunc(ctx, cs.key(guildID), patterns, cs.expiry)
}

// expiry gives every saved value the configured ttl.
func (cs *CacheStore) expiry(context.Context, interface{}) time.Duration {
	return cs.ttl
}

func (cs *CacheStore) Close() error {
	return cs.c.Close()
}
