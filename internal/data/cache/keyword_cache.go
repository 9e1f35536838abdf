package cache

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/storyfeed-backend/internal/data/repos"
	types "github.com/yungbote/storyfeed-backend/internal/domain"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

const (
	DefaultKeywordTTL = 10 * time.Minute
	keywordKeyPrefix  = "storyfeed:keyword:"
)

// Stats receives cache hit/miss counts. *observability.Metrics implements it.
type Stats interface {
	IncKeywordCache(result string, n int)
}

// KeywordCache is a read-through redis cache in front of a KeywordRepo.
// Redis failures are logged and served from the store.
type KeywordCache struct {
	next  repos.KeywordRepo
	rdb   *goredis.Client
	ttl   time.Duration
	log   *logger.Logger
	stats Stats
}

var _ repos.KeywordRepo = (*KeywordCache)(nil)

func NewKeywordCache(next repos.KeywordRepo, rdb *goredis.Client, ttl time.Duration, baseLog *logger.Logger, stats Stats) *KeywordCache {
	if ttl <= 0 {
		ttl = DefaultKeywordTTL
	}
	return &KeywordCache{
		next:  next,
		rdb:   rdb,
		ttl:   ttl,
		log:   baseLog.With("cache", "KeywordCache"),
		stats: stats,
	}
}

func keywordKey(id string) string { return keywordKeyPrefix + id }

func (c *KeywordCache) count(result string, n int) {
	if c.stats != nil && n > 0 {
		c.stats.IncKeywordCache(result, n)
	}
}

// GetByIDs serves cached keywords and loads the rest from the store. Reads
// inside a transaction bypass the cache.
func (c *KeywordCache) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Keyword, error) {
	if tx != nil || c.rdb == nil || len(ids) == 0 {
		return c.next.GetByIDs(ctx, tx, ids)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keywordKey(id)
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.Warn("keyword cache read failed", "error", err, "ids", len(ids))
		c.count("error", len(ids))
		return c.next.GetByIDs(ctx, nil, ids)
	}

	out := make([]*types.Keyword, 0, len(ids))
	var misses []string
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			misses = append(misses, ids[i])
			continue
		}
		var kw types.Keyword
		if err := json.Unmarshal([]byte(s), &kw); err != nil {
			c.log.Warn("keyword cache entry corrupt", "keyword_id", ids[i], "error", err)
			misses = append(misses, ids[i])
			continue
		}
		out = append(out, &kw)
	}
	c.count("hit", len(out))
	c.count("miss", len(misses))
	if len(misses) == 0 {
		return out, nil
	}

	loaded, err := c.next.GetByIDs(ctx, nil, misses)
	if err != nil {
		return nil, err
	}
	c.store(ctx, loaded)
	return append(out, loaded...), nil
}

func (c *KeywordCache) store(ctx context.Context, rows []*types.Keyword) {
	if len(rows) == 0 {
		return
	}
	pipe := c.rdb.Pipeline()
	for _, row := range rows {
		raw, err := json.Marshal(row)
		if err != nil {
			continue
		}
		pipe.Set(ctx, keywordKey(row.KeywordID), raw, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("keyword cache write failed", "error", err, "rows", len(rows))
	}
}

// Upsert writes through to the store and drops the affected cache entries.
func (c *KeywordCache) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.Keyword) error {
	if err := c.next.Upsert(ctx, tx, rows); err != nil {
		return err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.KeywordID)
	}
	return c.Invalidate(ctx, ids)
}

func (c *KeywordCache) Invalidate(ctx context.Context, ids []string) error {
	if c.rdb == nil || len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keywordKey(id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("keyword cache invalidation failed", "error", err, "ids", len(ids))
		return err
	}
	return nil
}
