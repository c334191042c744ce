package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/bookbuddy/internal/logger"
	"github.com/patric-chuzhbe/bookbuddy/internal/models"
)

const cacheKeyPrefix = "catalog:search:"

// Cached keeps search results of another Searcher in redis. Cache failures
// are logged and never fail a search.
type Cached struct {
	next Searcher
	rdb  redis.UniversalClient
	ttl  time.Duration
}

func NewCached(next Searcher, rdb redis.UniversalClient, ttl time.Duration) *Cached {
	return &Cached{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
	}
}

func cacheKey(query string) string {
	return cacheKeyPrefix + query
}

func (c *Cached) Search(ctx context.Context, query string) ([]models.CatalogBook, error) {
	query, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)

	cached, err := c.rdb.Get(ctx, cacheKey(query)).Bytes()
	switch {
	case err == nil:
		var books []models.CatalogBook
		if err := json.Unmarshal(cached, &books); err == nil {
			return books, nil
		}
		log.Debugln("Dropping undecodable catalog cache entry", "key", cacheKey(query))
	case !errors.Is(err, redis.Nil):
		log.Debugln("Error calling the `c.rdb.Get()`: ", zap.Error(err))
	}

	books, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(books)
	if err == nil {
		err = c.rdb.Set(ctx, cacheKey(query), encoded, c.ttl).Err()
	}
	if err != nil {
		log.Debugln("Error caching catalog results: ", zap.Error(err))
	}

	return books, nil
}
