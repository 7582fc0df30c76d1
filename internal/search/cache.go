package search

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"ofertaglobal/dealfinder/internal/deal"
	"ofertaglobal/dealfinder/logger"
	"ofertaglobal/dealfinder/pkg/errors"
	"ofertaglobal/dealfinder/services/cache"
)

const cacheKeyPrefix = "deals:"

// CachedSearcher serves repeated searches from a cache. Only non-empty successful
// results are stored.
type CachedSearcher struct {
	next  Searcher
	cache cache.CacheService
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedSearcher wraps next with a result cache
func NewCachedSearcher(next Searcher, cacheSvc cache.CacheService, ttl time.Duration) *CachedSearcher {
	return &CachedSearcher{
		next:  next,
		cache: cacheSvc,
		ttl:   ttl,
		log:   logger.ForCache(),
	}
}

// CacheKey derives the cache key of a search
func CacheKey(query, location string, mode deal.Mode) string {
	normalized := strings.ToLower(strings.TrimSpace(query)) + "|" + location + "|" + string(mode)
	sum := sha1.Sum([]byte(normalized))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (s *CachedSearcher) Search(ctx context.Context, query, location string, mode deal.Mode) Result {
	if strings.TrimSpace(query) == "" {
		return s.next.Search(ctx, query, location, mode)
	}

	key := CacheKey(query, location, mode)

	data, err := s.cache.Get(key)
	switch {
	case err == nil:
		var cached Result
		if err := json.Unmarshal(data, &cached); err == nil && len(cached.Results) > 0 {
			s.log.Debug().Str("key", key).Msg("Serving cached deals")
			if cached.Sources == nil {
				cached.Sources = []deal.GroundingSource{}
			}
			return cached
		}
		s.log.Warn().Str("key", key).Msg("Ignoring unreadable cache entry")
	case !stderrors.Is(err, cache.ErrMiss):
		s.log.Warn().Err(errors.NewCache("memcache", "get failed", err)).Msg("Cache lookup failed")
	}

	result := s.next.Search(ctx, query, location, mode)
	if result.Failed || len(result.Results) == 0 {
		return result
	}

	payload, err := json.Marshal(result)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to encode deals for cache")
		return result
	}
	if err := s.cache.Set(key, payload, s.ttl); err != nil {
		s.log.Warn().Err(errors.NewCache("memcache", "set failed", err)).Msg("Cache store failed")
	}

	return result
}
