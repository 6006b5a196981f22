package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/grantscope/backend/internal/cache"
	"github.com/grantscope/backend/internal/grants"
)

// Fetcher is the acquisition surface the search service consumes
type Fetcher interface {
	Fetch(ctx context.Context, query, agency string) (*grants.Result, error)
}

// UsageRecorder tracks per-user consumption of costly operations
type UsageRecorder interface {
	IncrementUsage(ctx context.Context, userID string) error
}

// GrantsService orchestrates grant search: acquisition, short-lived result
// caching, and usage accounting.
type GrantsService struct {
	fetcher  Fetcher
	usage    UsageRecorder
	cache    *cache.Redis
	cacheTTL time.Duration
}

// NewGrantsService creates a new grants search service
func NewGrantsService(fetcher Fetcher, usage UsageRecorder, redisCache *cache.Redis, cacheTTL time.Duration) *GrantsService {
	return &GrantsService{
		fetcher:  fetcher,
		usage:    usage,
		cache:    redisCache,
		cacheTTL: cacheTTL,
	}
}

// Search fetches grants for (query, agency). Live results are cached briefly;
// fallback results are never cached so a recovered upstream is observed on
// the next request.
func (s *GrantsService) Search(ctx context.Context, query, agency string) (*grants.Result, error) {
	cacheKey := cache.GenerateCacheKey("grants:search", query, agency)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			var result grants.Result
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				return &result, nil
			}
		}
	}

	result, err := s.fetcher.Fetch(ctx, query, agency)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && !result.FallbackOccurred {
		if data, err := json.Marshal(result); err == nil {
			_ = s.cache.Set(ctx, cacheKey, string(data), s.cacheTTL)
		}
	}

	return result, nil
}

// RecordSearch bumps the usage counter for an authenticated caller. Failures
// are logged, not surfaced; accounting must not break search.
func (s *GrantsService) RecordSearch(ctx context.Context, userID string) {
	if userID == "" || s.usage == nil {
		return
	}
	if err := s.usage.IncrementUsage(ctx, userID); err != nil {
		log.Printf("[grants] failed to record usage for %s: %v", userID, err)
	}
}
