package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-resource-provider/core"
)

const invocationCacheKeyPrefix = "go-resource-provider::invocation::v1"

// CachedInvocationReader caches latest-invocation lookups per bearer token.
// Records write through to the base store and invalidate the token's entry,
// so status polls between reinvocations stay cheap without going stale.
type CachedInvocationReader struct {
	base  core.InvocationStore
	cache repositorycache.CacheService
}

func NewCachedInvocationReader(
	base core.InvocationStore,
	cacheService repositorycache.CacheService,
) (*CachedInvocationReader, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base invocation store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: invocation cache service is required")
	}
	return &CachedInvocationReader{base: base, cache: cacheService}, nil
}

// InvocationCacheKey returns the deterministic cache key for one bearer
// token, with the token URL-path escaped.
func InvocationCacheKey(bearerToken string) (string, error) {
	bearerToken = strings.TrimSpace(bearerToken)
	if bearerToken == "" {
		return "", fmt.Errorf("sqlstore: bearer token is required")
	}
	return invocationCacheKeyPrefix + "::" + url.PathEscape(bearerToken), nil
}

func (r *CachedInvocationReader) Record(ctx context.Context, record core.InvocationRecord) error {
	if r == nil || r.base == nil || r.cache == nil {
		return fmt.Errorf("sqlstore: cached invocation reader is not configured")
	}
	if err := r.base.Record(ctx, record); err != nil {
		return err
	}
	cacheKey, err := InvocationCacheKey(record.BearerToken)
	if err != nil {
		return nil
	}
	if err := r.cache.Delete(ctx, cacheKey); err != nil {
		return fmt.Errorf("sqlstore: invalidate invocation cache: %w", err)
	}
	return nil
}

func (r *CachedInvocationReader) LatestByBearerToken(ctx context.Context, bearerToken string) (core.InvocationRecord, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return core.InvocationRecord{}, fmt.Errorf("sqlstore: cached invocation reader is not configured")
	}
	cacheKey, err := InvocationCacheKey(bearerToken)
	if err != nil {
		return core.InvocationRecord{}, err
	}
	return repositorycache.GetOrFetch(ctx, r.cache, cacheKey, func(ctx context.Context) (core.InvocationRecord, error) {
		return r.base.LatestByBearerToken(ctx, bearerToken)
	})
}

var _ core.InvocationStore = (*CachedInvocationReader)(nil)
