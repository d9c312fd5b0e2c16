package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"qr-redirect/internal/domain/model"
	"qr-redirect/internal/domain/ports/repository"
	"qr-redirect/internal/infra/metrics"
	red "qr-redirect/internal/infra/redis"

	"github.com/rs/zerolog"
)

var _ repository.CodeRepository = (*codeRepoCacheDecorator)(nil)

// codeRepoCacheDecorator is a read-through cache for point lookups.
// Redis failures degrade to the inner repository and are never returned.
type codeRepoCacheDecorator struct {
	inner repository.CodeRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewCodeRepoCacheDecorator(inner repository.CodeRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.CodeRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	l := logger.With().Str("component", "CodeCache").Logger()
	return &codeRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: &l}
}

func codeKey(id string) string { return fmt.Sprintf("code:id:%s", id) }

func (d *codeRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Code, error) {
	// inside a transaction the cache could serve a row the tx has already removed
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}
	key := codeKey(id)
	val, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		var c model.Code
		if json.Unmarshal([]byte(val), &c) == nil {
			metrics.IncCacheRequest("code", metrics.CacheHit)
			return &c, nil
		}
		d.log.Warn().Str("key", key).Msg("dropping undecodable cache entry")
		metrics.IncCacheRequest("code", metrics.CacheMiss)
	case red.IsMiss(err):
		metrics.IncCacheRequest("code", metrics.CacheMiss)
	default:
		d.log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		metrics.IncCacheRequest("code", metrics.CacheError)
	}

	c, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, mErr := json.Marshal(c); mErr == nil {
		if sErr := d.cache.Set(ctx, key, b, d.ttl); sErr != nil {
			d.log.Warn().Err(sErr).Str("key", key).Msg("cache set failed")
		}
	}
	return c, nil
}

func (d *codeRepoCacheDecorator) Create(ctx context.Context, tx repository.Tx, c *model.Code) error {
	return d.inner.Create(ctx, tx, c)
}

func (d *codeRepoCacheDecorator) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, offset, limit int) ([]*model.Code, error) {
	return d.inner.ListByOwner(ctx, tx, ownerID, offset, limit)
}

// Delete invalidates the cached entry once the delete is visible to other readers:
// right away without a transaction, after commit inside one. Invalidating earlier
// lets a concurrent reader cache the still-committed row again.
func (d *codeRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id string) error {
	if err := d.inner.Delete(ctx, tx, id); err != nil {
		return err
	}
	invalidate := func(ctx context.Context) {
		if err := d.cache.Del(ctx, codeKey(id)); err != nil {
			d.log.Warn().Err(err).Str("code_id", id).Msg("cache invalidate failed")
		}
	}
	if tx != nil && repository.AfterCommit(ctx, invalidate) {
		return nil
	}
	invalidate(ctx)
	return nil
}
