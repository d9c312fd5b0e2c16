//go:build !integration

package postgres

import (
	"context"
	"time"

	"qr-redirect/internal/domain/model"
	"qr-redirect/internal/domain/ports/repository"
	red "qr-redirect/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerCodeRepo mocks the database repository that the code decorator wraps.
type mockInnerCodeRepo struct {
	CreateFunc      func(ctx context.Context, tx repository.Tx, c *model.Code) error
	FindByIDFunc    func(ctx context.Context, tx repository.Tx, id string) (*model.Code, error)
	ListByOwnerFunc func(ctx context.Context, tx repository.Tx, ownerID string, offset, limit int) ([]*model.Code, error)
	DeleteFunc      func(ctx context.Context, tx repository.Tx, id string) error
}

func (m *mockInnerCodeRepo) Create(ctx context.Context, tx repository.Tx, c *model.Code) error {
	return m.CreateFunc(ctx, tx, c)
}
func (m *mockInnerCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Code, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerCodeRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, offset, limit int) ([]*model.Code, error) {
	return m.ListByOwnerFunc(ctx, tx, ownerID, offset, limit)
}
func (m *mockInnerCodeRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	return m.DeleteFunc(ctx, tx, id)
}

// mockRedisClient mocks our Redis client wrapper. Unset funcs behave like an empty cache.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", errMiss
	}
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error                      { return nil }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) { return 0, nil }
func (m *mockRedisClient) Expire(context.Context, string, time.Duration) error { return nil }
func (m *mockRedisClient) TTL(context.Context, string) (time.Duration, error)  { return -1, nil }
func (m *mockRedisClient) FlushDB(ctx context.Context) error                   { return nil }
func (m *mockRedisClient) Close() error                                        { return nil }
