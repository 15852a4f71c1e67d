package dedup

import (
	"context"

	"github.com/kapu/lessonlens/internal/constants"
	"github.com/kapu/lessonlens/internal/service/cache"
	"go.uber.org/zap"
)

const keyPrefix = "lessonlens:inflight:"

// RedisStore is the admission gate backed by Redis SetNX, for deployments
// running more than one instance. Keys carry a TTL safety bound so a crashed
// process cannot wedge a request pair forever.
type RedisStore struct {
	cache  *cache.Service
	logger *zap.Logger
}

func NewRedisStore(cacheSvc *cache.Service, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		cache:  cacheSvc,
		logger: logger,
	}
}

func (s *RedisStore) Acquire(ctx context.Context, key string) (bool, error) {
	acquired, err := s.cache.SetNX(ctx, keyPrefix+key, 1, constants.CacheTTL.DedupKey)
	if err != nil {
		// Fail open: a broken gate should not block analyses.
		s.logger.Warn("Dedup acquire failed, admitting request", zap.Error(err))
		return true, nil
	}
	return acquired, nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.cache.Del(ctx, keyPrefix+key)
}
