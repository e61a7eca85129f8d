// Package cache holds short-lived values such as resolved dashboard sessions.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/threatlens/dashboard-api/internal/config"
	"go.uber.org/zap"
)

// ErrMiss is returned when a key is absent or expired
var ErrMiss = errors.New("cache miss")

// Cache stores opaque values with a per-entry TTL
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New builds the cache selected by cache.driver
func New(cfg *config.CacheConfig, logger *zap.Logger) (Cache, error) {
	switch cfg.Driver {
	case "memory", "":
		logger.Info("Using in-memory session cache")
		return NewMemory(), nil
	case "redis":
		return NewRedis(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Driver)
	}
}

// HashKey derives a cache key from a secret such as a session cookie so the
// secret itself is never stored.
func HashKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
