package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pawsense/triage/internal/model"
)

// VerdictCacheConfig configures the verification-verdict cache.
type VerdictCacheConfig struct {
	// Enabled turns the cache on.
	Enabled bool
	// TTL is the cache entry lifetime.
	TTL time.Duration
	// KeyPrefix namespaces the cache keys.
	KeyPrefix string
}

// VerdictCache caches verification verdicts keyed by a SHA-256 hash of the
// verification prompt. Purely a performance optimization: a miss reproduces
// the same pipeline behavior as a hit, so a nil or unreachable redis client
// just means every lookup misses.
type VerdictCache struct {
	redis  *goredis.Client
	config *VerdictCacheConfig
}

// NewVerdictCache creates the cache. A nil config disables it.
func NewVerdictCache(redis *goredis.Client, config *VerdictCacheConfig) *VerdictCache {
	if config == nil {
		config = &VerdictCacheConfig{
			Enabled:   false,
			TTL:       1 * time.Hour,
			KeyPrefix: "triage:verdict:",
		}
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "triage:verdict:"
	}
	return &VerdictCache{redis: redis, config: config}
}

func (c *VerdictCache) key(prompt string) string {
	hash := sha256.Sum256([]byte(prompt))
	return c.config.KeyPrefix + hex.EncodeToString(hash[:])
}

// Get returns the cached verdict for a prompt, or nil on a miss. Errors are
// logged and treated as misses.
func (c *VerdictCache) Get(ctx context.Context, prompt string) *model.VerificationVerdict {
	if !c.config.Enabled || c.redis == nil {
		return nil
	}

	cacheKey := c.key(prompt)
	data, err := c.redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err != goredis.Nil {
			logger.Warnw("verdict cache get failed", "error", err.Error(), "key", cacheKey)
		}
		return nil
	}

	var verdict model.VerificationVerdict
	if err := json.Unmarshal(data, &verdict); err != nil {
		logger.Warnw("dropping corrupt cached verdict", "error", err.Error(), "key", cacheKey)
		_ = c.redis.Del(ctx, cacheKey).Err()
		return nil
	}

	logger.Debugw("verdict cache hit", "key", cacheKey)
	return &verdict
}

// Set stores a verdict. Degraded default verdicts are never cached; a later
// request should get a real verification attempt.
func (c *VerdictCache) Set(ctx context.Context, prompt string, verdict *model.VerificationVerdict) {
	if !c.config.Enabled || c.redis == nil || verdict == nil || verdict.Degraded {
		return
	}

	data, err := json.Marshal(verdict)
	if err != nil {
		logger.Warnw("failed to marshal verdict for caching", "error", err.Error())
		return
	}

	cacheKey := c.key(prompt)
	if err := c.redis.Set(ctx, cacheKey, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("verdict cache set failed", "error", err.Error(), "key", cacheKey)
		return
	}
	logger.Debugw("cached verification verdict", "key", cacheKey, "ttl", c.config.TTL)
}

// Stats reports cache state for the stats endpoint.
func (c *VerdictCache) Stats(ctx context.Context) map[string]interface{} {
	if !c.config.Enabled || c.redis == nil {
		return map[string]interface{}{"enabled": false}
	}

	keyCount := 0
	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keyCount++
	}
	if err := iter.Err(); err != nil {
		logger.Warnw("verdict cache scan failed", "error", err.Error())
	}

	return map[string]interface{}{
		"enabled":    true,
		"key_count":  keyCount,
		"ttl":        c.config.TTL.String(),
		"key_prefix": c.config.KeyPrefix,
	}
}
