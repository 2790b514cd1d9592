package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"garage-assistant/internal/common/logger"
	"garage-assistant/internal/common/metrics"
	"garage-assistant/internal/models"
)

const cacheKeyPrefix = "classify:"

// ClassificationCache memoizes classification results in Redis keyed by a
// digest of the exact message text. A cache problem is never a pipeline
// problem: lookup and store failures degrade to a miss.
type ClassificationCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewClassificationCache(client *redis.Client, ttl time.Duration, log logger.Logger) *ClassificationCache {
	return &ClassificationCache{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "classification_cache"}),
	}
}

func cacheKey(message string) string {
	sum := sha256.Sum256([]byte(message))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *ClassificationCache) Get(ctx context.Context, message string) (*models.ClassifiedIntent, bool) {
	payload, err := c.client.Get(ctx, cacheKey(message)).Result()
	if err == redis.Nil {
		metrics.CacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.CacheHits.WithLabelValues("error").Inc()
		c.logger.Warn("cache lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, false
	}

	var classified models.ClassifiedIntent
	if err := json.Unmarshal([]byte(payload), &classified); err != nil {
		metrics.CacheHits.WithLabelValues("error").Inc()
		c.logger.Warn("discarding undecodable cache entry", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, false
	}
	if _, ok := models.ParseIntent(string(classified.Intent)); !ok {
		metrics.CacheHits.WithLabelValues("error").Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues("hit").Inc()
	return &classified, true
}

func (c *ClassificationCache) Set(ctx context.Context, message string, classified *models.ClassifiedIntent) {
	payload, err := json.Marshal(classified)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(message), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("cache store failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
