package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/rollcall-api/internal/dto"
	"github.com/noah-isme/rollcall-api/internal/observability"
)

// AttendanceCache stores computed class summaries in redis. A nil cache or a
// cache without a client is a no-op.
type AttendanceCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewAttendanceCache constructs the summary cache.
func NewAttendanceCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *AttendanceCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AttendanceCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "attendance_cache").Logger(),
	}
}

func summaryKey(classID uint) string {
	return fmt.Sprintf("attendance:summary:%d", classID)
}

// Get returns the cached summary for the class, if any.
func (c *AttendanceCache) Get(ctx context.Context, classID uint) (dto.AttendanceSummaryResponse, bool) {
	if c == nil || c.client == nil {
		return dto.AttendanceSummaryResponse{}, false
	}

	cached, err := c.client.Get(ctx, summaryKey(classID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Uint("class_id", classID).Msg("failed to read attendance summary cache")
		}
		observability.AttendanceCache().WithLabelValues("miss").Inc()
		return dto.AttendanceSummaryResponse{}, false
	}

	var summary dto.AttendanceSummaryResponse
	if err := json.Unmarshal([]byte(cached), &summary); err != nil {
		c.logger.Warn().Err(err).Uint("class_id", classID).Msg("discarding malformed attendance summary cache entry")
		observability.AttendanceCache().WithLabelValues("miss").Inc()
		return dto.AttendanceSummaryResponse{}, false
	}

	observability.AttendanceCache().WithLabelValues("hit").Inc()
	summary.CacheHit = true
	return summary, true
}

// Set stores the summary for the class.
func (c *AttendanceCache) Set(ctx context.Context, classID uint, summary dto.AttendanceSummaryResponse) {
	if c == nil || c.client == nil {
		return
	}

	summary.CacheHit = false
	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, summaryKey(classID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Uint("class_id", classID).Msg("failed to store attendance summary cache")
	}
}

// Invalidate drops the cached summary for the class.
func (c *AttendanceCache) Invalidate(ctx context.Context, classID uint) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, summaryKey(classID)).Err(); err != nil {
		c.logger.Warn().Err(err).Uint("class_id", classID).Msg("failed to invalidate attendance summary cache")
	}
}
