package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AnalyticsCache 项目分析结果缓存，失败只记录日志不影响请求
type AnalyticsCache interface {
	Get(ctx context.Context, projectID uuid.UUID, filter AnalyticsFilter) (*ProjectAnalytics, bool)
	Set(ctx context.Context, projectID uuid.UUID, filter AnalyticsFilter, value *ProjectAnalytics)
	Invalidate(ctx context.Context, projectID uuid.UUID)
}

type nopCache struct{}

func (nopCache) Get(context.Context, uuid.UUID, AnalyticsFilter) (*ProjectAnalytics, bool) {
	return nil, false
}
func (nopCache) Set(context.Context, uuid.UUID, AnalyticsFilter, *ProjectAnalytics) {}
func (nopCache) Invalidate(context.Context, uuid.UUID)                              {}

// RedisAnalyticsCache 每个项目一个 hash，字段为筛选条件；资金变动后整体删除
type RedisAnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAnalyticsCache 创建 Redis 缓存
func NewRedisAnalyticsCache(client *redis.Client, ttl time.Duration) *RedisAnalyticsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisAnalyticsCache{client: client, ttl: ttl}
}

func analyticsKey(projectID uuid.UUID) string {
	return "walet:analytics:" + projectID.String()
}

func analyticsField(f AnalyticsFilter) string {
	return fmt.Sprintf("%d-%d", f.Year, f.Month)
}

func (c *RedisAnalyticsCache) Get(ctx context.Context, projectID uuid.UUID, filter AnalyticsFilter) (*ProjectAnalytics, bool) {
	data, err := c.client.HGet(ctx, analyticsKey(projectID), analyticsField(filter)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("读取分析缓存失败 project=%s: %v", projectID, err)
		}
		return nil, false
	}
	var v ProjectAnalytics
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false
	}
	return &v, true
}

func (c *RedisAnalyticsCache) Set(ctx context.Context, projectID uuid.UUID, filter AnalyticsFilter, value *ProjectAnalytics) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	key := analyticsKey(projectID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, analyticsField(filter), data)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("写入分析缓存失败 project=%s: %v", projectID, err)
	}
}

func (c *RedisAnalyticsCache) Invalidate(ctx context.Context, projectID uuid.UUID) {
	if err := c.client.Del(ctx, analyticsKey(projectID)).Err(); err != nil {
		log.Printf("清理分析缓存失败 project=%s: %v", projectID, err)
	}
}
