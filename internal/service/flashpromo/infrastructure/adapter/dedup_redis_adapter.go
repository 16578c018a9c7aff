// internal/service/flashpromo/infrastructure/adapter/dedup_redis_adapter.go
package adapter

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"flashmart/internal/pkg/redis"
)

// RedisNotificationLedger 是 port.NotificationLedger 的 Redis 实现。
// 去重键写成当日过期的 Redis 键，跨进程生效，次日自动失效，无需清理任务。
type RedisNotificationLedger struct {
	redisClient *redis.Client
}

// NewRedisNotificationLedger 创建 Redis 去重账本适配器。
func NewRedisNotificationLedger(redisClient *redis.Client) *RedisNotificationLedger {
	return &RedisNotificationLedger{redisClient: redisClient}
}

// Seen 判断去重键是否已记录。
func (l *RedisNotificationLedger) Seen(ctx context.Context, key string) (bool, error) {
	_, err := l.redisClient.GetClient().Get(ctx, l.redisKey(key)).Result()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Mark 记录去重键，ttl 秒后自动失效。
func (l *RedisNotificationLedger) Mark(ctx context.Context, key string, ttlSeconds int) error {
	return l.redisClient.GetClient().
		Set(ctx, l.redisKey(key), "1", time.Duration(ttlSeconds)*time.Second).Err()
}

func (l *RedisNotificationLedger) redisKey(key string) string {
	return fmt.Sprintf("notification:%s", key)
}
