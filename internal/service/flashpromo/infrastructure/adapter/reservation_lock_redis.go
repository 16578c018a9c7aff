// internal/service/flashpromo/infrastructure/adapter/reservation_lock_redis.go
package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"flashmart/internal/pkg/logger"
	"flashmart/internal/pkg/redis"
)

const releaseLockScriptName = "release_reservation_lock"

// RedisProductLocker 是 port.ProductLocker 的 Redis 实现。
// SET NX PX 抢锁，值是本次持有者的随机令牌；释放走 Lua 脚本先比对令牌再删除，
// 保证不会误删他人在 TTL 过期后重新持有的锁。
type RedisProductLocker struct {
	redisClient *redis.Client
}

// NewRedisProductLocker 创建 Redis 商品锁适配器，初始化时加载释放脚本。
func NewRedisProductLocker(redisClient *redis.Client) (*RedisProductLocker, error) {
	if err := redisClient.LoadScriptFromContent(releaseLockScriptName, releaseLockScript); err != nil {
		return nil, fmt.Errorf("failed to load lock release script: %w", err)
	}
	return &RedisProductLocker{redisClient: redisClient}, nil
}

// Acquire 尝试获取商品锁。锁被他人持有时返回 acquired=false，不阻塞等待。
func (l *RedisProductLocker) Acquire(ctx context.Context, productID string, ttl time.Duration) (func(), bool, error) {
	key := fmt.Sprintf("reservation:lock:{%s}", productID)
	token := uuid.NewString()

	ok, err := l.redisClient.GetClient().SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// 释放用后台上下文：请求被取消时也要归还锁。
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := l.redisClient.RunScript(rctx, releaseLockScriptName, []string{key}, token); err != nil {
			logger.Logger().Printf("Failed to release lock %s: %v", key, err)
		}
	}
	return release, true, nil
}

var releaseLockScript = `
-- KEYS[1]: 锁的 Key, 例如: reservation:lock:{product_123}
-- ARGV[1]: 持有者令牌

if redis.call('get', KEYS[1]) == ARGV[1] then
    return redis.call('del', KEYS[1])
else
    return 0
end
`
