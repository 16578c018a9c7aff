// internal/pkg/session/manager.go
package session

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	userGatewayKeyPrefix = "session:user_gateway:"
	sessionTTL           = 24 * time.Hour
)

// Manager 维护"用户 -> 推送网关节点"的会话映射。
// 多网关部署时，消息路由方先查映射再把消息投到正确的节点。
type Manager struct {
	rdb *goredis.Client
}

// NewManager 创建会话管理器。
func NewManager(redisAddr string) *Manager {
	return &Manager{
		rdb: goredis.NewClient(&goredis.Options{Addr: redisAddr}),
	}
}

// SetUserGateway 记录用户当前连接的网关节点。
func (m *Manager) SetUserGateway(ctx context.Context, userID, nodeID string) error {
	return m.rdb.Set(ctx, userGatewayKeyPrefix+userID, nodeID, sessionTTL).Err()
}

// GetUserGateway 查询用户当前连接的网关节点。用户不在线返回空串。
func (m *Manager) GetUserGateway(ctx context.Context, userID string) (string, error) {
	nodeID, err := m.rdb.Get(ctx, userGatewayKeyPrefix+userID).Result()
	if err == goredis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session for user %s: %w", userID, err)
	}
	return nodeID, nil
}

// RemoveUserGateway 删除用户的会话映射（连接断开时调用）。
func (m *Manager) RemoveUserGateway(ctx context.Context, userID string) error {
	return m.rdb.Del(ctx, userGatewayKeyPrefix+userID).Err()
}

// Close 关闭底层连接。
func (m *Manager) Close() error {
	return m.rdb.Close()
}
