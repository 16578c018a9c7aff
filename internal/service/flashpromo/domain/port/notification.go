// internal/service/flashpromo/domain/port/notification.go
package port

import (
	"context"

	"flashmart/internal/service/flashpromo/domain"
)

// NotificationChannel 是通知渠道的出站端口（邮件 / 推送 / 短信）。
// Send 返回该渠道是否投递成功；错误由调用方吸收为失败计数，永不向上传播。
type NotificationChannel interface {
	Name() string
	Send(ctx context.Context, user *domain.User, message string, promo *domain.Promo) (bool, error)
}

// NotificationLedger 记录"某用户在某天已收到某促销的通知"，用于同日去重。
// 生产实现必须落在共享存储（如 Redis 当日过期键）上，跨进程生效；
// 进程内存实现只作为开发与测试替身。
type NotificationLedger interface {
	// Seen 判断去重键是否已记录。
	Seen(ctx context.Context, key string) (bool, error)
	// Mark 记录去重键，ttl 到期后自动失效。
	Mark(ctx context.Context, key string, ttlSeconds int) error
}
