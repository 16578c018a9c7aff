// internal/service/flashpromo/infrastructure/adapter/email_channel.go
package adapter

import (
	"context"
	"sync"

	"flashmart/internal/pkg/logger"
	"flashmart/internal/service/flashpromo/domain"
)

// SentRecord 是渠道投递记录，测试和本地联调用。
type SentRecord struct {
	UserID  string
	Email   string
	Message string
	PromoID string
}

// EmailChannel 是 port.NotificationChannel 的邮件实现。
// 当前对接的是日志输出的 mock 网关，保留投递记录供测试断言；
// 生产网关接入只需替换 Send 的投递部分。
type EmailChannel struct {
	mu   sync.Mutex
	sent []SentRecord
}

// NewEmailChannel 创建邮件渠道。
func NewEmailChannel() *EmailChannel {
	return &EmailChannel{}
}

// Name 返回渠道名。
func (c *EmailChannel) Name() string { return "email" }

// Send 投递一条邮件通知。
func (c *EmailChannel) Send(ctx context.Context, user *domain.User, message string, promo *domain.Promo) (bool, error) {
	logger.Ctx(ctx).Printf("[email] to=%s promo=%s: %s", user.Email, promo.ID, message)

	c.mu.Lock()
	c.sent = append(c.sent, SentRecord{
		UserID:  user.ID.String(),
		Email:   user.Email,
		Message: message,
		PromoID: promo.ID.String(),
	})
	c.mu.Unlock()
	return true, nil
}

// Sent 返回投递记录的副本。
func (c *EmailChannel) Sent() []SentRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SentRecord, len(c.sent))
	copy(out, c.sent)
	return out
}
