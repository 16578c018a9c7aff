// internal/service/flashpromo/infrastructure/adapter/sms_channel.go
package adapter

import (
	"context"
	"sync"

	"flashmart/internal/pkg/logger"
	"flashmart/internal/service/flashpromo/domain"
)

// SMSChannel 是 port.NotificationChannel 的短信实现（mock 网关）。
// 排在渠道列表末位作为兜底。
type SMSChannel struct {
	mu   sync.Mutex
	sent []SentRecord
}

// NewSMSChannel 创建短信渠道。
func NewSMSChannel() *SMSChannel {
	return &SMSChannel{}
}

// Name 返回渠道名。
func (c *SMSChannel) Name() string { return "sms" }

// Send 投递一条短信通知。
func (c *SMSChannel) Send(ctx context.Context, user *domain.User, message string, promo *domain.Promo) (bool, error) {
	logger.Ctx(ctx).Printf("[sms] to=%s promo=%s: %s", user.ID, promo.ID, message)

	c.mu.Lock()
	c.sent = append(c.sent, SentRecord{
		UserID:  user.ID.String(),
		Message: message,
		PromoID: promo.ID.String(),
	})
	c.mu.Unlock()
	return true, nil
}

// Sent 返回投递记录的副本。
func (c *SMSChannel) Sent() []SentRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SentRecord, len(c.sent))
	copy(out, c.sent)
	return out
}
