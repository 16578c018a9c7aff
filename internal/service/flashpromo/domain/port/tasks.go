// internal/service/flashpromo/domain/port/tasks.go
package port

import "context"

// BulkNotificationJob 是投递到任务队列的批量通知任务。
// 只携带 ID，worker 消费时重新加载实体，避免把整个用户列表塞进消息体。
type BulkNotificationJob struct {
	PromoID string     `json:"promo_id"`
	Batches [][]string `json:"batches"` // 每批是一组用户 ID
	Message string     `json:"message,omitempty"`
}

// NotificationTaskQueue 是批量通知异步化的出站端口（kafka 实现）。
type NotificationTaskQueue interface {
	EnqueueBulkNotification(ctx context.Context, job *BulkNotificationJob) error
}
