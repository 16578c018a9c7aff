// internal/service/flashpromo/infrastructure/adapter/notification_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"flashmart/internal/pkg/mq"
	"flashmart/internal/service/flashpromo/domain/port"
)

// NotificationKafkaAdapter 实现了 port.NotificationTaskQueue 接口。
// 批量通知任务投递到 kafka，由 notification-worker 消费执行。
type NotificationKafkaAdapter struct {
	writer *kafka.Writer
}

// NewNotificationKafkaAdapter 创建一个新的通知任务生产者适配器。
func NewNotificationKafkaAdapter(writer *kafka.Writer) *NotificationKafkaAdapter {
	return &NotificationKafkaAdapter{writer: writer}
}

// EnqueueBulkNotification 把批量通知任务写入队列。
// 以促销 ID 作为消息 key，同一促销的任务落在同一分区保持顺序。
func (a *NotificationKafkaAdapter) EnqueueBulkNotification(ctx context.Context, job *port.BulkNotificationJob) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal notification job: %w", err)
	}
	// mq.ProduceMessage 会自动把追踪上下文注入消息头
	return mq.ProduceMessage(ctx, a.writer, []byte(job.PromoID), jobBytes)
}

// Close 关闭底层的 kafka writer。
func (a *NotificationKafkaAdapter) Close() error {
	return a.writer.Close()
}
