// internal/service/flashpromo/infrastructure/kafka_consumer.go
package infrastructure

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"flashmart/internal/pkg/logger"
	"flashmart/internal/pkg/mq"
	"flashmart/internal/service/flashpromo/application"
	"flashmart/internal/service/flashpromo/domain"
	"flashmart/internal/service/flashpromo/domain/port"
)

// NotificationConsumerAdapter 是驱动适配器：监听批量通知任务并驱动通知服务。
type NotificationConsumerAdapter struct {
	reader    *kafka.Reader
	notifSvc  *application.NotificationService
	promoRepo domain.PromoRepository
	wg        sync.WaitGroup
	stopped   bool
}

// NewNotificationConsumerAdapter 创建一个新的 kafka 消费者适配器。
func NewNotificationConsumerAdapter(
	reader *kafka.Reader,
	notifSvc *application.NotificationService,
	promoRepo domain.PromoRepository,
) *NotificationConsumerAdapter {
	return &NotificationConsumerAdapter{
		reader:    reader,
		notifSvc:  notifSvc,
		promoRepo: promoRepo,
	}
}

// Start 开始监听任务主题。这是一个长期运行的方法。
func (a *NotificationConsumerAdapter) Start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		logger.Logger().Printf("Notification consumer started for topic '%s'", a.reader.Config().Topic)
		for {
			if a.stopped {
				return
			}
			// 用 FetchMessage 而不是 ReadMessage，以便控制提交时机
			msg, err := a.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Logger().Printf("Notification consumer shutting down")
					return
				}
				logger.Logger().Printf("Failed to fetch message: %v. Retrying...", err)
				time.Sleep(time.Second)
				continue
			}

			a.processMessage(ctx, msg)

			if err := a.reader.CommitMessages(ctx, msg); err != nil {
				logger.Logger().Printf("Failed to commit messages: %v", err)
			}
		}
	}()
}

// Stop 优雅地停止消费者。
func (a *NotificationConsumerAdapter) Stop() {
	a.stopped = true
	a.reader.Close()
	a.wg.Wait()
	logger.Logger().Printf("Notification consumer stopped")
}

// processMessage 反序列化任务并逐批执行通知扇出。
func (a *NotificationConsumerAdapter) processMessage(parentCtx context.Context, msg kafka.Message) {
	var job port.BulkNotificationJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		// 解析不了的消息跳过。生产环境应移入死信队列。
		logger.Logger().Printf("Failed to unmarshal notification job: %v. Message skipped.", err)
		return
	}

	propagator := otel.GetTextMapPropagator()
	headerCarrier := mq.KafkaHeaderCarrier(msg.Headers)
	ctx := propagator.Extract(parentCtx, &headerCarrier)

	promoID, err := uuid.Parse(job.PromoID)
	if err != nil {
		logger.Ctx(ctx).Printf("Invalid promo id %q in job. Message skipped.", job.PromoID)
		return
	}
	promo, err := a.promoRepo.GetByID(ctx, promoID)
	if err != nil {
		logger.Ctx(ctx).Printf("Promo %s not found for notification job: %v", promoID, err)
		return
	}

	for _, batch := range job.Batches {
		result, err := a.notifSvc.SendBatch(ctx, promo, batch, job.Message)
		if err != nil {
			logger.Ctx(ctx).Printf("Failed to send notification batch for promo %s: %v", promoID, err)
			continue
		}
		logger.Ctx(ctx).Printf("Notification batch done for promo %s: %d sent, %d failed, %d duplicate",
			promoID, result.SuccessfulNotifications, result.FailedNotifications, result.DuplicateNotifications)
	}
}
