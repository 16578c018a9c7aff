// internal/service/flashpromo/application/notification_service.go
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"flashmart/internal/pkg/logger"
	"flashmart/internal/service/flashpromo/domain"
	"flashmart/internal/service/flashpromo/domain/port"
)

// defaultBatchSize 是批量通知任务的每批用户数。
const defaultBatchSize = 100

// NotificationService 负责促销激活时对目标用户的通知扇出。
//
// 去重规则：同一（用户, 促销, 自然日）至多投递一次，去重键只在投递成功后
// 写入，失败的用户下次扇出会重试。渠道错误一律吸收为失败计数，不向上传播。
type NotificationService struct {
	userRepo  domain.UserRepository
	channels  []port.NotificationChannel
	ledger    port.NotificationLedger
	taskQueue port.NotificationTaskQueue
	tracer    trace.Tracer
}

// NewNotificationService 创建通知服务。每个用户会依序投递到全部渠道，
// 任一渠道成功即视为该用户投递成功。taskQueue 可为 nil（同步模式）。
func NewNotificationService(
	userRepo domain.UserRepository,
	channels []port.NotificationChannel,
	ledger port.NotificationLedger,
	taskQueue port.NotificationTaskQueue,
	tracer trace.Tracer,
) *NotificationService {
	return &NotificationService{
		userRepo:  userRepo,
		channels:  channels,
		ledger:    ledger,
		taskQueue: taskQueue,
		tracer:    tracer,
	}
}

// NotifyEligibleUsers 对促销的目标分群用户做通知扇出。
func (s *NotificationService) NotifyEligibleUsers(ctx context.Context, promo *domain.Promo) (*NotificationResult, error) {
	ctx, span := s.tracer.Start(ctx, "service.NotifyEligibleUsers")
	defer span.End()
	span.SetAttributes(attribute.String("promo.id", promo.ID.String()))

	// 空分群的促销没有扇出目标。资格判定里的"空集=全员"不适用于群发：
	// 群发必须显式声明受众。
	if promo.Segments.IsEmpty() {
		return &NotificationResult{}, nil
	}

	users, err := s.userRepo.GetBySegments(ctx, promo.Segments)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load eligible users: %w", err)
	}

	result := s.NotifyUsers(ctx, users, promo, "")
	span.SetAttributes(
		attribute.Int("notification.total", result.TotalUsers),
		attribute.Int("notification.successful", result.SuccessfulNotifications),
		attribute.Int("notification.duplicate", result.DuplicateNotifications),
	)
	return result, nil
}

// NotifyUsers 对给定用户集合投递促销通知。message 为空时使用默认文案。
func (s *NotificationService) NotifyUsers(ctx context.Context, users []*domain.User, promo *domain.Promo, message string) *NotificationResult {
	ctx, span := s.tracer.Start(ctx, "service.NotifyUsers")
	defer span.End()

	if message == "" {
		message = DefaultPromoMessage(promo)
	}

	now := time.Now()
	result := &NotificationResult{TotalUsers: len(users)}
	for _, user := range users {
		key := DedupKey(user.ID, promo.ID, now)

		seen, err := s.ledger.Seen(ctx, key)
		if err != nil {
			// 去重账本不可用时宁可重复也不要漏发。
			logger.Ctx(ctx).Printf("Notification ledger check failed for %s: %v", key, err)
		}
		if seen {
			result.DuplicateNotifications++
			continue
		}

		if s.sendToUser(ctx, user, message, promo) {
			result.SuccessfulNotifications++
			if err := s.ledger.Mark(ctx, key, secondsUntilEndOfDay(now)); err != nil {
				logger.Ctx(ctx).Printf("Failed to mark notification %s: %v", key, err)
			}
		} else {
			result.FailedNotifications++
		}
	}
	return result
}

// sendToUser 依序投递全部渠道。渠道之间互不影响，单个渠道的错误不中断
// 后续渠道；任一渠道成功即视为该用户投递成功。
func (s *NotificationService) sendToUser(ctx context.Context, user *domain.User, message string, promo *domain.Promo) bool {
	success := false
	for _, ch := range s.channels {
		ok, err := ch.Send(ctx, user, message, promo)
		if err != nil {
			logger.Ctx(ctx).Printf("Channel %s failed for user %s: %v", ch.Name(), user.ID, err)
			continue
		}
		if ok {
			success = true
		}
	}
	return success
}

// ScheduleBulkNotifications 将大规模扇出切批后投递到任务队列，由 worker 消费。
// 未配置任务队列时退化为同步逐批发送。
func (s *NotificationService) ScheduleBulkNotifications(ctx context.Context, promo *domain.Promo, userIDs []uuid.UUID, message string) (*BulkNotificationResult, error) {
	ctx, span := s.tracer.Start(ctx, "service.ScheduleBulkNotifications")
	defer span.End()
	span.SetAttributes(
		attribute.String("promo.id", promo.ID.String()),
		attribute.Int("notification.user_count", len(userIDs)),
	)

	batches := splitIntoBatches(userIDs, defaultBatchSize)

	if s.taskQueue != nil {
		job := &port.BulkNotificationJob{
			PromoID: promo.ID.String(),
			Batches: batches,
			Message: message,
		}
		if err := s.taskQueue.EnqueueBulkNotification(ctx, job); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to enqueue bulk notification: %w", err)
		}
		logger.Ctx(ctx).Printf("Enqueued %d notification batches for promo %s", len(batches), promo.ID)
		return &BulkNotificationResult{
			TotalBatches:       len(batches),
			NotificationResult: NotificationResult{TotalUsers: len(userIDs)},
		}, nil
	}

	result := &BulkNotificationResult{TotalBatches: len(batches)}
	for _, batch := range batches {
		batchResult, err := s.SendBatch(ctx, promo, batch, message)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		result.TotalUsers += batchResult.TotalUsers
		result.SuccessfulNotifications += batchResult.SuccessfulNotifications
		result.FailedNotifications += batchResult.FailedNotifications
		result.DuplicateNotifications += batchResult.DuplicateNotifications
	}
	return result, nil
}

// SendBatch 加载一批用户并投递。worker 消费任务时也走这里。
func (s *NotificationService) SendBatch(ctx context.Context, promo *domain.Promo, userIDs []string, message string) (*NotificationResult, error) {
	ctx, span := s.tracer.Start(ctx, "service.SendBatch")
	defer span.End()

	users := make([]*domain.User, 0, len(userIDs))
	for _, raw := range userIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			logger.Ctx(ctx).Printf("Skipping invalid user id %q in batch", raw)
			continue
		}
		user, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			logger.Ctx(ctx).Printf("Skipping unknown user %s in batch: %v", id, err)
			continue
		}
		users = append(users, user)
	}
	return s.NotifyUsers(ctx, users, promo, message), nil
}

// DedupKey 构造通知去重键：user:promo:当天日期。
func DedupKey(userID, promoID uuid.UUID, now time.Time) string {
	return fmt.Sprintf("%s:%s:%s", userID, promoID, now.Format("2006-01-02"))
}

// DefaultPromoMessage 生成默认的促销通知文案。
func DefaultPromoMessage(promo *domain.Promo) string {
	msg := fmt.Sprintf("Flash promo! Special price %s", promo.PromoPrice)
	if promo.Window != nil {
		msg += fmt.Sprintf(" from %s to %s", promo.Window.Start(), promo.Window.End())
	}
	return msg
}

func splitIntoBatches(userIDs []uuid.UUID, size int) [][]string {
	if size <= 0 {
		size = defaultBatchSize
	}
	batches := make([][]string, 0, (len(userIDs)+size-1)/size)
	for start := 0; start < len(userIDs); start += size {
		end := start + size
		if end > len(userIDs) {
			end = len(userIDs)
		}
		batch := make([]string, 0, end-start)
		for _, id := range userIDs[start:end] {
			batch = append(batch, id.String())
		}
		batches = append(batches, batch)
	}
	return batches
}

func secondsUntilEndOfDay(now time.Time) int {
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	ttl := int(endOfDay.Sub(now).Seconds())
	if ttl < 1 {
		ttl = 1
	}
	return ttl
}
