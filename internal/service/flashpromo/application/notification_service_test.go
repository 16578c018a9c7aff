package application

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"flashmart/internal/service/flashpromo/domain"
	"flashmart/internal/service/flashpromo/domain/port"
)

type fakeTaskQueue struct {
	mu   sync.Mutex
	jobs []*port.BulkNotificationJob
}

func (q *fakeTaskQueue) EnqueueBulkNotification(ctx context.Context, job *port.BulkNotificationJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func newNotificationPromo() *domain.Promo {
	price, _ := domain.NewPriceFromString("49.99")
	return domain.NewPromo(uuid.New(), uuid.New(), price, nil, domain.NewSegmentSet(domain.SegmentVIPCustomers), 2)
}

func TestNotifyUsersDedup(t *testing.T) {
	userRepo := newFakeUserRepo()
	channel := &fakeChannel{name: "email"}
	svc := NewNotificationService(userRepo, []port.NotificationChannel{channel}, newFakeLedger(), nil, testTracer)

	promo := newNotificationPromo()
	user := domain.NewUser("u@example.com", "U", nil)
	users := []*domain.User{user}

	first := svc.NotifyUsers(context.Background(), users, promo, "")
	if first.SuccessfulNotifications != 1 || first.DuplicateNotifications != 0 {
		t.Fatalf("first fan-out = %+v", first)
	}

	// 同一天再发：去重命中，渠道不再投递
	second := svc.NotifyUsers(context.Background(), users, promo, "")
	if second.DuplicateNotifications != 1 || second.SuccessfulNotifications != 0 {
		t.Errorf("second fan-out = %+v, want one duplicate", second)
	}
	if channel.sentCount() != 1 {
		t.Errorf("channel sent %d messages, want 1", channel.sentCount())
	}
}

func TestNotifyUsersMarksOnlyAfterSuccess(t *testing.T) {
	userRepo := newFakeUserRepo()
	channel := &fakeChannel{name: "email", fail: true}
	svc := NewNotificationService(userRepo, []port.NotificationChannel{channel}, newFakeLedger(), nil, testTracer)

	promo := newNotificationPromo()
	users := []*domain.User{domain.NewUser("u@example.com", "U", nil)}

	failed := svc.NotifyUsers(context.Background(), users, promo, "")
	if failed.FailedNotifications != 1 {
		t.Fatalf("fan-out with broken channel = %+v", failed)
	}

	// 渠道恢复后重试必须成功，而不是被去重键挡住
	channel.fail = false
	retried := svc.NotifyUsers(context.Background(), users, promo, "")
	if retried.SuccessfulNotifications != 1 || retried.DuplicateNotifications != 0 {
		t.Errorf("retry after channel recovery = %+v", retried)
	}
}

func TestNotifyUsersAllChannelsAttempted(t *testing.T) {
	userRepo := newFakeUserRepo()
	email := &fakeChannel{name: "email", sendErr: context.DeadlineExceeded}
	push := &fakeChannel{name: "push"}
	sms := &fakeChannel{name: "sms"}
	svc := NewNotificationService(userRepo, []port.NotificationChannel{email, push, sms}, newFakeLedger(), nil, testTracer)

	promo := newNotificationPromo()
	users := []*domain.User{domain.NewUser("u@example.com", "U", nil)}

	// 渠道是互相独立的投递目标：坏渠道不中断其余渠道，
	// 任一渠道成功即算该用户成功
	result := svc.NotifyUsers(context.Background(), users, promo, "")
	if result.SuccessfulNotifications != 1 {
		t.Fatalf("result = %+v, want user-level success", result)
	}
	if push.sentCount() != 1 || sms.sentCount() != 1 {
		t.Errorf("push sent %d, sms sent %d; every healthy channel should deliver", push.sentCount(), sms.sentCount())
	}
}

func TestDefaultPromoMessage(t *testing.T) {
	promo := newNotificationPromo()
	msg := DefaultPromoMessage(promo)
	if !strings.Contains(msg, "49.99") {
		t.Errorf("message %q should mention the promo price", msg)
	}
	if strings.Contains(msg, "from") {
		t.Errorf("windowless promo message %q should not mention a time range", msg)
	}

	start, _ := domain.ParseTimeOfDay("17:00")
	end, _ := domain.ParseTimeOfDay("19:00")
	w, _ := domain.NewTimeWindow(start, end)
	promo.Window = &w
	msg = DefaultPromoMessage(promo)
	if !strings.Contains(msg, "17:00") || !strings.Contains(msg, "19:00") {
		t.Errorf("message %q should mention the time range", msg)
	}
}

func TestDedupKey(t *testing.T) {
	userID := uuid.New()
	promoID := uuid.New()
	at := time.Date(2026, 8, 24, 18, 30, 0, 0, time.UTC)

	want := userID.String() + ":" + promoID.String() + ":2026-08-24"
	if got := DedupKey(userID, promoID, at); got != want {
		t.Errorf("DedupKey = %q, want %q", got, want)
	}
}

func TestScheduleBulkNotificationsSyncFallback(t *testing.T) {
	userRepo := newFakeUserRepo()
	channel := &fakeChannel{name: "email"}
	svc := NewNotificationService(userRepo, []port.NotificationChannel{channel}, newFakeLedger(), nil, testTracer)

	promo := newNotificationPromo()
	ids := make([]uuid.UUID, 0, 150)
	for i := 0; i < 150; i++ {
		u := domain.NewUser("u@example.com", "U", nil)
		userRepo.Save(context.Background(), u)
		ids = append(ids, u.ID)
	}
	// 未入库的 ID 会在批内被跳过
	ids = append(ids, uuid.New())

	result, err := svc.ScheduleBulkNotifications(context.Background(), promo, ids, "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalBatches != 2 {
		t.Errorf("TotalBatches = %d, want 2 for 151 users at batch size 100", result.TotalBatches)
	}
	if result.SuccessfulNotifications != 150 {
		t.Errorf("SuccessfulNotifications = %d, want 150", result.SuccessfulNotifications)
	}
}

func TestScheduleBulkNotificationsEnqueues(t *testing.T) {
	userRepo := newFakeUserRepo()
	channel := &fakeChannel{name: "email"}
	queue := &fakeTaskQueue{}
	svc := NewNotificationService(userRepo, []port.NotificationChannel{channel}, newFakeLedger(), queue, testTracer)

	promo := newNotificationPromo()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	result, err := svc.ScheduleBulkNotifications(context.Background(), promo, ids, "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalBatches != 1 {
		t.Errorf("TotalBatches = %d, want 1", result.TotalBatches)
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(queue.jobs))
	}
	if queue.jobs[0].PromoID != promo.ID.String() || len(queue.jobs[0].Batches[0]) != 2 {
		t.Errorf("job = %+v", queue.jobs[0])
	}
	// 队列模式下不应同步投递
	if channel.sentCount() != 0 {
		t.Error("queued fan-out must not send synchronously")
	}
}

func TestSplitIntoBatches(t *testing.T) {
	ids := make([]uuid.UUID, 5)
	for i := range ids {
		ids[i] = uuid.New()
	}

	batches := splitIntoBatches(ids, 2)
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	if len(batches[0]) != 2 || len(batches[2]) != 1 {
		t.Errorf("batch sizes = %d/%d/%d, want 2/2/1", len(batches[0]), len(batches[1]), len(batches[2]))
	}

	if got := splitIntoBatches(nil, 2); len(got) != 0 {
		t.Errorf("empty input should yield no batches, got %d", len(got))
	}
}
