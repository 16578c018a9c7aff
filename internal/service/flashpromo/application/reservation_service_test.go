package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"flashmart/internal/service/flashpromo/domain"
)

type reservationFixture struct {
	svc       *ReservationService
	promoRepo *fakePromoRepo
	userRepo  *fakeUserRepo
	resRepo   *fakeReservationRepo
	locker    *fakeLocker

	promo *domain.Promo
	user  *domain.User
}

func newReservationFixture(t *testing.T) *reservationFixture {
	t.Helper()
	promoRepo := newFakePromoRepo()
	userRepo := newFakeUserRepo()
	resRepo := newFakeReservationRepo()
	locker := &fakeLocker{}

	svc := NewReservationService(resRepo, promoRepo, userRepo, locker, time.Minute, testTracer)

	price, _ := domain.NewPriceFromString("49.99")
	promo := domain.NewPromo(uuid.New(), uuid.New(), price, nil, domain.NewSegmentSet(domain.SegmentVIPCustomers), 2)
	promo.Activate()
	promoRepo.Save(context.Background(), promo)

	user := domain.NewUser("u@example.com", "U", nil)
	userRepo.Save(context.Background(), user)

	return &reservationFixture{
		svc: svc, promoRepo: promoRepo, userRepo: userRepo, resRepo: resRepo,
		locker: locker, promo: promo, user: user,
	}
}

func TestReserveProduct(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	res, err := f.svc.ReserveProduct(ctx, f.promo.ProductID, f.user.ID, f.promo.ID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil {
		t.Fatal("expected a reservation, got conflict sentinel")
	}
	if res.StoreID != f.promo.StoreID {
		t.Error("reservation should inherit the promo's store")
	}
	if got := res.ExpiresAt.Sub(res.CreatedAt); got != time.Minute {
		t.Errorf("duration = %s, want 1m", got)
	}
	if f.locker.acquires != 1 {
		t.Errorf("locker acquired %d times, want 1", f.locker.acquires)
	}
}

func TestReserveProductCustomDuration(t *testing.T) {
	f := newReservationFixture(t)

	res, err := f.svc.ReserveProduct(context.Background(), f.promo.ProductID, f.user.ID, f.promo.ID, 5*time.Minute)
	if err != nil || res == nil {
		t.Fatalf("reservation failed: %v, %v", res, err)
	}
	if got := res.ExpiresAt.Sub(res.CreatedAt); got != 5*time.Minute {
		t.Errorf("duration = %s, want 5m", got)
	}
}

func TestReserveProductConflict(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	first, err := f.svc.ReserveProduct(ctx, f.promo.ProductID, f.user.ID, f.promo.ID, 0)
	if err != nil || first == nil {
		t.Fatalf("first reservation failed: %v, %v", first, err)
	}

	// 第二个用户对同一商品：返回 (nil, nil) 哨兵，不是错误
	other := domain.NewUser("o@example.com", "O", nil)
	f.userRepo.Save(ctx, other)
	second, err := f.svc.ReserveProduct(ctx, f.promo.ProductID, other.ID, f.promo.ID, 0)
	if err != nil {
		t.Fatalf("conflict must not be an error: %v", err)
	}
	if second != nil {
		t.Fatal("conflicting reservation should return the nil sentinel")
	}
}

func TestReserveProductAfterExpiry(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	// 商品上挂着一条已过期、尚未被清扫的预留
	stale := domain.NewReservation(f.promo.ProductID, f.user.ID, f.promo.ID, f.promo.StoreID,
		time.Minute, time.Now().Add(-2*time.Minute))
	f.resRepo.Save(ctx, stale)

	// 过期预留不挡新预留：创建前过期行被清掉，商品粒度唯一约束不会冲突
	other := domain.NewUser("o@example.com", "O", nil)
	f.userRepo.Save(ctx, other)
	res, err := f.svc.ReserveProduct(ctx, f.promo.ProductID, other.ID, f.promo.ID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil {
		t.Fatal("expired reservation must not block a new one")
	}

	if _, err := f.resRepo.GetByID(ctx, stale.ID); !errors.Is(err, domain.ErrReservationNotFound) {
		t.Error("stale reservation should be purged before the new insert")
	}
	all, _ := f.resRepo.GetByProduct(ctx, f.promo.ProductID)
	if len(all) != 1 {
		t.Errorf("product has %d reservations, want 1", len(all))
	}
}

func TestReserveProductUniqueConflictIsSentinel(t *testing.T) {
	f := newReservationFixture(t)

	// 唯一约束冲突是锁失效时的兜底防线，和正常冲突一样返回 (nil, nil)
	f.resRepo.saveErr = domain.ErrAlreadyReserved
	res, err := f.svc.ReserveProduct(context.Background(), f.promo.ProductID, f.user.ID, f.promo.ID, 0)
	if err != nil {
		t.Fatalf("duplicate key must not surface as an error: %v", err)
	}
	if res != nil {
		t.Fatal("duplicate key should yield the conflict sentinel")
	}
}

func TestReserveProductLockHeld(t *testing.T) {
	f := newReservationFixture(t)
	f.locker.held = true

	res, err := f.svc.ReserveProduct(context.Background(), f.promo.ProductID, f.user.ID, f.promo.ID, 0)
	if err != nil {
		t.Fatalf("held lock must not be an error: %v", err)
	}
	if res != nil {
		t.Fatal("held lock should yield the conflict sentinel")
	}
}

func TestReserveProductChecks(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	// 促销不存在
	if _, err := f.svc.ReserveProduct(ctx, f.promo.ProductID, f.user.ID, uuid.New(), 0); !errors.Is(err, domain.ErrPromoNotFound) {
		t.Errorf("expected ErrPromoNotFound, got %v", err)
	}

	// 促销未激活
	f.promo.Deactivate()
	f.promoRepo.Save(ctx, f.promo)
	if _, err := f.svc.ReserveProduct(ctx, f.promo.ProductID, f.user.ID, f.promo.ID, 0); !errors.Is(err, domain.ErrPromoNotActive) {
		t.Errorf("expected ErrPromoNotActive, got %v", err)
	}
}

func TestCompletePurchase(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	res, _ := f.svc.ReserveProduct(ctx, f.promo.ProductID, f.user.ID, f.promo.ID, 0)

	price, err := f.svc.CompletePurchase(ctx, res.ID, f.user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price.Amount().Equal(decimal.NewFromFloat(49.99)) {
		t.Errorf("price = %s, want 49.99", price.Amount())
	}

	// 购买统计已更新
	user, _ := f.userRepo.GetByID(ctx, f.user.ID)
	if user.TotalPurchases != 1 {
		t.Errorf("TotalPurchases = %d, want 1", user.TotalPurchases)
	}
	if !user.TotalSpent.Equal(decimal.NewFromFloat(49.99)) {
		t.Errorf("TotalSpent = %s, want 49.99", user.TotalSpent)
	}

	// 预留已删除
	if _, err := f.resRepo.GetByID(ctx, res.ID); !errors.Is(err, domain.ErrReservationNotFound) {
		t.Error("reservation should be deleted after purchase")
	}
}

func TestCompletePurchaseOrderedChecks(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	res, _ := f.svc.ReserveProduct(ctx, f.promo.ProductID, f.user.ID, f.promo.ID, 0)

	// 预留不存在
	if _, err := f.svc.CompletePurchase(ctx, uuid.New(), f.user.ID); !errors.Is(err, domain.ErrReservationNotFound) {
		t.Errorf("expected ErrReservationNotFound, got %v", err)
	}

	// 非持有人：即使预留同时过期，也先报持有人错误
	if _, err := f.svc.CompletePurchase(ctx, res.ID, uuid.New()); !errors.Is(err, domain.ErrNotReservationOwner) {
		t.Errorf("expected ErrNotReservationOwner, got %v", err)
	}

	// 过期
	res.ExpiresAt = time.Now().Add(-time.Second)
	f.resRepo.Save(ctx, res)
	if _, err := f.svc.CompletePurchase(ctx, res.ID, f.user.ID); !errors.Is(err, domain.ErrReservationExpired) {
		t.Errorf("expected ErrReservationExpired, got %v", err)
	}

	// 促销失效
	res.ExpiresAt = time.Now().Add(time.Minute)
	f.resRepo.Save(ctx, res)
	f.promo.Deactivate()
	f.promoRepo.Save(ctx, f.promo)
	if _, err := f.svc.CompletePurchase(ctx, res.ID, f.user.ID); !errors.Is(err, domain.ErrPromoNotActive) {
		t.Errorf("expected ErrPromoNotActive, got %v", err)
	}
}

func TestGetPurchasePrice(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	res, _ := f.svc.ReserveProduct(ctx, f.promo.ProductID, f.user.ID, f.promo.ID, 0)

	price, err := f.svc.GetPurchasePrice(ctx, res.ID)
	if err != nil || price == nil {
		t.Fatalf("valid reservation should have a price: %v, %v", price, err)
	}

	// 诊断接口：无效状态一律 (nil, nil)
	if p, err := f.svc.GetPurchasePrice(ctx, uuid.New()); p != nil || err != nil {
		t.Errorf("missing reservation: got %v, %v", p, err)
	}

	res.ExpiresAt = time.Now().Add(-time.Second)
	f.resRepo.Save(ctx, res)
	if p, err := f.svc.GetPurchasePrice(ctx, res.ID); p != nil || err != nil {
		t.Errorf("expired reservation: got %v, %v", p, err)
	}
}

func TestSweepExpiredReservations(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	res, _ := f.svc.ReserveProduct(ctx, f.promo.ProductID, f.user.ID, f.promo.ID, 0)

	// 未过期时清扫不动它
	n, err := f.svc.SweepExpiredReservations(ctx)
	if err != nil || n != 0 {
		t.Fatalf("sweep of live reservation: n=%d err=%v", n, err)
	}

	res.ExpiresAt = time.Now().Add(-time.Second)
	f.resRepo.Save(ctx, res)

	n, err = f.svc.SweepExpiredReservations(ctx)
	if err != nil || n != 1 {
		t.Fatalf("sweep of expired reservation: n=%d err=%v", n, err)
	}

	// 清扫后商品可以再次被预留
	reserved, err := f.svc.IsProductReserved(ctx, f.promo.ProductID)
	if err != nil || reserved {
		t.Errorf("product should be free after sweep: %v, %v", reserved, err)
	}
}
