package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"flashmart/internal/service/flashpromo/domain"
)

// 测试用的进程内仓储与端口替身。

var testTracer = otel.Tracer("flashpromo-test")

type fakePromoRepo struct {
	mu     sync.Mutex
	promos map[uuid.UUID]*domain.Promo
}

func newFakePromoRepo() *fakePromoRepo {
	return &fakePromoRepo{promos: make(map[uuid.UUID]*domain.Promo)}
}

func (r *fakePromoRepo) Save(ctx context.Context, p *domain.Promo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.promos[p.ID] = p
	return nil
}

func (r *fakePromoRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Promo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[id]
	if !ok {
		return nil, domain.ErrPromoNotFound
	}
	return p, nil
}

func (r *fakePromoRepo) GetActivePromos(ctx context.Context) ([]*domain.Promo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Promo, 0)
	for _, p := range r.promos {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePromoRepo) GetByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Promo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Promo, 0)
	for _, p := range r.promos {
		if p.ProductID == productID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePromoRepo) GetByStore(ctx context.Context, storeID uuid.UUID) ([]*domain.Promo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Promo, 0)
	for _, p := range r.promos {
		if p.StoreID == storeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePromoRepo) GetBySegments(ctx context.Context, segments domain.SegmentSet) ([]*domain.Promo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Promo, 0)
	for _, p := range r.promos {
		if p.Segments.Intersects(segments) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePromoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.promos, id)
	return nil
}

func (r *fakePromoRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.promos[id]
	return ok, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) Save(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetAll(ctx context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) GetBySegments(ctx context.Context, segments domain.SegmentSet) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0)
	for _, u := range r.users {
		if segments.IsEmpty() || u.Segments.Intersects(segments) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetByLocation(ctx context.Context, center domain.Location, radiusKm float64) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0)
	for _, u := range r.users {
		if u.Location != nil && center.WithinRadiusPrecise(*u.Location, radiusKm) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetBySegmentsAndLocation(ctx context.Context, segments domain.SegmentSet, center domain.Location, radiusKm float64) ([]*domain.User, error) {
	users, _ := r.GetBySegments(ctx, segments)
	out := make([]*domain.User, 0)
	for _, u := range users {
		if u.Location != nil && center.WithinRadiusPrecise(*u.Location, radiusKm) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[id]
	return ok, nil
}

type fakeReservationRepo struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]*domain.Reservation
	saveErr      error // 注入 Save 的返回值，模拟唯一键冲突
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{reservations: make(map[uuid.UUID]*domain.Reservation)}
}

func (r *fakeReservationRepo) Save(ctx context.Context, res *domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.reservations[res.ID] = res
	return nil
}

func (r *fakeReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	return res, nil
}

func (r *fakeReservationRepo) GetByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Reservation, 0)
	for _, res := range r.reservations {
		if res.ProductID == productID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) GetByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Reservation, 0)
	for _, res := range r.reservations {
		if res.UserID == userID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) GetActive(ctx context.Context) ([]*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	out := make([]*domain.Reservation, 0)
	for _, res := range r.reservations {
		if !res.IsExpired(now) {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) GetExpired(ctx context.Context) ([]*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	out := make([]*domain.Reservation, 0)
	for _, res := range r.reservations {
		if res.IsExpired(now) {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reservations, id)
	return nil
}

func (r *fakeReservationRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var n int64
	for id, res := range r.reservations {
		if res.IsExpired(now) {
			delete(r.reservations, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeReservationRepo) DeleteExpiredForProduct(ctx context.Context, productID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for id, res := range r.reservations {
		if res.ProductID == productID && res.IsExpired(now) {
			delete(r.reservations, id)
		}
	}
	return nil
}

func (r *fakeReservationRepo) ExistsActiveForProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, res := range r.reservations {
		if res.ProductID == productID && !res.IsExpired(now) {
			return true, nil
		}
	}
	return false, nil
}

// fakeLocker 总能拿到锁，记录 Acquire 调用次数。
type fakeLocker struct {
	mu       sync.Mutex
	acquires int
	held     bool // true 时模拟锁被他人持有
}

func (l *fakeLocker) Acquire(ctx context.Context, productID string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquires++
	if l.held {
		return nil, false, nil
	}
	return func() {}, true, nil
}

// fakeChannel 按 fail/sendErr 开关模拟投递失败或渠道错误，记录投递过的用户。
type fakeChannel struct {
	name    string
	fail    bool
	sendErr error

	mu   sync.Mutex
	sent []string
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Send(ctx context.Context, user *domain.User, message string, promo *domain.Promo) (bool, error) {
	if c.sendErr != nil {
		return false, c.sendErr
	}
	if c.fail {
		return false, nil
	}
	c.mu.Lock()
	c.sent = append(c.sent, user.ID.String())
	c.mu.Unlock()
	return true, nil
}

func (c *fakeChannel) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

// fakeLedger 是进程内去重账本。
type fakeLedger struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{seen: make(map[string]bool)}
}

func (l *fakeLedger) Seen(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seen[key], nil
}

func (l *fakeLedger) Mark(ctx context.Context, key string, ttlSeconds int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[key] = true
	return nil
}
