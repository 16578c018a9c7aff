// internal/service/flashpromo/domain/reservation.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultReservationDuration 是预留的默认时长。
const DefaultReservationDuration = time.Minute

// Reservation 是一个用户在一个促销下对一个商品的短时独占预留。
// 同一商品任一时刻至多存在一条未过期的预留，排他性在持久化边界保证。
// 终态只有两种：购买成功（显式删除）或过期（清扫批量删除）。
type Reservation struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	UserID    uuid.UUID
	PromoID   uuid.UUID
	StoreID   uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewReservation 以给定时长创建预留。
func NewReservation(productID, userID, promoID, storeID uuid.UUID, duration time.Duration, now time.Time) *Reservation {
	if duration <= 0 {
		duration = DefaultReservationDuration
	}
	return &Reservation{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		PromoID:   promoID,
		StoreID:   storeID,
		CreatedAt: now,
		ExpiresAt: now.Add(duration),
	}
}

// IsExpired 判断预留是否已过期（到期时刻本身视为已过期）。
func (r *Reservation) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// TimeRemaining 返回剩余时长，已过期返回 0。
func (r *Reservation) TimeRemaining(now time.Time) time.Duration {
	if r.IsExpired(now) {
		return 0
	}
	return r.ExpiresAt.Sub(now)
}

// Extend 将到期时间向后顺延。只用于测试和运维工具，不属于购买流程。
func (r *Reservation) Extend(d time.Duration) {
	r.ExpiresAt = r.ExpiresAt.Add(d)
}
