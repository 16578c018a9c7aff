// internal/service/flashpromo/domain/repository.go
package domain

import (
	"context"

	"github.com/google/uuid"
)

// PromoRepository 定义了促销数据的持久化接口。
// 这是领域层与基础设施层之间的"插座"。
type PromoRepository interface {
	Save(ctx context.Context, promo *Promo) error
	GetByID(ctx context.Context, id uuid.UUID) (*Promo, error)
	// GetActivePromos 返回所有 is_active=true 的促销。
	// 刻意不做时间窗口过滤：这是全局多地域接口，"当前生效"取决于调用方本地时间。
	GetActivePromos(ctx context.Context) ([]*Promo, error)
	GetByProduct(ctx context.Context, productID uuid.UUID) ([]*Promo, error)
	GetByStore(ctx context.Context, storeID uuid.UUID) ([]*Promo, error)
	GetBySegments(ctx context.Context, segments SegmentSet) ([]*Promo, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// UserRepository 定义了用户数据的持久化接口。
type UserRepository interface {
	Save(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetAll(ctx context.Context) ([]*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetBySegments(ctx context.Context, segments SegmentSet) ([]*User, error)
	// GetByLocation 返回给定点半径内的用户。实现应先用包围盒粗筛，
	// 再用精确测地距离确认。
	GetByLocation(ctx context.Context, center Location, radiusKm float64) ([]*User, error)
	GetBySegmentsAndLocation(ctx context.Context, segments SegmentSet, center Location, radiusKm float64) ([]*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ReservationRepository 定义了预留数据的持久化接口。
type ReservationRepository interface {
	Save(ctx context.Context, reservation *Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	GetByProduct(ctx context.Context, productID uuid.UUID) ([]*Reservation, error)
	GetByUser(ctx context.Context, userID uuid.UUID) ([]*Reservation, error)
	// GetActive 返回所有未过期（expires_at > now）的预留。
	GetActive(ctx context.Context) ([]*Reservation, error)
	// GetExpired 返回所有已过期（expires_at <= now）的预留，供诊断。
	GetExpired(ctx context.Context) ([]*Reservation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteExpired 批量删除已过期预留，返回删除条数。
	DeleteExpired(ctx context.Context) (int64, error)
	// DeleteExpiredForProduct 删除商品上已过期的预留。
	// 商品唯一约束下，过期行不清掉会挡住新预留的插入。
	DeleteExpiredForProduct(ctx context.Context, productID uuid.UUID) error
	// ExistsActiveForProduct 判断商品是否存在未过期预留。
	// 这是预留排他性的存在性检查，必须配合分布式锁或唯一约束使用。
	ExistsActiveForProduct(ctx context.Context, productID uuid.UUID) (bool, error)
}
