// internal/service/flashpromo/domain/promo.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxRadiusKm 是促销地理围栏的默认半径。
const DefaultMaxRadiusKm = 2.0

// Promo 是闪购促销聚合根：某店铺对某商品的限时限群折扣。
//
// 注意实体本身允许空的分群集合（语义为"对所有人生效"），而创建用例会
// 拒绝空集合。这条路径只能通过直接构造实体到达，是上游遗留的不一致，
// 保留两种入口，不做静默收敛。
type Promo struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	StoreID     uuid.UUID
	PromoPrice  Price
	Window      *TimeWindow // 可选；缺省表示全天生效
	Segments    SegmentSet
	MaxRadiusKm float64
	IsActive    bool
	CreatedAt   time.Time
}

// NewPromo 创建一个未激活的促销。促销必须经运营显式激活才可用。
func NewPromo(productID, storeID uuid.UUID, price Price, window *TimeWindow, segments SegmentSet, maxRadiusKm float64) *Promo {
	if segments == nil {
		segments = NewSegmentSet()
	}
	return &Promo{
		ID:          uuid.New(),
		ProductID:   productID,
		StoreID:     storeID,
		PromoPrice:  price,
		Window:      window,
		Segments:    segments,
		MaxRadiusKm: maxRadiusKm,
		IsActive:    false,
		CreatedAt:   time.Now(),
	}
}

// Activate 激活促销。
func (p *Promo) Activate() {
	p.IsActive = true
}

// Deactivate 停用促销。
func (p *Promo) Deactivate() {
	p.IsActive = false
}

// IsCurrentlyActive 判断促销在给定时间是否生效：
// 已激活，且（无时间窗口 或 当前墙钟时刻落在窗口内）。
// 每次调用重新求值，时间窗口不会触发任何存储状态迁移。
func (p *Promo) IsCurrentlyActive(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.Window == nil {
		return true
	}
	return p.Window.ActiveAt(now)
}

// EligibleForSegments 判断持有给定分群的用户是否命中本促销。
// 空的促销分群集合表示对所有人生效（见类型注释中的不一致说明）。
func (p *Promo) EligibleForSegments(userSegments SegmentSet) bool {
	if p.Segments.IsEmpty() {
		return true
	}
	return p.Segments.Intersects(userSegments)
}

// AddSegment 添加目标分群。
func (p *Promo) AddSegment(seg Segment) {
	p.Segments.Add(seg)
}

// RemoveSegment 移除目标分群。
func (p *Promo) RemoveSegment(seg Segment) {
	p.Segments.Remove(seg)
}

// UpdateWindow 更新时间窗口。
func (p *Promo) UpdateWindow(w TimeWindow) {
	p.Window = &w
}

// UpdatePrice 更新促销价。
func (p *Promo) UpdatePrice(price Price) {
	p.PromoPrice = price
}

// UpdateRadius 更新地理围栏半径，负数返回 ErrValidation。
func (p *Promo) UpdateRadius(radiusKm float64) error {
	if radiusKm < 0 {
		return fmt.Errorf("%w: radius cannot be negative", ErrValidation)
	}
	p.MaxRadiusKm = radiusKm
	return nil
}
