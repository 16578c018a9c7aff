// internal/service/flashpromo/domain/user.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 行为分群判定的默认阈值。SegmentationService 可按需覆盖。
const (
	DefaultNewUserMaxAgeDays    = 30
	DefaultFrequentMinPurchases = 5
	DefaultFrequentMaxDaysSince = 90
	DefaultVIPMinSpent          = 1000.0
)

// User 是市场买家实体。购买统计只通过 RecordPurchase 变更。
// Segments 是查询用的缓存标签集，与实时判定可能短暂不一致，
// 由显式的"更新分群"操作重算。
type User struct {
	ID             uuid.UUID
	Email          string
	Name           string
	Location       *Location
	CreatedAt      time.Time
	LastPurchaseAt *time.Time
	TotalPurchases int
	TotalSpent     decimal.Decimal
	Segments       SegmentSet
}

// NewUser 创建用户。
func NewUser(email, name string, location *Location) *User {
	return &User{
		ID:         uuid.New(),
		Email:      email,
		Name:       name,
		Location:   location,
		CreatedAt:  time.Now(),
		TotalSpent: decimal.Zero,
		Segments:   NewSegmentSet(),
	}
}

// IsNewUser 判断用户注册是否不超过 maxAgeDays 天。
func (u *User) IsNewUser(now time.Time, maxAgeDays int) bool {
	return daysBetween(u.CreatedAt, now) <= maxAgeDays
}

// IsFrequentBuyer 判断用户是否为高频买家：
// 购买次数达标，且最近一次购买在 maxDaysSince 天之内。
func (u *User) IsFrequentBuyer(now time.Time, minPurchases, maxDaysSince int) bool {
	if u.TotalPurchases < minPurchases {
		return false
	}
	if u.LastPurchaseAt == nil {
		return false
	}
	return daysBetween(*u.LastPurchaseAt, now) <= maxDaysSince
}

// IsVIPCustomer 判断累计消费是否达到 VIP 门槛。
func (u *User) IsVIPCustomer(minSpent decimal.Decimal) bool {
	return u.TotalSpent.GreaterThanOrEqual(minSpent)
}

// RecordPurchase 记录一次购买：次数加一、累计消费增加、刷新最近购买时间。
// 这是购买统计唯一的变更入口。
func (u *User) RecordPurchase(amount Price, now time.Time) {
	u.TotalPurchases++
	u.TotalSpent = u.TotalSpent.Add(amount.Amount())
	u.LastPurchaseAt = &now
}

// AddSegment 添加缓存分群标签。
func (u *User) AddSegment(seg Segment) {
	u.Segments.Add(seg)
}

// RemoveSegment 移除缓存分群标签。
func (u *User) RemoveSegment(seg Segment) {
	u.Segments.Remove(seg)
}

// HasSegment 判断用户是否带有某个分群标签。
func (u *User) HasSegment(seg Segment) bool {
	return u.Segments.Has(seg)
}

// UpdateLocation 更新用户位置。
func (u *User) UpdateLocation(loc Location) {
	u.Location = &loc
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
