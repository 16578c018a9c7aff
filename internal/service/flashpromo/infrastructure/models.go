// internal/service/flashpromo/infrastructure/models.go
package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// PromoModel 是闪购促销的数据库模型。
// 分群集合以逗号分隔字符串存储，时间窗口存为自午夜的秒数，-1 表示无窗口。
type PromoModel struct {
	ID           string          `gorm:"type:char(36);primaryKey"`
	ProductID    string          `gorm:"type:char(36);index;not null"`
	StoreID      string          `gorm:"type:char(36);index;not null"`
	PromoPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StartSeconds int             `gorm:"not null;default:-1"`
	EndSeconds   int             `gorm:"not null;default:-1"`
	UserSegments string          `gorm:"type:varchar(255);not null"`
	MaxRadiusKm  float64         `gorm:"not null"`
	IsActive     bool            `gorm:"index;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName 指定表名。
func (PromoModel) TableName() string {
	return "flash_promos"
}

// UserModel 是用户的数据库模型。坐标可空，分群以逗号分隔字符串存储。
type UserModel struct {
	ID             string           `gorm:"type:char(36);primaryKey"`
	Email          string           `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name           string           `gorm:"type:varchar(255);not null"`
	Latitude       *decimal.Decimal `gorm:"type:decimal(9,6)"`
	Longitude      *decimal.Decimal `gorm:"type:decimal(9,6)"`
	LastPurchaseAt *time.Time
	TotalPurchases int             `gorm:"not null;default:0"`
	TotalSpent     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Segments       string          `gorm:"type:varchar(255);not null;default:''"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName 指定表名。
func (UserModel) TableName() string {
	return "users"
}

// ReservationModel 是商品预留的数据库模型。
// product_id 上的唯一索引是预留排他性的最后一道防线：
// 分布式锁失效时并发插入也会被数据库拒绝。
type ReservationModel struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	ProductID string    `gorm:"type:char(36);uniqueIndex;not null"`
	UserID    string    `gorm:"type:char(36);index;not null"`
	PromoID   string    `gorm:"type:char(36);index;not null"`
	StoreID   string    `gorm:"type:char(36);not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

// TableName 指定表名。
func (ReservationModel) TableName() string {
	return "reservations"
}
