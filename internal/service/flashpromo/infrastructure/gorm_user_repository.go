// internal/service/flashpromo/infrastructure/gorm_user_repository.go
package infrastructure

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"flashmart/internal/service/flashpromo/domain"
)

// GormUserRepository 是 UserRepository 的 GORM 实现。
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository 创建一个新的 GORM 用户仓储实例。
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Save 插入或整行覆盖用户。
func (r *GormUserRepository) Save(ctx context.Context, user *domain.User) error {
	model := FromDomainUser(user)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
}

// GetByID 按 ID 查找用户。
func (r *GormUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return ToDomainUser(&model), nil
}

// GetAll 返回全部用户。
func (r *GormUserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	var models []UserModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainUsers(models), nil
}

// GetByEmail 按邮箱查找用户。
func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return ToDomainUser(&model), nil
}

// GetBySegments 返回带有任一给定分群标签的用户。
func (r *GormUserRepository) GetBySegments(ctx context.Context, segments domain.SegmentSet) ([]*domain.User, error) {
	if segments.IsEmpty() {
		return nil, nil
	}
	query := r.db.WithContext(ctx)
	conds := r.db.Session(&gorm.Session{NewDB: true})
	for _, seg := range segments.Values() {
		conds = conds.Or("segments LIKE ?", "%"+string(seg)+"%")
	}
	var models []UserModel
	if err := query.Where(conds).Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainUsers(models), nil
}

// GetByLocation 返回给定点半径内的用户。
// SQL 层用包围盒粗筛，内存中再用精确测地距离确认。
func (r *GormUserRepository) GetByLocation(ctx context.Context, center domain.Location, radiusKm float64) ([]*domain.User, error) {
	models, err := r.boundingBoxQuery(ctx, r.db.WithContext(ctx), center, radiusKm)
	if err != nil {
		return nil, err
	}
	return filterWithinRadius(models, center, radiusKm), nil
}

// GetBySegmentsAndLocation 组合分群与半径条件。
func (r *GormUserRepository) GetBySegmentsAndLocation(ctx context.Context, segments domain.SegmentSet, center domain.Location, radiusKm float64) ([]*domain.User, error) {
	if segments.IsEmpty() {
		return nil, nil
	}
	conds := r.db.Session(&gorm.Session{NewDB: true})
	for _, seg := range segments.Values() {
		conds = conds.Or("segments LIKE ?", "%"+string(seg)+"%")
	}
	models, err := r.boundingBoxQuery(ctx, r.db.WithContext(ctx).Where(conds), center, radiusKm)
	if err != nil {
		return nil, err
	}
	return filterWithinRadius(models, center, radiusKm), nil
}

// Delete 删除用户。
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&UserModel{}).Error
}

// Exists 判断用户是否存在。
func (r *GormUserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", id.String()).Count(&count).Error
	return count > 0, err
}

// boundingBoxQuery 给查询追加坐标包围盒条件。
// 经度跨度按纬度余弦放大，高纬度地区包围盒更宽，保证不漏。
func (r *GormUserRepository) boundingBoxQuery(ctx context.Context, query *gorm.DB, center domain.Location, radiusKm float64) ([]UserModel, error) {
	const kmPerDegreeLat = 111.0

	latDelta := radiusKm / kmPerDegreeLat
	centerLat, _ := center.Latitude().Float64()
	cosLat := math.Cos(centerLat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01 // 极地附近退化为近似全经度扫描
	}
	lngDelta := radiusKm / (kmPerDegreeLat * cosLat)

	minLat := center.Latitude().Sub(decimal.NewFromFloat(latDelta))
	maxLat := center.Latitude().Add(decimal.NewFromFloat(latDelta))
	minLng := center.Longitude().Sub(decimal.NewFromFloat(lngDelta))
	maxLng := center.Longitude().Add(decimal.NewFromFloat(lngDelta))

	var models []UserModel
	err := query.
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("latitude BETWEEN ? AND ?", minLat, maxLat).
		Where("longitude BETWEEN ? AND ?", minLng, maxLng).
		Find(&models).Error
	return models, err
}

func filterWithinRadius(models []UserModel, center domain.Location, radiusKm float64) []*domain.User {
	out := make([]*domain.User, 0, len(models))
	for i := range models {
		user := ToDomainUser(&models[i])
		if user.Location == nil {
			continue
		}
		if center.WithinRadiusPrecise(*user.Location, radiusKm) {
			out = append(out, user)
		}
	}
	return out
}

func toDomainUsers(models []UserModel) []*domain.User {
	out := make([]*domain.User, 0, len(models))
	for i := range models {
		out = append(out, ToDomainUser(&models[i]))
	}
	return out
}
