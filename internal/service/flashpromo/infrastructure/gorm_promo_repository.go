// internal/service/flashpromo/infrastructure/gorm_promo_repository.go
package infrastructure

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"flashmart/internal/service/flashpromo/domain"
)

// GormPromoRepository 是 PromoRepository 的 GORM 实现。
type GormPromoRepository struct {
	db *gorm.DB
}

// NewGormPromoRepository 创建一个新的 GORM 促销仓储实例。
func NewGormPromoRepository(db *gorm.DB) *GormPromoRepository {
	return &GormPromoRepository{db: db}
}

// Save 插入或整行覆盖促销。
func (r *GormPromoRepository) Save(ctx context.Context, promo *domain.Promo) error {
	model := FromDomainPromo(promo)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
}

// GetByID 按 ID 查找促销。
func (r *GormPromoRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Promo, error) {
	var model PromoModel
	err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPromoNotFound
		}
		return nil, err
	}
	return ToDomainPromo(&model), nil
}

// GetActivePromos 返回所有 is_active=true 的促销。时间窗口过滤由调用方完成。
func (r *GormPromoRepository) GetActivePromos(ctx context.Context) ([]*domain.Promo, error) {
	var models []PromoModel
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainPromos(models), nil
}

// GetByProduct 返回商品的全部促销。
func (r *GormPromoRepository) GetByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Promo, error) {
	var models []PromoModel
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID.String()).Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainPromos(models), nil
}

// GetByStore 返回店铺的全部促销。
func (r *GormPromoRepository) GetByStore(ctx context.Context, storeID uuid.UUID) ([]*domain.Promo, error) {
	var models []PromoModel
	if err := r.db.WithContext(ctx).Where("store_id = ?", storeID.String()).Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainPromos(models), nil
}

// GetBySegments 返回定向到任一给定分群的促销。
// 分群列是逗号分隔字符串，用 LIKE 匹配；分群枚举值之间不存在前缀包含关系。
func (r *GormPromoRepository) GetBySegments(ctx context.Context, segments domain.SegmentSet) ([]*domain.Promo, error) {
	if segments.IsEmpty() {
		return nil, nil
	}
	query := r.db.WithContext(ctx)
	conds := r.db.Session(&gorm.Session{NewDB: true})
	for _, seg := range segments.Values() {
		conds = conds.Or("user_segments LIKE ?", "%"+string(seg)+"%")
	}
	var models []PromoModel
	if err := query.Where(conds).Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainPromos(models), nil
}

// Delete 删除促销。
func (r *GormPromoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&PromoModel{}).Error
}

// Exists 判断促销是否存在。
func (r *GormPromoRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&PromoModel{}).
		Where("id = ?", id.String()).Count(&count).Error
	return count > 0, err
}

func toDomainPromos(models []PromoModel) []*domain.Promo {
	out := make([]*domain.Promo, 0, len(models))
	for i := range models {
		out = append(out, ToDomainPromo(&models[i]))
	}
	return out
}
