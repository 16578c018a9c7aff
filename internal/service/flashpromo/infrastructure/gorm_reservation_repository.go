// internal/service/flashpromo/infrastructure/gorm_reservation_repository.go
package infrastructure

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"flashmart/internal/service/flashpromo/domain"
)

// GormReservationRepository 是 ReservationRepository 的 GORM 实现。
// product_id 上的唯一索引保证同一商品至多一条预留记录；
// 插入新预留前要先用 DeleteExpiredForProduct 清掉过期行腾出索引位。
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository 创建一个新的 GORM 预留仓储实例。
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// Save 插入预留。预留不可变更，唯一索引冲突翻译为 ErrAlreadyReserved。
func (r *GormReservationRepository) Save(ctx context.Context, reservation *domain.Reservation) error {
	err := r.db.WithContext(ctx).Create(FromDomainReservation(reservation)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrAlreadyReserved
	}
	return err
}

// GetByID 按 ID 查找预留。
func (r *GormReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	var model ReservationModel
	err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, err
	}
	return ToDomainReservation(&model), nil
}

// GetByProduct 返回商品的预留记录。
func (r *GormReservationRepository) GetByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Reservation, error) {
	var models []ReservationModel
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID.String()).Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainReservations(models), nil
}

// GetByUser 返回用户的预留记录。
func (r *GormReservationRepository) GetByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Reservation, error) {
	var models []ReservationModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID.String()).Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainReservations(models), nil
}

// GetActive 返回所有未过期的预留。
func (r *GormReservationRepository) GetActive(ctx context.Context) ([]*domain.Reservation, error) {
	var models []ReservationModel
	if err := r.db.WithContext(ctx).Where("expires_at > ?", time.Now()).Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainReservations(models), nil
}

// GetExpired 返回所有已过期的预留。
func (r *GormReservationRepository) GetExpired(ctx context.Context) ([]*domain.Reservation, error) {
	var models []ReservationModel
	if err := r.db.WithContext(ctx).Where("expires_at <= ?", time.Now()).Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainReservations(models), nil
}

// Delete 删除预留。
func (r *GormReservationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&ReservationModel{}).Error
}

// DeleteExpired 批量删除已过期预留，返回删除条数。
func (r *GormReservationRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&ReservationModel{})
	return result.RowsAffected, result.Error
}

// DeleteExpiredForProduct 删除商品上已过期的预留，为新预留腾出唯一索引位。
func (r *GormReservationRepository) DeleteExpiredForProduct(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("product_id = ? AND expires_at <= ?", productID.String(), time.Now()).
		Delete(&ReservationModel{}).Error
}

// ExistsActiveForProduct 判断商品是否存在未过期预留。
func (r *GormReservationRepository) ExistsActiveForProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ReservationModel{}).
		Where("product_id = ? AND expires_at > ?", productID.String(), time.Now()).
		Count(&count).Error
	return count > 0, err
}

func toDomainReservations(models []ReservationModel) []*domain.Reservation {
	out := make([]*domain.Reservation, 0, len(models))
	for i := range models {
		out = append(out, ToDomainReservation(&models[i]))
	}
	return out
}
