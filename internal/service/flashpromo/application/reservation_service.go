// internal/service/flashpromo/application/reservation_service.go
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"flashmart/internal/pkg/logger"
	"flashmart/internal/service/flashpromo/domain"
	"flashmart/internal/service/flashpromo/domain/port"
)

// reservationLockTTL 是预留创建临界区的锁 TTL。
// 只需覆盖一次存在性检查加插入的耗时，远小于预留本身的时长。
const reservationLockTTL = 5 * time.Second

// ReservationService 定义了商品预留与购买完成的业务用例。
type ReservationService struct {
	reservationRepo domain.ReservationRepository
	promoRepo       domain.PromoRepository
	userRepo        domain.UserRepository
	locker          port.ProductLocker
	duration        time.Duration
	tracer          trace.Tracer
}

// NewReservationService 创建预留服务。duration<=0 时使用领域默认时长。
func NewReservationService(
	reservationRepo domain.ReservationRepository,
	promoRepo domain.PromoRepository,
	userRepo domain.UserRepository,
	locker port.ProductLocker,
	duration time.Duration,
	tracer trace.Tracer,
) *ReservationService {
	if duration <= 0 {
		duration = domain.DefaultReservationDuration
	}
	return &ReservationService{
		reservationRepo: reservationRepo,
		promoRepo:       promoRepo,
		userRepo:        userRepo,
		locker:          locker,
		duration:        duration,
		tracer:          tracer,
	}
}

// ReserveProduct 为用户在促销下预留商品。
//
// 返回 (nil, nil) 表示商品已被他人预留（业务冲突，不是错误），
// 接口层将其映射为 409。存在性检查和插入在商品粒度分布式锁内执行，
// 两个并发请求不可能同时通过检查。
//
// duration 是调用方指定的预留时长，<=0 时使用服务默认值。
func (s *ReservationService) ReserveProduct(ctx context.Context, productID, userID, promoID uuid.UUID, duration time.Duration) (*domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "service.ReserveProduct")
	defer span.End()
	span.SetAttributes(
		attribute.String("product.id", productID.String()),
		attribute.String("user.id", userID.String()),
		attribute.String("promo.id", promoID.String()),
	)

	promo, err := s.promoRepo.GetByID(ctx, promoID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !promo.IsCurrentlyActive(time.Now()) {
		return nil, domain.ErrPromoNotActive
	}

	release, acquired, err := s.locker.Acquire(ctx, productID.String(), reservationLockTTL)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to acquire product lock: %w", err)
	}
	if !acquired {
		// 锁被占说明有并发预留正在进行，等价于商品已被预留。
		span.AddEvent("Product lock held by another reservation")
		return nil, nil
	}
	defer release()

	reserved, err := s.reservationRepo.ExistsActiveForProduct(ctx, productID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to check existing reservations: %w", err)
	}
	if reserved {
		span.AddEvent("Product already reserved")
		return nil, nil
	}

	// 清掉该商品上已过期但尚未被清扫的预留。商品唯一约束下，
	// 过期行不清掉会把新预留的插入挡成唯一键冲突。
	if err := s.reservationRepo.DeleteExpiredForProduct(ctx, productID); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to purge expired reservation: %w", err)
	}

	if duration <= 0 {
		duration = s.duration
	}
	reservation := domain.NewReservation(productID, userID, promoID, promo.StoreID, duration, time.Now())
	if err := s.reservationRepo.Save(ctx, reservation); err != nil {
		// 唯一约束冲突是锁失效时的兜底防线，同样按业务冲突处理。
		if errors.Is(err, domain.ErrAlreadyReserved) {
			span.AddEvent("Product already reserved")
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to save reservation: %w", err)
	}

	logger.Ctx(ctx).Printf("Product %s reserved by user %s until %s",
		productID, userID, reservation.ExpiresAt.Format(time.RFC3339))
	return reservation, nil
}

// GetReservation 按 ID 读取预留。
func (s *ReservationService) GetReservation(ctx context.Context, reservationID uuid.UUID) (*domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetReservation")
	defer span.End()
	return s.reservationRepo.GetByID(ctx, reservationID)
}

// CompletePurchase 完成预留购买，按固定顺序校验：
// 预留存在 → 持有人匹配 → 未过期 → 促销存在且当前生效。
// 成功后记录用户购买统计并删除预留，返回成交价。
func (s *ReservationService) CompletePurchase(ctx context.Context, reservationID, userID uuid.UUID) (*domain.Price, error) {
	ctx, span := s.tracer.Start(ctx, "service.CompletePurchase")
	defer span.End()
	span.SetAttributes(
		attribute.String("reservation.id", reservationID.String()),
		attribute.String("user.id", userID.String()),
	)

	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if reservation.UserID != userID {
		return nil, domain.ErrNotReservationOwner
	}
	if reservation.IsExpired(time.Now()) {
		return nil, domain.ErrReservationExpired
	}

	promo, err := s.promoRepo.GetByID(ctx, reservation.PromoID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !promo.IsCurrentlyActive(time.Now()) {
		return nil, domain.ErrPromoNotActive
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	user.RecordPurchase(promo.PromoPrice, time.Now())
	if err := s.userRepo.Save(ctx, user); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to update user purchase stats: %w", err)
	}

	if err := s.reservationRepo.Delete(ctx, reservation.ID); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to delete reservation: %w", err)
	}

	price := promo.PromoPrice
	logger.Ctx(ctx).Printf("Purchase completed: user %s bought product %s at %s",
		userID, reservation.ProductID, price)
	span.AddEvent("Purchase completed")
	return &price, nil
}

// GetPurchasePrice 返回预留当前可成交的价格。预留无效（不存在、已过期、
// 促销失效）时返回 (nil, nil)，这是诊断接口，不报错。
func (s *ReservationService) GetPurchasePrice(ctx context.Context, reservationID uuid.UUID) (*domain.Price, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetPurchasePrice")
	defer span.End()

	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, nil
	}
	if reservation.IsExpired(time.Now()) {
		return nil, nil
	}
	promo, err := s.promoRepo.GetByID(ctx, reservation.PromoID)
	if err != nil {
		return nil, nil
	}
	if !promo.IsCurrentlyActive(time.Now()) {
		return nil, nil
	}
	price := promo.PromoPrice
	return &price, nil
}

// IsProductReserved 判断商品当前是否被预留。
func (s *ReservationService) IsProductReserved(ctx context.Context, productID uuid.UUID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "service.IsProductReserved")
	defer span.End()
	return s.reservationRepo.ExistsActiveForProduct(ctx, productID)
}

// GetExpiredReservations 返回已过期未清理的预留，供诊断。
func (s *ReservationService) GetExpiredReservations(ctx context.Context) ([]*domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetExpiredReservations")
	defer span.End()
	return s.reservationRepo.GetExpired(ctx)
}

// SweepExpiredReservations 批量删除已过期预留，返回删除条数。
// 清扫器定时调用，也暴露为运维接口。
func (s *ReservationService) SweepExpiredReservations(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "service.SweepExpiredReservations")
	defer span.End()

	released, err := s.reservationRepo.DeleteExpired(ctx)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to sweep expired reservations: %w", err)
	}
	if released > 0 {
		logger.Ctx(ctx).Printf("Released %d expired reservations", released)
	}
	span.SetAttributes(attribute.Int64("reservation.released", released))
	return released, nil
}

// ToReservationResponse 将预留实体映射为对外表示。
func ToReservationResponse(r *domain.Reservation) *ReservationResponse {
	now := time.Now()
	return &ReservationResponse{
		ID:                   r.ID.String(),
		ProductID:            r.ProductID.String(),
		UserID:               r.UserID.String(),
		PromoID:              r.PromoID.String(),
		StoreID:              r.StoreID.String(),
		CreatedAt:            r.CreatedAt.Format(time.RFC3339),
		ExpiresAt:            r.ExpiresAt.Format(time.RFC3339),
		TimeRemainingSeconds: int(r.TimeRemaining(now).Seconds()),
		IsExpired:            r.IsExpired(now),
	}
}
