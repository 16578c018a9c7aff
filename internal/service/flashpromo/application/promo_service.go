// internal/service/flashpromo/application/promo_service.go
package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"flashmart/internal/pkg/logger"
	"flashmart/internal/service/flashpromo/domain"
)

// activationConcurrency 限制批量激活时并发处理的促销数。
const activationConcurrency = 4

// PromoService 定义了闪购促销的所有业务用例。
type PromoService struct {
	promoRepo    domain.PromoRepository
	userRepo     domain.UserRepository
	notification *NotificationService
	tracer       trace.Tracer
}

// NewPromoService 创建促销服务实例。
func NewPromoService(
	promoRepo domain.PromoRepository,
	userRepo domain.UserRepository,
	notification *NotificationService,
	tracer trace.Tracer,
) *PromoService {
	return &PromoService{
		promoRepo:    promoRepo,
		userRepo:     userRepo,
		notification: notification,
		tracer:       tracer,
	}
}

// CreatePromo 创建一个未激活的促销。
// 创建入口要求分群非空、半径非负；实体层允许空分群（语义为全员），
// 两条入口刻意不收敛，见 domain.Promo 的类型注释。
func (s *PromoService) CreatePromo(ctx context.Context, req *CreatePromoRequest) (*domain.Promo, error) {
	ctx, span := s.tracer.Start(ctx, "service.CreatePromo")
	defer span.End()

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid product_id", domain.ErrValidation)
	}
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid store_id", domain.ErrValidation)
	}

	price, err := domain.NewPriceFromString(req.PromoPrice)
	if err != nil {
		return nil, err
	}

	var window *domain.TimeWindow
	if req.StartTime != "" || req.EndTime != "" {
		start, err := domain.ParseTimeOfDay(req.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := domain.ParseTimeOfDay(req.EndTime)
		if err != nil {
			return nil, err
		}
		w, err := domain.NewTimeWindow(start, end)
		if err != nil {
			return nil, err
		}
		window = &w
	}

	segments, err := domain.ParseSegments(req.UserSegments)
	if err != nil {
		return nil, err
	}
	if segments.IsEmpty() {
		return nil, fmt.Errorf("%w: at least one user segment is required", domain.ErrValidation)
	}

	radius := domain.DefaultMaxRadiusKm
	if req.MaxRadiusKm != nil {
		if *req.MaxRadiusKm < 0 {
			return nil, fmt.Errorf("%w: max_radius_km cannot be negative", domain.ErrValidation)
		}
		radius = *req.MaxRadiusKm
	}

	promo := domain.NewPromo(productID, storeID, price, window, segments, radius)

	span.SetAttributes(
		attribute.String("promo.id", promo.ID.String()),
		attribute.String("promo.product_id", req.ProductID),
		attribute.StringSlice("promo.segments", segments.Strings()),
	)

	if err := s.promoRepo.Save(ctx, promo); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to save promo: %w", err)
	}

	logger.Ctx(ctx).Printf("Flash promo %s created for product %s (inactive)", promo.ID, promo.ProductID)
	return promo, nil
}

// GetPromo 按 ID 读取促销。
func (s *PromoService) GetPromo(ctx context.Context, promoID uuid.UUID) (*domain.Promo, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetPromo")
	defer span.End()
	return s.promoRepo.GetByID(ctx, promoID)
}

// ActivatePromo 显式激活一个促销并发起通知扇出。
func (s *PromoService) ActivatePromo(ctx context.Context, promoID uuid.UUID) (*NotificationResult, error) {
	ctx, span := s.tracer.Start(ctx, "service.ActivatePromo")
	defer span.End()
	span.SetAttributes(attribute.String("promo.id", promoID.String()))

	promo, err := s.promoRepo.GetByID(ctx, promoID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	promo.Activate()
	if err := s.promoRepo.Save(ctx, promo); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to activate promo: %w", err)
	}

	result, err := s.notification.NotifyEligibleUsers(ctx, promo)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	logger.Ctx(ctx).Printf("Promo %s activated, notified %d/%d users",
		promoID, result.SuccessfulNotifications, result.TotalUsers)
	return result, nil
}

// DeactivatePromo 停用一个促销。
func (s *PromoService) DeactivatePromo(ctx context.Context, promoID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "service.DeactivatePromo")
	defer span.End()
	span.SetAttributes(attribute.String("promo.id", promoID.String()))

	promo, err := s.promoRepo.GetByID(ctx, promoID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	promo.Deactivate()
	return s.promoRepo.Save(ctx, promo)
}

// GetActivePromos 返回所有 is_active=true 的促销，不做时间窗口过滤。
// 这是面向多地域调用方的列表接口，"当前是否生效"取决于调用方本地时间，
// 由调用方对单个促销用 IsCurrentlyActive 判定。
func (s *PromoService) GetActivePromos(ctx context.Context) ([]*domain.Promo, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetActivePromos")
	defer span.End()

	promos, err := s.promoRepo.GetActivePromos(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("promo.active_count", len(promos)))
	return promos, nil
}

// ActivatePromosForTime 对给定时刻落在时间窗口内的已激活促销做通知扇出。
// 定时任务每分钟调用一次；不改促销的激活标志，同日重复触达由去重账本拦截。
func (s *PromoService) ActivatePromosForTime(ctx context.Context, at time.Time) (*ActivationResult, error) {
	ctx, span := s.tracer.Start(ctx, "service.ActivatePromosForTime")
	defer span.End()

	due, err := s.collectDuePromos(ctx, at)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	result := &ActivationResult{PromoDetails: make([]PromoActivationDetail, 0, len(due))}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(activationConcurrency)
	for _, promo := range due {
		promo := promo
		g.Go(func() error {
			detail, err := s.fanOutOne(gctx, promo)
			if err != nil {
				// 单个促销失败不阻断整批，记录后继续。
				logger.Ctx(gctx).Printf("Failed to fan out promo %s: %v", promo.ID, err)
				return nil
			}
			mu.Lock()
			result.ActivatedPromos++
			result.TotalNotificationsSent += detail.NotificationsSent
			result.PromoDetails = append(result.PromoDetails, *detail)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("activation.promos", result.ActivatedPromos),
		attribute.Int("activation.notifications", result.TotalNotificationsSent),
	)
	return result, nil
}

// collectDuePromos 取 is_active=true 且窗口覆盖给定时刻的促销。
func (s *PromoService) collectDuePromos(ctx context.Context, at time.Time) ([]*domain.Promo, error) {
	active, err := s.promoRepo.GetActivePromos(ctx)
	if err != nil {
		return nil, err
	}
	due := make([]*domain.Promo, 0, len(active))
	for _, p := range active {
		if p.IsCurrentlyActive(at) {
			due = append(due, p)
		}
	}
	return due, nil
}

func (s *PromoService) fanOutOne(ctx context.Context, promo *domain.Promo) (*PromoActivationDetail, error) {
	notif, err := s.notification.NotifyEligibleUsers(ctx, promo)
	if err != nil {
		return nil, err
	}

	detail := &PromoActivationDetail{
		PromoID:           promo.ID.String(),
		EligibleUsers:     notif.TotalUsers,
		NotificationsSent: notif.SuccessfulNotifications,
		Status:            "activated",
	}
	if notif.TotalUsers == 0 {
		detail.Status = "no_eligible_users"
	}
	return detail, nil
}

// GetPromoEligibility 判定单个用户对单个促销的资格，按固定顺序检查：
// 促销存在 → 促销当前生效 → 用户存在 → 分群命中。
// 任何一步不满足都返回携带原因的结果而不是错误。
func (s *PromoService) GetPromoEligibility(ctx context.Context, promoID, userID uuid.UUID) (*EligibilityResult, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetPromoEligibility")
	defer span.End()
	span.SetAttributes(
		attribute.String("promo.id", promoID.String()),
		attribute.String("user.id", userID.String()),
	)

	promo, err := s.promoRepo.GetByID(ctx, promoID)
	if err != nil {
		return &EligibilityResult{Eligible: false, Reason: "Promo not found"}, nil
	}
	if !promo.IsCurrentlyActive(time.Now()) {
		return &EligibilityResult{Eligible: false, Reason: "Promo not currently active"}, nil
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return &EligibilityResult{Eligible: false, Reason: "User not found"}, nil
	}
	if !promo.EligibleForSegments(user.Segments) {
		return &EligibilityResult{Eligible: false, Reason: "User segments not eligible"}, nil
	}
	return &EligibilityResult{Eligible: true, Reason: "User is eligible"}, nil
}

// GetPromoStatistics 返回促销的只读统计。促销不存在时返回携带 Error 字段的
// 空统计而不是错误，调用方（监控面板）可以优雅降级。
func (s *PromoService) GetPromoStatistics(ctx context.Context, promoID uuid.UUID) *PromoStatistics {
	ctx, span := s.tracer.Start(ctx, "service.GetPromoStatistics")
	defer span.End()
	span.SetAttributes(attribute.String("promo.id", promoID.String()))

	promo, err := s.promoRepo.GetByID(ctx, promoID)
	if err != nil {
		return &PromoStatistics{Error: "Promo not found"}
	}

	// 空分群的促销没有扇出目标（与通知扇出口径一致），统计为 0。
	var eligible []*domain.User
	if !promo.Segments.IsEmpty() {
		eligible, err = s.userRepo.GetBySegments(ctx, promo.Segments)
		if err != nil {
			span.RecordError(err)
			eligible = nil
		}
	}

	stats := &PromoStatistics{
		PromoID:            promo.ID.String(),
		IsActive:           promo.IsCurrentlyActive(time.Now()),
		EligibleUsersCount: len(eligible),
		UserSegments:       promo.Segments.Strings(),
		PromoPrice: &PriceView{
			Amount:   promo.PromoPrice.Amount().String(),
			Currency: domain.PriceCurrency,
		},
	}
	if promo.Window != nil {
		stats.TimeWindow = &TimeWindowView{
			StartTime: promo.Window.Start().String(),
			EndTime:   promo.Window.End().String(),
		}
	}
	return stats
}

// ToPromoResponse 将促销实体映射为对外表示。
func ToPromoResponse(p *domain.Promo) *PromoResponse {
	resp := &PromoResponse{
		ID:           p.ID.String(),
		ProductID:    p.ProductID.String(),
		StoreID:      p.StoreID.String(),
		PromoPrice:   p.PromoPrice.Amount().String(),
		UserSegments: p.Segments.Strings(),
		MaxRadiusKm:  p.MaxRadiusKm,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
	if p.Window != nil {
		resp.StartTime = p.Window.Start().String()
		resp.EndTime = p.Window.End().String()
	}
	return resp
}
