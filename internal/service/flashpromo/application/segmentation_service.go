// internal/service/flashpromo/application/segmentation_service.go
package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"flashmart/internal/pkg/logger"
	"flashmart/internal/service/flashpromo/domain"
	"flashmart/internal/service/flashpromo/domain/port"
)

// SegmentationThresholds 是行为分群的判定阈值。
type SegmentationThresholds struct {
	NewUserMaxAgeDays    int
	FrequentMinPurchases int
	FrequentMaxDaysSince int
	VIPMinSpent          decimal.Decimal
}

// DefaultThresholds 返回领域默认阈值。
func DefaultThresholds() SegmentationThresholds {
	return SegmentationThresholds{
		NewUserMaxAgeDays:    domain.DefaultNewUserMaxAgeDays,
		FrequentMinPurchases: domain.DefaultFrequentMinPurchases,
		FrequentMaxDaysSince: domain.DefaultFrequentMaxDaysSince,
		VIPMinSpent:          decimal.NewFromFloat(domain.DefaultVIPMinSpent),
	}
}

// CustomSegmentRule 是一条可配置的自定义分群规则：
// 表达式命中时给用户打上目标分群标签。表达式由规则引擎（CEL）求值。
type CustomSegmentRule struct {
	Segment    domain.Segment
	Expression string
}

// SegmentationService 负责用户行为分群的判定、刷新与统计。
//
// 分群非互斥：一个用户可以同时命中多个分群。behavior_based 是全量分群，
// 批量分桶时每个用户都在其中，供不做精细定向的促销圈定全部用户。
type SegmentationService struct {
	userRepo    domain.UserRepository
	thresholds  SegmentationThresholds
	ruleEngine  port.RuleEngine
	customRules []CustomSegmentRule
	tracer      trace.Tracer
}

// NewSegmentationService 创建分群服务。ruleEngine 可为 nil（不启用自定义规则）。
func NewSegmentationService(
	userRepo domain.UserRepository,
	thresholds SegmentationThresholds,
	ruleEngine port.RuleEngine,
	customRules []CustomSegmentRule,
	tracer trace.Tracer,
) *SegmentationService {
	return &SegmentationService{
		userRepo:    userRepo,
		thresholds:  thresholds,
		ruleEngine:  ruleEngine,
		customRules: customRules,
		tracer:      tracer,
	}
}

// ClassifyUser 计算用户当前命中的分群集合，不落库。
// 未命中任何判定的用户得到空集合。
func (s *SegmentationService) ClassifyUser(user *domain.User, now time.Time) domain.SegmentSet {
	segments := s.qualifyingSegments(user, now)
	if user.Location != nil {
		segments.Add(domain.SegmentLocationBased)
	}
	return segments
}

// qualifyingSegments 返回用户行为判定命中的分群：
// 新客/高频/VIP 三个内建判定，加上自定义规则命中的标签。
func (s *SegmentationService) qualifyingSegments(user *domain.User, now time.Time) domain.SegmentSet {
	segments := domain.NewSegmentSet()

	if user.IsNewUser(now, s.thresholds.NewUserMaxAgeDays) {
		segments.Add(domain.SegmentNewUsers)
	}
	if user.IsFrequentBuyer(now, s.thresholds.FrequentMinPurchases, s.thresholds.FrequentMaxDaysSince) {
		segments.Add(domain.SegmentFrequentBuyers)
	}
	if user.IsVIPCustomer(s.thresholds.VIPMinSpent) {
		segments.Add(domain.SegmentVIPCustomers)
	}

	s.applyCustomRules(user, now, segments)
	return segments
}

func (s *SegmentationService) applyCustomRules(user *domain.User, now time.Time, segments domain.SegmentSet) {
	if s.ruleEngine == nil || len(s.customRules) == 0 {
		return
	}
	fact := userFact(user, now)
	for _, rule := range s.customRules {
		matched, err := s.ruleEngine.Evaluate(rule.Expression, fact)
		if err != nil {
			// 坏规则跳过，不影响内建分群。
			logger.Logger().Printf("Custom segment rule for %s failed: %v", rule.Segment, err)
			continue
		}
		if matched {
			segments.Add(rule.Segment)
		}
	}
}

// userFact 把用户实体摊平成规则引擎可见的事实快照。
func userFact(user *domain.User, now time.Time) map[string]interface{} {
	totalSpent, _ := user.TotalSpent.Float64()
	fact := map[string]interface{}{
		"total_purchases": user.TotalPurchases,
		"total_spent":     totalSpent,
		"age_days":        int(now.Sub(user.CreatedAt).Hours() / 24),
		"has_location":    user.Location != nil,
	}
	if user.LastPurchaseAt != nil {
		fact["days_since_purchase"] = int(now.Sub(*user.LastPurchaseAt).Hours() / 24)
	} else {
		fact["days_since_purchase"] = -1
	}
	return fact
}

// UpdateUserSegments 重算并持久化单个用户的分群标签。
// 只落库行为判定命中的标签；behavior_based 与 location_based 是查询期分群，
// 不作为持久标签。只增不减：历史标签保留，促销定向不会因用户行为衰减而突然失效。
func (s *SegmentationService) UpdateUserSegments(ctx context.Context, userID uuid.UUID) (domain.SegmentSet, error) {
	ctx, span := s.tracer.Start(ctx, "service.UpdateUserSegments")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	for seg := range s.qualifyingSegments(user, time.Now()) {
		user.AddSegment(seg)
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.StringSlice("user.segments", user.Segments.Strings()))
	return user.Segments, nil
}

// SegmentUsersByBehavior 把一批用户按行为分到各个分群桶。
// 桶之间不互斥，同一用户可出现在多个桶里；behavior_based 桶
// 无条件收录每个用户，是面向全量受众的桶。
func (s *SegmentationService) SegmentUsersByBehavior(users []*domain.User, now time.Time) map[domain.Segment][]*domain.User {
	buckets := make(map[domain.Segment][]*domain.User)
	for _, user := range users {
		for seg := range s.ClassifyUser(user, now) {
			buckets[seg] = append(buckets[seg], user)
		}
		buckets[domain.SegmentBehaviorBased] = append(buckets[domain.SegmentBehaviorBased], user)
	}
	return buckets
}

// GetSegmentStatistics 统计全量用户的分群分布。
func (s *SegmentationService) GetSegmentStatistics(ctx context.Context) (*SegmentStatistics, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetSegmentStatistics")
	defer span.End()

	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := time.Now()
	stats := &SegmentStatistics{TotalUsers: len(users)}
	for _, user := range users {
		if user.IsNewUser(now, s.thresholds.NewUserMaxAgeDays) {
			stats.NewUsers++
		}
		if user.IsFrequentBuyer(now, s.thresholds.FrequentMinPurchases, s.thresholds.FrequentMaxDaysSince) {
			stats.FrequentBuyers++
		}
		if user.IsVIPCustomer(s.thresholds.VIPMinSpent) {
			stats.VIPCustomers++
		}
		if user.Location != nil {
			stats.UsersWithLocation++
		}
	}

	span.SetAttributes(attribute.Int("segmentation.total_users", stats.TotalUsers))
	return stats, nil
}
