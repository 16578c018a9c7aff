// internal/service/flashpromo/application/user_service.go
package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"flashmart/internal/pkg/logger"
	"flashmart/internal/service/flashpromo/domain"
)

// UserService 定义了用户管理用例。
type UserService struct {
	userRepo domain.UserRepository
	tracer   trace.Tracer
}

// NewUserService 创建用户服务实例。
func NewUserService(userRepo domain.UserRepository, tracer trace.Tracer) *UserService {
	return &UserService{userRepo: userRepo, tracer: tracer}
}

// CreateUser 创建用户。邮箱唯一，重复时返回 ErrValidation。
func (s *UserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "service.CreateUser")
	defer span.End()

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: email %s already registered", domain.ErrValidation, email)
	}

	var location *domain.Location
	if req.Latitude != nil && req.Longitude != nil {
		loc, err := domain.NewLocationFromFloat(*req.Latitude, *req.Longitude)
		if err != nil {
			return nil, err
		}
		location = &loc
	}

	user := domain.NewUser(email, strings.TrimSpace(req.Name), location)
	span.SetAttributes(attribute.String("user.id", user.ID.String()))

	if err := s.userRepo.Save(ctx, user); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	logger.Ctx(ctx).Printf("User %s registered with email %s", user.ID, email)
	return user, nil
}

// GetUser 按 ID 读取用户。
func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetUser")
	defer span.End()
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateUserLocation 更新用户位置。
func (s *UserService) UpdateUserLocation(ctx context.Context, userID uuid.UUID, latitude, longitude float64) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "service.UpdateUserLocation")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	loc, err := domain.NewLocationFromFloat(latitude, longitude)
	if err != nil {
		return nil, err
	}
	user.UpdateLocation(loc)
	if err := s.userRepo.Save(ctx, user); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return user, nil
}

// ToUserResponse 将用户实体映射为对外表示。
func ToUserResponse(u *domain.User) *UserResponse {
	resp := &UserResponse{
		ID:             u.ID.String(),
		Email:          u.Email,
		Name:           u.Name,
		TotalPurchases: u.TotalPurchases,
		TotalSpent:     u.TotalSpent.StringFixed(2),
		Segments:       u.Segments.Strings(),
		CreatedAt:      u.CreatedAt.Format(time.RFC3339),
	}
	if u.Location != nil {
		lat := u.Location.Latitude().String()
		lng := u.Location.Longitude().String()
		resp.Latitude = &lat
		resp.Longitude = &lng
	}
	return resp
}
