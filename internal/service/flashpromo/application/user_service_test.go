package application

import (
	"context"
	"errors"
	"testing"

	"flashmart/internal/service/flashpromo/domain"
)

func TestCreateUser(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewUserService(userRepo, testTracer)
	ctx := context.Background()

	lat, lng := 40.7128, -74.0060
	user, err := svc.CreateUser(ctx, &CreateUserRequest{
		Email:     "  Alice@Example.COM ",
		Name:      "Alice",
		Latitude:  &lat,
		Longitude: &lng,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want normalized lowercase", user.Email)
	}
	if user.Location == nil {
		t.Error("location should be set from coordinates")
	}

	// 邮箱唯一，大小写不敏感
	if _, err := svc.CreateUser(ctx, &CreateUserRequest{Email: "ALICE@example.com", Name: "Dup"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("duplicate email should fail validation, got %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), testTracer)
	ctx := context.Background()

	cases := []struct {
		name string
		req  *CreateUserRequest
	}{
		{"empty email", &CreateUserRequest{Email: "", Name: "A"}},
		{"email without at", &CreateUserRequest{Email: "not-an-email", Name: "A"}},
		{"empty name", &CreateUserRequest{Email: "a@example.com", Name: "  "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateUser(ctx, tc.req); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}

	// 坐标越界
	lat, lng := 91.0, 0.0
	if _, err := svc.CreateUser(ctx, &CreateUserRequest{Email: "b@example.com", Name: "B", Latitude: &lat, Longitude: &lng}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("out-of-range latitude should fail validation, got %v", err)
	}
}

func TestUpdateUserLocation(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewUserService(userRepo, testTracer)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, &CreateUserRequest{Email: "a@example.com", Name: "A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.UpdateUserLocation(ctx, user.ID, 40.7128, -74.0060)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Location == nil {
		t.Fatal("location was not set")
	}

	saved, _ := userRepo.GetByID(ctx, user.ID)
	if saved.Location == nil {
		t.Error("location was not persisted")
	}
}

func TestToUserResponse(t *testing.T) {
	loc, _ := domain.NewLocationFromFloat(40.7128, -74.0060)
	user := domain.NewUser("a@example.com", "A", &loc)
	user.AddSegment(domain.SegmentVIPCustomers)

	resp := ToUserResponse(user)
	if resp.TotalSpent != "0.00" {
		t.Errorf("TotalSpent = %q, want fixed two decimals", resp.TotalSpent)
	}
	if resp.Latitude == nil || resp.Longitude == nil {
		t.Error("coordinates missing from response")
	}
	if len(resp.Segments) != 1 || resp.Segments[0] != "vip_customers" {
		t.Errorf("Segments = %v", resp.Segments)
	}
}
