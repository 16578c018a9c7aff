// internal/service/flashpromo/infrastructure/mapper.go
package infrastructure

import (
	"strings"

	"github.com/google/uuid"

	"flashmart/internal/service/flashpromo/domain"
)

// noWindow 是 PromoModel 中"无时间窗口"的哨兵值。
const noWindow = -1

// ToDomainPromo 将数据库模型转换为领域模型。
func ToDomainPromo(model *PromoModel) *domain.Promo {
	if model == nil {
		return nil
	}
	price, _ := domain.NewPrice(model.PromoPrice)

	var window *domain.TimeWindow
	if model.StartSeconds != noWindow && model.EndSeconds != noWindow {
		if w, err := domain.NewTimeWindow(
			domain.TimeOfDay(model.StartSeconds),
			domain.TimeOfDay(model.EndSeconds),
		); err == nil {
			window = &w
		}
	}

	return &domain.Promo{
		ID:          uuid.MustParse(model.ID),
		ProductID:   uuid.MustParse(model.ProductID),
		StoreID:     uuid.MustParse(model.StoreID),
		PromoPrice:  price,
		Window:      window,
		Segments:    parseSegmentsColumn(model.UserSegments),
		MaxRadiusKm: model.MaxRadiusKm,
		IsActive:    model.IsActive,
		CreatedAt:   model.CreatedAt,
	}
}

// FromDomainPromo 将领域模型转换为数据库模型。
func FromDomainPromo(promo *domain.Promo) *PromoModel {
	if promo == nil {
		return nil
	}
	model := &PromoModel{
		ID:           promo.ID.String(),
		ProductID:    promo.ProductID.String(),
		StoreID:      promo.StoreID.String(),
		PromoPrice:   promo.PromoPrice.Amount(),
		StartSeconds: noWindow,
		EndSeconds:   noWindow,
		UserSegments: strings.Join(promo.Segments.Strings(), ","),
		MaxRadiusKm:  promo.MaxRadiusKm,
		IsActive:     promo.IsActive,
		CreatedAt:    promo.CreatedAt,
	}
	if promo.Window != nil {
		model.StartSeconds = int(promo.Window.Start())
		model.EndSeconds = int(promo.Window.End())
	}
	return model
}

// ToDomainUser 将数据库模型转换为领域模型。
func ToDomainUser(model *UserModel) *domain.User {
	if model == nil {
		return nil
	}
	var location *domain.Location
	if model.Latitude != nil && model.Longitude != nil {
		if loc, err := domain.NewLocation(*model.Latitude, *model.Longitude); err == nil {
			location = &loc
		}
	}
	return &domain.User{
		ID:             uuid.MustParse(model.ID),
		Email:          model.Email,
		Name:           model.Name,
		Location:       location,
		CreatedAt:      model.CreatedAt,
		LastPurchaseAt: model.LastPurchaseAt,
		TotalPurchases: model.TotalPurchases,
		TotalSpent:     model.TotalSpent,
		Segments:       parseSegmentsColumn(model.Segments),
	}
}

// FromDomainUser 将领域模型转换为数据库模型。
func FromDomainUser(user *domain.User) *UserModel {
	if user == nil {
		return nil
	}
	model := &UserModel{
		ID:             user.ID.String(),
		Email:          user.Email,
		Name:           user.Name,
		LastPurchaseAt: user.LastPurchaseAt,
		TotalPurchases: user.TotalPurchases,
		TotalSpent:     user.TotalSpent,
		Segments:       strings.Join(user.Segments.Strings(), ","),
		CreatedAt:      user.CreatedAt,
	}
	if user.Location != nil {
		lat := user.Location.Latitude()
		lng := user.Location.Longitude()
		model.Latitude = &lat
		model.Longitude = &lng
	}
	return model
}

// ToDomainReservation 将数据库模型转换为领域模型。
func ToDomainReservation(model *ReservationModel) *domain.Reservation {
	if model == nil {
		return nil
	}
	return &domain.Reservation{
		ID:        uuid.MustParse(model.ID),
		ProductID: uuid.MustParse(model.ProductID),
		UserID:    uuid.MustParse(model.UserID),
		PromoID:   uuid.MustParse(model.PromoID),
		StoreID:   uuid.MustParse(model.StoreID),
		CreatedAt: model.CreatedAt,
		ExpiresAt: model.ExpiresAt,
	}
}

// FromDomainReservation 将领域模型转换为数据库模型。
func FromDomainReservation(r *domain.Reservation) *ReservationModel {
	if r == nil {
		return nil
	}
	return &ReservationModel{
		ID:        r.ID.String(),
		ProductID: r.ProductID.String(),
		UserID:    r.UserID.String(),
		PromoID:   r.PromoID.String(),
		StoreID:   r.StoreID.String(),
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
	}
}

// parseSegmentsColumn 解析逗号分隔的分群列。非法值跳过而不是报错，
// 避免一条脏数据拖垮整个列表查询。
func parseSegmentsColumn(raw string) domain.SegmentSet {
	set := domain.NewSegmentSet()
	if raw == "" {
		return set
	}
	for _, part := range strings.Split(raw, ",") {
		if seg, err := domain.ParseSegment(strings.TrimSpace(part)); err == nil {
			set.Add(seg)
		}
	}
	return set
}
