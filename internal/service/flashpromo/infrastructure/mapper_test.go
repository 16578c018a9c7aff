package infrastructure

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"flashmart/internal/service/flashpromo/domain"
)

func TestPromoMappingRoundTrip(t *testing.T) {
	price, _ := domain.NewPriceFromString("49.99")
	start, _ := domain.ParseTimeOfDay("17:00")
	end, _ := domain.ParseTimeOfDay("19:00")
	w, _ := domain.NewTimeWindow(start, end)

	promo := domain.NewPromo(uuid.New(), uuid.New(), price, &w,
		domain.NewSegmentSet(domain.SegmentVIPCustomers, domain.SegmentNewUsers), 5)
	promo.Activate()

	got := ToDomainPromo(FromDomainPromo(promo))

	if got.ID != promo.ID || got.ProductID != promo.ProductID || got.StoreID != promo.StoreID {
		t.Error("identifiers did not survive the round trip")
	}
	if !got.PromoPrice.Amount().Equal(promo.PromoPrice.Amount()) {
		t.Errorf("price = %s, want %s", got.PromoPrice, promo.PromoPrice)
	}
	if got.Window == nil || got.Window.Start() != start || got.Window.End() != end {
		t.Errorf("window = %v", got.Window)
	}
	if !got.Segments.Has(domain.SegmentVIPCustomers) || !got.Segments.Has(domain.SegmentNewUsers) {
		t.Errorf("segments = %v", got.Segments.Strings())
	}
	if !got.IsActive || got.MaxRadiusKm != 5 {
		t.Errorf("IsActive=%v MaxRadiusKm=%f", got.IsActive, got.MaxRadiusKm)
	}
}

func TestPromoMappingNoWindow(t *testing.T) {
	price, _ := domain.NewPriceFromString("10")
	promo := domain.NewPromo(uuid.New(), uuid.New(), price, nil,
		domain.NewSegmentSet(domain.SegmentVIPCustomers), 2)

	model := FromDomainPromo(promo)
	if model.StartSeconds != noWindow || model.EndSeconds != noWindow {
		t.Errorf("windowless promo stored %d/%d, want sentinel", model.StartSeconds, model.EndSeconds)
	}

	if got := ToDomainPromo(model); got.Window != nil {
		t.Error("sentinel columns must map back to a nil window")
	}
}

func TestUserMappingRoundTrip(t *testing.T) {
	loc, _ := domain.NewLocationFromFloat(40.7128, -74.0060)
	user := domain.NewUser("a@example.com", "A", &loc)
	user.AddSegment(domain.SegmentVIPCustomers)
	price, _ := domain.NewPriceFromString("49.99")
	user.RecordPurchase(price, time.Now())

	got := ToDomainUser(FromDomainUser(user))

	if got.ID != user.ID || got.Email != user.Email {
		t.Error("identity did not survive the round trip")
	}
	if got.Location == nil || !got.Location.Equal(*user.Location) {
		t.Errorf("location = %v", got.Location)
	}
	if got.TotalPurchases != 1 || !got.TotalSpent.Equal(user.TotalSpent) {
		t.Errorf("purchase stats = %d / %s", got.TotalPurchases, got.TotalSpent)
	}
	if got.LastPurchaseAt == nil {
		t.Error("LastPurchaseAt was dropped")
	}
	if !got.Segments.Has(domain.SegmentVIPCustomers) {
		t.Errorf("segments = %v", got.Segments.Strings())
	}
}

func TestReservationMappingRoundTrip(t *testing.T) {
	res := domain.NewReservation(uuid.New(), uuid.New(), uuid.New(), uuid.New(), time.Minute, time.Now())

	got := ToDomainReservation(FromDomainReservation(res))

	if got.ID != res.ID || got.ProductID != res.ProductID || got.UserID != res.UserID {
		t.Error("identifiers did not survive the round trip")
	}
	if !got.ExpiresAt.Equal(res.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, res.ExpiresAt)
	}
}

func TestParseSegmentsColumnSkipsBadEntries(t *testing.T) {
	set := parseSegmentsColumn("vip_customers, bogus ,new_users")
	if !set.Has(domain.SegmentVIPCustomers) || !set.Has(domain.SegmentNewUsers) {
		t.Errorf("set = %v", set.Strings())
	}
	if len(set) != 2 {
		t.Errorf("bad entry should be skipped, got %v", set.Strings())
	}

	if got := parseSegmentsColumn(""); !got.IsEmpty() {
		t.Errorf("empty column should parse to empty set, got %v", got.Strings())
	}
}
