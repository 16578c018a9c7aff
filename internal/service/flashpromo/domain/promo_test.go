package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestPromo(t *testing.T, window *TimeWindow, segments SegmentSet) *Promo {
	t.Helper()
	price, err := NewPriceFromString("49.99")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewPromo(uuid.New(), uuid.New(), price, window, segments, DefaultMaxRadiusKm)
}

func TestNewPromoStartsInactive(t *testing.T) {
	promo := newTestPromo(t, nil, NewSegmentSet(SegmentVIPCustomers))
	if promo.IsActive {
		t.Error("a freshly created promo must be inactive")
	}
	if promo.IsCurrentlyActive(time.Now()) {
		t.Error("an inactive promo can never be currently active")
	}
}

func TestIsCurrentlyActiveReevaluatesWindow(t *testing.T) {
	start, _ := ParseTimeOfDay("17:00")
	end, _ := ParseTimeOfDay("19:00")
	w, _ := NewTimeWindow(start, end)
	promo := newTestPromo(t, &w, NewSegmentSet(SegmentVIPCustomers))
	promo.Activate()

	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.Local)
	inside := day.Add(18 * time.Hour)
	outside := day.Add(20 * time.Hour)

	if !promo.IsCurrentlyActive(inside) {
		t.Error("promo should be active inside its window")
	}
	if promo.IsCurrentlyActive(outside) {
		t.Error("promo should not be active outside its window")
	}
	// 同一个实体在不同时刻给出不同答案，状态不落库
	if !promo.IsCurrentlyActive(inside) {
		t.Error("window evaluation must be repeatable")
	}
}

func TestIsCurrentlyActiveWithoutWindow(t *testing.T) {
	promo := newTestPromo(t, nil, NewSegmentSet(SegmentVIPCustomers))
	promo.Activate()
	if !promo.IsCurrentlyActive(time.Date(2026, 8, 24, 3, 0, 0, 0, time.Local)) {
		t.Error("promo without a window should be active at any time of day")
	}
}

func TestEligibleForSegments(t *testing.T) {
	promo := newTestPromo(t, nil, NewSegmentSet(SegmentVIPCustomers, SegmentNewUsers))

	if !promo.EligibleForSegments(NewSegmentSet(SegmentVIPCustomers)) {
		t.Error("overlapping segments should be eligible")
	}
	if promo.EligibleForSegments(NewSegmentSet(SegmentFrequentBuyers)) {
		t.Error("disjoint segments should not be eligible")
	}
	if promo.EligibleForSegments(NewSegmentSet()) {
		t.Error("a user with no segments should not match a targeted promo")
	}

	// 空的促销分群集合表示对所有人生效
	openPromo := newTestPromo(t, nil, NewSegmentSet())
	if !openPromo.EligibleForSegments(NewSegmentSet()) {
		t.Error("a promo with no segments should match everyone")
	}
	if !openPromo.EligibleForSegments(NewSegmentSet(SegmentNewUsers)) {
		t.Error("a promo with no segments should match any user")
	}
}

func TestUpdateRadiusRejectsNegative(t *testing.T) {
	promo := newTestPromo(t, nil, NewSegmentSet(SegmentVIPCustomers))
	if err := promo.UpdateRadius(-1); err == nil {
		t.Error("negative radius should be rejected")
	}
	if err := promo.UpdateRadius(5); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if promo.MaxRadiusKm != 5 {
		t.Errorf("MaxRadiusKm = %f, want 5", promo.MaxRadiusKm)
	}
}
