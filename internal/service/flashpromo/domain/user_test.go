package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestIsNewUser(t *testing.T) {
	now := time.Now()
	u := NewUser("a@example.com", "A", nil)

	u.CreatedAt = now.AddDate(0, 0, -10)
	if !u.IsNewUser(now, DefaultNewUserMaxAgeDays) {
		t.Error("user registered 10 days ago should be new")
	}

	u.CreatedAt = now.AddDate(0, 0, -31)
	if u.IsNewUser(now, DefaultNewUserMaxAgeDays) {
		t.Error("user registered 31 days ago should not be new")
	}
}

func TestIsFrequentBuyer(t *testing.T) {
	now := time.Now()
	u := NewUser("a@example.com", "A", nil)

	// 次数不够
	u.TotalPurchases = 4
	recent := now.AddDate(0, 0, -10)
	u.LastPurchaseAt = &recent
	if u.IsFrequentBuyer(now, DefaultFrequentMinPurchases, DefaultFrequentMaxDaysSince) {
		t.Error("4 purchases should not qualify as frequent")
	}

	// 次数够但最近一次太久远
	u.TotalPurchases = 10
	stale := now.AddDate(0, 0, -91)
	u.LastPurchaseAt = &stale
	if u.IsFrequentBuyer(now, DefaultFrequentMinPurchases, DefaultFrequentMaxDaysSince) {
		t.Error("stale purchase history should not qualify as frequent")
	}

	// 都满足
	u.LastPurchaseAt = &recent
	if !u.IsFrequentBuyer(now, DefaultFrequentMinPurchases, DefaultFrequentMaxDaysSince) {
		t.Error("10 recent purchases should qualify as frequent")
	}

	// 从未购买
	u.LastPurchaseAt = nil
	if u.IsFrequentBuyer(now, DefaultFrequentMinPurchases, DefaultFrequentMaxDaysSince) {
		t.Error("user with no purchase date can not be frequent")
	}
}

func TestIsVIPCustomer(t *testing.T) {
	threshold := decimal.NewFromFloat(DefaultVIPMinSpent)
	u := NewUser("a@example.com", "A", nil)

	u.TotalSpent = decimal.NewFromInt(1500)
	if !u.IsVIPCustomer(threshold) {
		t.Error("$1500 spent should qualify as VIP")
	}

	u.TotalSpent = decimal.NewFromInt(500)
	if u.IsVIPCustomer(threshold) {
		t.Error("$500 spent should not qualify as VIP")
	}

	// 门槛本身是闭区间
	u.TotalSpent = decimal.NewFromInt(1000)
	if !u.IsVIPCustomer(threshold) {
		t.Error("exactly $1000 spent should qualify as VIP")
	}
}

func TestRecordPurchase(t *testing.T) {
	now := time.Now()
	u := NewUser("a@example.com", "A", nil)
	price, _ := NewPriceFromString("49.99")

	u.RecordPurchase(price, now)
	u.RecordPurchase(price, now)

	if u.TotalPurchases != 2 {
		t.Errorf("TotalPurchases = %d, want 2", u.TotalPurchases)
	}
	if !u.TotalSpent.Equal(decimal.NewFromFloat(99.98)) {
		t.Errorf("TotalSpent = %s, want 99.98", u.TotalSpent)
	}
	if u.LastPurchaseAt == nil || !u.LastPurchaseAt.Equal(now) {
		t.Error("LastPurchaseAt should be refreshed by RecordPurchase")
	}
}

func TestSegmentTags(t *testing.T) {
	u := NewUser("a@example.com", "A", nil)
	u.AddSegment(SegmentVIPCustomers)
	if !u.HasSegment(SegmentVIPCustomers) {
		t.Error("segment should be present after AddSegment")
	}
	u.RemoveSegment(SegmentVIPCustomers)
	if u.HasSegment(SegmentVIPCustomers) {
		t.Error("segment should be gone after RemoveSegment")
	}
}
