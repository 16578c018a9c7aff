package adapter

import (
	"context"
	"testing"
)

func TestMemoryNotificationLedger(t *testing.T) {
	ledger := NewMemoryNotificationLedger()
	ctx := context.Background()
	key := "user:promo:2026-08-24"

	seen, err := ledger.Seen(ctx, key)
	if err != nil || seen {
		t.Fatalf("fresh key should be unseen: %v, %v", seen, err)
	}

	if err := ledger.Mark(ctx, key, 60); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen, _ := ledger.Seen(ctx, key); !seen {
		t.Error("marked key should be seen")
	}

	// TTL 已到的键视为未见过
	if err := ledger.Mark(ctx, "expired", -1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen, _ := ledger.Seen(ctx, "expired"); seen {
		t.Error("expired key should be unseen")
	}

	ledger.Clear()
	if seen, _ := ledger.Seen(ctx, key); seen {
		t.Error("cleared ledger should be empty")
	}
}
