// internal/service/flashpromo/infrastructure/adapter/memory_ledger.go
package adapter

import (
	"context"
	"sync"
	"time"
)

// MemoryNotificationLedger 是 port.NotificationLedger 的进程内实现。
// 只做开发与测试替身：不跨进程，重启即清空。
type MemoryNotificationLedger struct {
	mu      sync.Mutex
	entries map[string]time.Time // key -> 过期时刻
}

// NewMemoryNotificationLedger 创建内存去重账本。
func NewMemoryNotificationLedger() *MemoryNotificationLedger {
	return &MemoryNotificationLedger{entries: make(map[string]time.Time)}
}

// Seen 判断去重键是否已记录且未过期。
func (l *MemoryNotificationLedger) Seen(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	expiry, ok := l.entries[key]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(l.entries, key)
		return false, nil
	}
	return true, nil
}

// Mark 记录去重键。
func (l *MemoryNotificationLedger) Mark(ctx context.Context, key string, ttlSeconds int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[key] = time.Now().Add(time.Duration(ttlSeconds) * time.Second)
	return nil
}

// Clear 清空账本，测试用。
func (l *MemoryNotificationLedger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]time.Time)
}
