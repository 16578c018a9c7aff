// internal/service/flashpromo/domain/port/lock.go
package port

import (
	"context"
	"time"
)

// ProductLocker 是按商品粒度的分布式互斥端口。
// 预留用例先拿锁再做存在性检查和插入，关闭 check-then-create 的竞态窗口。
//
// Acquire 不阻塞：锁被他人持有时返回 acquired=false。成功时返回的 release
// 必须在预留落库后调用；即便调用方崩溃，锁也会随 TTL（或会话）自动释放。
type ProductLocker interface {
	Acquire(ctx context.Context, productID string, ttl time.Duration) (release func(), acquired bool, err error)
}
