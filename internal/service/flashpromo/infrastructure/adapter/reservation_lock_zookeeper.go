// internal/service/flashpromo/infrastructure/adapter/reservation_lock_zookeeper.go
package adapter

import (
	"context"
	"time"

	"flashmart/internal/pkg/logger"
	"flashmart/internal/zookeeper"
)

// ZookeeperProductLocker 是 port.ProductLocker 的 ZooKeeper 实现。
// 锁寿命跟随会话而不是 TTL：持有进程崩溃时临时节点自动删除。
// 部署了 ZK 集群的环境可以通过配置切换到这个实现。
type ZookeeperProductLocker struct {
	conn *zookeeper.Conn
}

// NewZookeeperProductLocker 创建 ZooKeeper 商品锁适配器。
func NewZookeeperProductLocker(conn *zookeeper.Conn) *ZookeeperProductLocker {
	return &ZookeeperProductLocker{conn: conn}
}

// Acquire 尝试获取商品锁，不阻塞等待。ttl 在会话模型下只用作兜底等待上限。
func (l *ZookeeperProductLocker) Acquire(ctx context.Context, productID string, ttl time.Duration) (func(), bool, error) {
	lock := zookeeper.NewDistributedLock(l.conn, "product-"+productID, ttl)

	acquired, err := lock.TryLock()
	if err != nil {
		return nil, false, err
	}
	if !acquired {
		return nil, false, nil
	}

	release := func() {
		if err := lock.Unlock(); err != nil {
			logger.Logger().Printf("Failed to release zk lock for product %s: %v", productID, err)
		}
	}
	return release, true, nil
}
