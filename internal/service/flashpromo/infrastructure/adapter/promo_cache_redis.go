// internal/service/flashpromo/infrastructure/adapter/promo_cache_redis.go
package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"flashmart/internal/pkg/logger"
	"flashmart/internal/pkg/redis"
	"flashmart/internal/service/flashpromo/domain"
)

const (
	activePromosCacheKey = "flash_promos:active"
	activePromosCacheTTL = 5 * time.Second
)

// cachedPromo 是缓存中的促销序列化形式。
type cachedPromo struct {
	ID           string   `json:"id"`
	ProductID    string   `json:"product_id"`
	StoreID      string   `json:"store_id"`
	PromoPrice   string   `json:"promo_price"`
	StartSeconds int      `json:"start_seconds"`
	EndSeconds   int      `json:"end_seconds"`
	UserSegments []string `json:"user_segments"`
	MaxRadiusKm  float64  `json:"max_radius_km"`
	IsActive     bool     `json:"is_active"`
	CreatedAt    int64    `json:"created_at"`
}

// CachedPromoRepository 是 PromoRepository 的 Redis 读缓存装饰器。
// 只缓存活动促销列表这个热点读；任何写操作都使缓存失效。
// TTL 取得很短，缓存不可用时直接穿透到底层仓储。
type CachedPromoRepository struct {
	domain.PromoRepository
	redisClient *redis.Client
}

// NewCachedPromoRepository 包装一个促销仓储，给 GetActivePromos 加 Redis 缓存。
func NewCachedPromoRepository(inner domain.PromoRepository, redisClient *redis.Client) *CachedPromoRepository {
	return &CachedPromoRepository{PromoRepository: inner, redisClient: redisClient}
}

// GetActivePromos 优先读缓存，未命中时回源并写缓存。
func (r *CachedPromoRepository) GetActivePromos(ctx context.Context) ([]*domain.Promo, error) {
	raw, err := r.redisClient.GetClient().Get(ctx, activePromosCacheKey).Result()
	if err == nil {
		if promos, decodeErr := decodePromos(raw); decodeErr == nil {
			return promos, nil
		}
		// 缓存内容坏了就当未命中处理
	} else if err != goredis.Nil {
		logger.Ctx(ctx).Printf("Active promos cache read failed: %v", err)
	}

	promos, err := r.PromoRepository.GetActivePromos(ctx)
	if err != nil {
		return nil, err
	}

	if encoded, encodeErr := encodePromos(promos); encodeErr == nil {
		if setErr := r.redisClient.GetClient().
			Set(ctx, activePromosCacheKey, encoded, activePromosCacheTTL).Err(); setErr != nil {
			logger.Ctx(ctx).Printf("Active promos cache write failed: %v", setErr)
		}
	}
	return promos, nil
}

// Save 写入底层仓储并使缓存失效。
func (r *CachedPromoRepository) Save(ctx context.Context, promo *domain.Promo) error {
	if err := r.PromoRepository.Save(ctx, promo); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// Delete 删除底层记录并使缓存失效。
func (r *CachedPromoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.PromoRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedPromoRepository) invalidate(ctx context.Context) {
	if err := r.redisClient.GetClient().Del(ctx, activePromosCacheKey).Err(); err != nil {
		logger.Ctx(ctx).Printf("Active promos cache invalidation failed: %v", err)
	}
}

func encodePromos(promos []*domain.Promo) (string, error) {
	const noWindow = -1
	cached := make([]cachedPromo, 0, len(promos))
	for _, p := range promos {
		c := cachedPromo{
			ID:           p.ID.String(),
			ProductID:    p.ProductID.String(),
			StoreID:      p.StoreID.String(),
			PromoPrice:   p.PromoPrice.Amount().String(),
			StartSeconds: noWindow,
			EndSeconds:   noWindow,
			UserSegments: p.Segments.Strings(),
			MaxRadiusKm:  p.MaxRadiusKm,
			IsActive:     p.IsActive,
			CreatedAt:    p.CreatedAt.Unix(),
		}
		if p.Window != nil {
			c.StartSeconds = int(p.Window.Start())
			c.EndSeconds = int(p.Window.End())
		}
		cached = append(cached, c)
	}
	out, err := json.Marshal(cached)
	return string(out), err
}

func decodePromos(raw string) ([]*domain.Promo, error) {
	const noWindow = -1
	var cached []cachedPromo
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, err
	}
	promos := make([]*domain.Promo, 0, len(cached))
	for _, c := range cached {
		id, err := uuid.Parse(c.ID)
		if err != nil {
			return nil, err
		}
		productID, err := uuid.Parse(c.ProductID)
		if err != nil {
			return nil, err
		}
		storeID, err := uuid.Parse(c.StoreID)
		if err != nil {
			return nil, err
		}
		price, err := domain.NewPriceFromString(c.PromoPrice)
		if err != nil {
			return nil, err
		}
		segments, err := domain.ParseSegments(c.UserSegments)
		if err != nil {
			return nil, err
		}
		var window *domain.TimeWindow
		if c.StartSeconds != noWindow && c.EndSeconds != noWindow {
			w, err := domain.NewTimeWindow(domain.TimeOfDay(c.StartSeconds), domain.TimeOfDay(c.EndSeconds))
			if err != nil {
				return nil, err
			}
			window = &w
		}
		promos = append(promos, &domain.Promo{
			ID:          id,
			ProductID:   productID,
			StoreID:     storeID,
			PromoPrice:  price,
			Window:      window,
			Segments:    segments,
			MaxRadiusKm: c.MaxRadiusKm,
			IsActive:    c.IsActive,
			CreatedAt:   time.Unix(c.CreatedAt, 0),
		})
	}
	return promos, nil
}
