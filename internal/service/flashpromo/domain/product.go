// internal/service/flashpromo/domain/product.go
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Product 是市场商品实体。库存永远不为负。
type Product struct {
	ID            uuid.UUID
	Name          string
	Description   string
	OriginalPrice Price
	IsActive      bool
	StockQuantity int
}

// NewProduct 创建商品，默认激活。
func NewProduct(name, description string, originalPrice Price, stockQuantity int) *Product {
	return &Product{
		ID:            uuid.New(),
		Name:          name,
		Description:   description,
		OriginalPrice: originalPrice,
		IsActive:      true,
		StockQuantity: stockQuantity,
	}
}

func (p *Product) Activate()   { p.IsActive = true }
func (p *Product) Deactivate() { p.IsActive = false }

// UpdatePrice 更新原价。
func (p *Product) UpdatePrice(price Price) {
	p.OriginalPrice = price
}

// UpdateStock 直接设置库存，负数返回 ErrValidation。
func (p *Product) UpdateStock(quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: stock quantity cannot be negative", ErrValidation)
	}
	p.StockQuantity = quantity
	return nil
}

// ReduceStock 扣减库存，数量非法或库存不足时失败。
func (p *Product) ReduceStock(quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity to reduce cannot be negative", ErrValidation)
	}
	if p.StockQuantity < quantity {
		return ErrInsufficientStock
	}
	p.StockQuantity -= quantity
	return nil
}

// AddStock 增加库存。
func (p *Product) AddStock(quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity to add cannot be negative", ErrValidation)
	}
	p.StockQuantity += quantity
	return nil
}

// IsAvailable 判断商品是否可售（激活且有库存）。
func (p *Product) IsAvailable() bool {
	return p.IsActive && p.StockQuantity > 0
}
