// internal/service/flashpromo/domain/price.go
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Price 是不可变的金额值对象。单币种系统，币种是常量元数据。
// 金额永远非负：任何会产生负值的运算都返回 ErrValidation，而不是截断为零。
type Price struct {
	amount decimal.Decimal
}

// PriceCurrency 是本系统使用的固定币种。
const PriceCurrency = "USD"

// NewPrice 从 decimal 构造 Price，负数返回 ErrValidation。
func NewPrice(amount decimal.Decimal) (Price, error) {
	if amount.IsNegative() {
		return Price{}, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	return Price{amount: amount}, nil
}

// NewPriceFromString 从十进制字符串构造 Price。
func NewPriceFromString(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("%w: invalid price %q", ErrValidation, s)
	}
	return NewPrice(d)
}

// NewPriceFromFloat 从 float64 构造 Price。
func NewPriceFromFloat(f float64) (Price, error) {
	return NewPrice(decimal.NewFromFloat(f))
}

// Amount 返回金额。
func (p Price) Amount() decimal.Decimal {
	return p.amount
}

// IsZero 判断金额是否为零。
func (p Price) IsZero() bool {
	return p.amount.IsZero()
}

// Add 返回两个价格之和。
func (p Price) Add(other Price) Price {
	return Price{amount: p.amount.Add(other.amount)}
}

// Sub 返回两个价格之差。结果为负时返回 ErrValidation。
func (p Price) Sub(other Price) (Price, error) {
	return NewPrice(p.amount.Sub(other.amount))
}

// Mul 价格乘以系数。负系数返回 ErrValidation。
func (p Price) Mul(factor decimal.Decimal) (Price, error) {
	return NewPrice(p.amount.Mul(factor))
}

// Div 价格除以除数。除零或负除数返回 ErrValidation。
func (p Price) Div(divisor decimal.Decimal) (Price, error) {
	if divisor.IsZero() {
		return Price{}, fmt.Errorf("%w: division by zero", ErrValidation)
	}
	return NewPrice(p.amount.Div(divisor))
}

// Equal 按金额比较。
func (p Price) Equal(other Price) bool {
	return p.amount.Equal(other.amount)
}

// LessThan 按金额比较。
func (p Price) LessThan(other Price) bool {
	return p.amount.LessThan(other.amount)
}

// GreaterThan 按金额比较。
func (p Price) GreaterThan(other Price) bool {
	return p.amount.GreaterThan(other.amount)
}

// DiscountPercentage 计算相对原价的折扣百分比。原价为零时返回 0。
func (p Price) DiscountPercentage(original Price) decimal.Decimal {
	if original.amount.IsZero() {
		return decimal.Zero
	}
	return original.amount.Sub(p.amount).
		Div(original.amount).
		Mul(decimal.NewFromInt(100))
}

func (p Price) String() string {
	return "$" + p.amount.String()
}
