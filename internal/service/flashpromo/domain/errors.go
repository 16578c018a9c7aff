// internal/service/flashpromo/domain/errors.go
package domain

import "errors"

// 领域错误分类。接口层通过 errors.Is 将其映射为不同的 HTTP 状态码。
var (
	// ErrValidation 表示创建或更新时的入参校验失败。
	ErrValidation = errors.New("validation failed")

	ErrPromoNotFound       = errors.New("flash promo not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrPromoNotActive 表示促销存在但当前不生效（未激活或不在时间窗口内）。
	ErrPromoNotActive = errors.New("flash promo is not currently active")

	// ErrReservationExpired 表示预留在购买时已经过期。
	ErrReservationExpired = errors.New("reservation has expired")

	// ErrAlreadyReserved 表示插入预留时撞上了商品唯一约束。
	// 应用层将其当作业务冲突处理，不向外暴露。
	ErrAlreadyReserved = errors.New("product is already reserved")

	// ErrNotReservationOwner 表示购买者不是预留的持有人。
	ErrNotReservationOwner = errors.New("reservation does not belong to this user")

	ErrInsufficientStock = errors.New("insufficient stock")
)
