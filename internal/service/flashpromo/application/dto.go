// internal/service/flashpromo/application/dto.go
package application

// CreatePromoRequest 是创建促销的请求体。
type CreatePromoRequest struct {
	ProductID    string   `json:"product_id"`
	StoreID      string   `json:"store_id"`
	PromoPrice   string   `json:"promo_price"`
	StartTime    string   `json:"start_time"` // "17:00" 或 "17:00:30"
	EndTime      string   `json:"end_time"`
	UserSegments []string `json:"user_segments"`
	MaxRadiusKm  *float64 `json:"max_radius_km,omitempty"`
}

// PromoResponse 是促销的对外表示。
type PromoResponse struct {
	ID           string   `json:"id"`
	ProductID    string   `json:"product_id"`
	StoreID      string   `json:"store_id"`
	PromoPrice   string   `json:"promo_price"`
	StartTime    string   `json:"start_time,omitempty"`
	EndTime      string   `json:"end_time,omitempty"`
	UserSegments []string `json:"user_segments"`
	MaxRadiusKm  float64  `json:"max_radius_km"`
	IsActive     bool     `json:"is_active"`
	CreatedAt    string   `json:"created_at"`
}

// EligibilityResult 是单用户资格判定结果。判定失败返回原因而不是错误，
// 保证诊断接口优雅降级。
type EligibilityResult struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason"`
}

// PromoStatistics 是促销的只读统计投影。
// 促销不存在时 Error 字段携带哨兵信息，而不是返回错误。
type PromoStatistics struct {
	PromoID            string          `json:"promo_id,omitempty"`
	IsActive           bool            `json:"is_active"`
	EligibleUsersCount int             `json:"eligible_users_count"`
	UserSegments       []string        `json:"user_segments,omitempty"`
	TimeWindow         *TimeWindowView `json:"time_range,omitempty"`
	PromoPrice         *PriceView      `json:"promo_price,omitempty"`
	Error              string          `json:"error,omitempty"`
}

// TimeWindowView 是时间窗口的序列化形式。
type TimeWindowView struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// PriceView 是价格的序列化形式。
type PriceView struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// PromoActivationDetail 是单个促销激活的结果明细。
type PromoActivationDetail struct {
	PromoID           string `json:"promo_id"`
	EligibleUsers     int    `json:"eligible_users"`
	NotificationsSent int    `json:"notifications_sent"`
	Status            string `json:"status"` // activated | no_eligible_users
}

// ActivationResult 是按时间批量激活的聚合结果。
type ActivationResult struct {
	ActivatedPromos        int                     `json:"activated_promos"`
	TotalNotificationsSent int                     `json:"total_notifications_sent"`
	PromoDetails           []PromoActivationDetail `json:"promo_details"`
}

// NotificationResult 是一次通知扇出的聚合计数。
type NotificationResult struct {
	TotalUsers              int `json:"total_users"`
	SuccessfulNotifications int `json:"successful_notifications"`
	FailedNotifications     int `json:"failed_notifications"`
	DuplicateNotifications  int `json:"duplicate_notifications"`
}

// BulkNotificationResult 是分批通知的聚合计数。
type BulkNotificationResult struct {
	TotalBatches int `json:"total_batches"`
	NotificationResult
}

// CreateUserRequest 是创建用户的请求体。
type CreateUserRequest struct {
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// UserResponse 是用户的对外表示。
type UserResponse struct {
	ID             string   `json:"id"`
	Email          string   `json:"email"`
	Name           string   `json:"name"`
	Latitude       *string  `json:"latitude,omitempty"`
	Longitude      *string  `json:"longitude,omitempty"`
	TotalPurchases int      `json:"total_purchases"`
	TotalSpent     string   `json:"total_spent"`
	Segments       []string `json:"segments"`
	CreatedAt      string   `json:"created_at"`
}

// SegmentStatistics 是用户分群的统计报表。
type SegmentStatistics struct {
	TotalUsers        int `json:"total_users"`
	NewUsers          int `json:"new_users"`
	FrequentBuyers    int `json:"frequent_buyers"`
	VIPCustomers      int `json:"vip_customers"`
	UsersWithLocation int `json:"users_with_location"`
}

// ReservationResponse 是预留的对外表示。
type ReservationResponse struct {
	ID                   string `json:"id"`
	ProductID            string `json:"product_id"`
	UserID               string `json:"user_id"`
	PromoID              string `json:"flash_promo_id"`
	StoreID              string `json:"store_id"`
	CreatedAt            string `json:"created_at"`
	ExpiresAt            string `json:"expires_at"`
	TimeRemainingSeconds int    `json:"time_remaining_seconds"`
	IsExpired            bool   `json:"is_expired"`
}
