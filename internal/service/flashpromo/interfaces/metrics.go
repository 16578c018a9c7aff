// internal/service/flashpromo/interfaces/metrics.go
package interfaces

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 业务指标。HTTP 层面的通用指标（QPS、延迟）由网关侧采集，
// 这里只埋和闪购强相关的业务计数。
var (
	reservationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flashmart_reservation_attempts_total",
		Help: "Reservation attempts by outcome (reserved, conflict, rejected).",
	}, []string{"outcome"})

	purchaseCompletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flashmart_purchase_completions_total",
		Help: "Purchase completions by outcome (success, failed).",
	}, []string{"outcome"})

	promoActivations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flashmart_promo_activations_total",
		Help: "Explicit promo activations via the API.",
	})
)
