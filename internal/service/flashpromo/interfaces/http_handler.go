// internal/service/flashpromo/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"flashmart/internal/service/flashpromo/application"
	"flashmart/internal/service/flashpromo/domain"
)

// FlashPromoHandler 封装了闪购服务的 HTTP 处理器。
type FlashPromoHandler struct {
	promoSvc        *application.PromoService
	reservationSvc  *application.ReservationService
	userSvc         *application.UserService
	segmentationSvc *application.SegmentationService
}

// NewFlashPromoHandler 创建一个新的 HTTP 处理器实例。
func NewFlashPromoHandler(
	promoSvc *application.PromoService,
	reservationSvc *application.ReservationService,
	userSvc *application.UserService,
	segmentationSvc *application.SegmentationService,
) *FlashPromoHandler {
	return &FlashPromoHandler{
		promoSvc:        promoSvc,
		reservationSvc:  reservationSvc,
		userSvc:         userSvc,
		segmentationSvc: segmentationSvc,
	}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *FlashPromoHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/promos", h.handleCreatePromo)
	mux.HandleFunc("GET /api/promos/active", h.handleGetActivePromos)
	mux.HandleFunc("POST /api/promos/activate", h.handleActivatePromos)
	mux.HandleFunc("GET /api/promos/eligibility", h.handleGetEligibility)
	mux.HandleFunc("GET /api/promos/{id}", h.handleGetPromo)
	mux.HandleFunc("POST /api/promos/{id}/activate", h.handleActivatePromo)
	mux.HandleFunc("POST /api/promos/{id}/deactivate", h.handleDeactivatePromo)
	mux.HandleFunc("GET /api/promos/{id}/statistics", h.handleGetPromoStatistics)

	mux.HandleFunc("POST /api/reservations", h.handleReserveProduct)
	mux.HandleFunc("POST /api/reservations/purchase", h.handleCompletePurchase)
	mux.HandleFunc("POST /api/reservations/sweep", h.handleSweepReservations)
	mux.HandleFunc("GET /api/reservations/expired", h.handleGetExpiredReservations)
	mux.HandleFunc("GET /api/reservations/{id}", h.handleGetReservation)
	mux.HandleFunc("GET /api/reservations/{id}/price", h.handleGetPurchasePrice)

	mux.HandleFunc("POST /api/users", h.handleCreateUser)
	mux.HandleFunc("GET /api/users/statistics", h.handleGetUserStatistics)
	mux.HandleFunc("GET /api/users/{id}", h.handleGetUser)
	mux.HandleFunc("POST /api/users/{id}/segments", h.handleUpdateUserSegments)
}

// extractCtx 从请求头还原追踪上下文。
func extractCtx(r *http.Request) *http.Request {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	return r.WithContext(ctx)
}

// writeError 按错误分类映射 HTTP 状态码。
func writeError(w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrValidation):
		statusCode = http.StatusBadRequest
	case errors.Is(err, domain.ErrPromoNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrReservationNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrNotReservationOwner):
		statusCode = http.StatusForbidden
	case errors.Is(err, domain.ErrReservationExpired),
		errors.Is(err, domain.ErrPromoNotActive):
		statusCode = http.StatusConflict
	default:
		statusCode = http.StatusInternalServerError
	}
	writeJSON(w, statusCode, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func parsePathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *FlashPromoHandler) handleCreatePromo(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)

	var req application.CreatePromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	promo, err := h.promoSvc.CreatePromo(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, application.ToPromoResponse(promo))
}

func (h *FlashPromoHandler) handleGetPromo(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)
	id, ok := parsePathID(w, r)
	if !ok {
		return
	}
	promo, err := h.promoSvc.GetPromo(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, application.ToPromoResponse(promo))
}

func (h *FlashPromoHandler) handleGetActivePromos(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)
	promos, err := h.promoSvc.GetActivePromos(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]*application.PromoResponse, 0, len(promos))
	for _, p := range promos {
		out = append(out, application.ToPromoResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"promos": out, "count": len(out)})
}

func (h *FlashPromoHandler) handleActivatePromo(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)
	id, ok := parsePathID(w, r)
	if !ok {
		return
	}
	result, err := h.promoSvc.ActivatePromo(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	promoActivations.Inc()
	writeJSON(w, http.StatusOK, result)
}

func (h *FlashPromoHandler) handleDeactivatePromo(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)
	id, ok := parsePathID(w, r)
	if !ok {
		return
	}
	if err := h.promoSvc.DeactivatePromo(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deactivated": true})
}

// handleActivatePromos 对窗口覆盖给定时刻的激活促销做批量通知扇出。
// 定时任务每分钟调用；可用 ?at= 指定判定时刻。
func (h *FlashPromoHandler) handleActivatePromos(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)

	at := time.Now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid 'at' timestamp"})
			return
		}
		at = parsed
	}

	result, err := h.promoSvc.ActivatePromosForTime(r.Context(), at)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *FlashPromoHandler) handleGetEligibility(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)

	promoID, err := uuid.Parse(r.URL.Query().Get("promo_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid promo_id"})
		return
	}
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
		return
	}

	result, err := h.promoSvc.GetPromoEligibility(r.Context(), promoID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *FlashPromoHandler) handleGetPromoStatistics(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)
	id, ok := parsePathID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.promoSvc.GetPromoStatistics(r.Context(), id))
}
