// internal/service/flashpromo/interfaces/reservation_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"flashmart/internal/service/flashpromo/application"
	"flashmart/internal/service/flashpromo/domain"
)

type reserveRequest struct {
	ProductID string `json:"product_id"`
	UserID    string `json:"user_id"`
	PromoID   string `json:"flash_promo_id"`
	// 可选的预留时长，缺省由服务端决定（默认 1 分钟）
	DurationMinutes int `json:"duration_minutes,omitempty"`
}

type purchaseRequest struct {
	ReservationID string `json:"reservation_id"`
	UserID        string `json:"user_id"`
}

func (h *FlashPromoHandler) handleReserveProduct(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)

	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product_id"})
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
		return
	}
	promoID, err := uuid.Parse(req.PromoID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid flash_promo_id"})
		return
	}
	if req.DurationMinutes < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "duration_minutes cannot be negative"})
		return
	}
	duration := time.Duration(req.DurationMinutes) * time.Minute

	reservation, err := h.reservationSvc.ReserveProduct(r.Context(), productID, userID, promoID, duration)
	if err != nil {
		reservationAttempts.WithLabelValues("rejected").Inc()
		writeError(w, err)
		return
	}
	// (nil, nil) 是业务冲突哨兵：商品已被他人预留
	if reservation == nil {
		reservationAttempts.WithLabelValues("conflict").Inc()
		writeJSON(w, http.StatusConflict, map[string]string{"error": "product is already reserved"})
		return
	}

	reservationAttempts.WithLabelValues("reserved").Inc()
	writeJSON(w, http.StatusCreated, application.ToReservationResponse(reservation))
}

func (h *FlashPromoHandler) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)
	id, ok := parsePathID(w, r)
	if !ok {
		return
	}
	reservation, err := h.reservationSvc.GetReservation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, application.ToReservationResponse(reservation))
}

func (h *FlashPromoHandler) handleCompletePurchase(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	reservationID, err := uuid.Parse(req.ReservationID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid reservation_id"})
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
		return
	}

	price, err := h.reservationSvc.CompletePurchase(r.Context(), reservationID, userID)
	if err != nil {
		purchaseCompletions.WithLabelValues("failed").Inc()
		writeError(w, err)
		return
	}

	purchaseCompletions.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"purchased": true,
		"price": application.PriceView{
			Amount:   price.Amount().String(),
			Currency: domain.PriceCurrency,
		},
	})
}

func (h *FlashPromoHandler) handleGetPurchasePrice(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)
	id, ok := parsePathID(w, r)
	if !ok {
		return
	}

	price, err := h.reservationSvc.GetPurchasePrice(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if price == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"available": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"available": true,
		"price": application.PriceView{
			Amount:   price.Amount().String(),
			Currency: domain.PriceCurrency,
		},
	})
}

func (h *FlashPromoHandler) handleSweepReservations(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)
	released, err := h.reservationSvc.SweepExpiredReservations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"released": released})
}

func (h *FlashPromoHandler) handleGetExpiredReservations(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)
	expired, err := h.reservationSvc.GetExpiredReservations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]*application.ReservationResponse, 0, len(expired))
	for _, res := range expired {
		out = append(out, application.ToReservationResponse(res))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reservations": out, "count": len(out)})
}
