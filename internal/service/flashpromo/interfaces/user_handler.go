// internal/service/flashpromo/interfaces/user_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"

	"flashmart/internal/service/flashpromo/application"
)

func (h *FlashPromoHandler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)

	var req application.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user, err := h.userSvc.CreateUser(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, application.ToUserResponse(user))
}

func (h *FlashPromoHandler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)
	id, ok := parsePathID(w, r)
	if !ok {
		return
	}
	user, err := h.userSvc.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, application.ToUserResponse(user))
}

// handleUpdateUserSegments 重算并持久化用户的分群标签。
func (h *FlashPromoHandler) handleUpdateUserSegments(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)
	id, ok := parsePathID(w, r)
	if !ok {
		return
	}
	segments, err := h.segmentationSvc.UpdateUserSegments(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"segments": segments.Strings()})
}

func (h *FlashPromoHandler) handleGetUserStatistics(w http.ResponseWriter, r *http.Request) {
	r = extractCtx(r)
	stats, err := h.segmentationSvc.GetSegmentStatistics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
