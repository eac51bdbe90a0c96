package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ray-remotestate/tableside/models"
	"github.com/ray-remotestate/tableside/restaurant"
	"github.com/ray-remotestate/tableside/utils"
)

func (h *Handler) CallStaff(w http.ResponseWriter, r *http.Request) {
	var req restaurant.CallStaffRequest
	if !h.decode(w, r, &req) {
		return
	}

	alert, err := h.svc.CallStaff(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, map[string]any{
		"message":  "Staff has been notified!",
		"alert_id": alert.ID,
	})
}

func (h *Handler) DismissAlert(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AlertID string `json:"alert_id"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	if err := h.svc.DismissAlert(r.Context(), body.AlertID); err != nil {
		h.fail(w, r, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, nil)
}

func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	utils.RespondSuccess(w, http.StatusOK, map[string]any{"alerts": h.svc.Alerts(r.Context())})
}

func (h *Handler) Tables(w http.ResponseWriter, r *http.Request) {
	utils.RespondSuccess(w, http.StatusOK, map[string]any{"tables": h.svc.Tables(r.Context())})
}

func (h *Handler) ClearTableAlerts(w http.ResponseWriter, r *http.Request) {
	table := models.TableNumber(mux.Vars(r)["table"])
	n, err := h.svc.ClearTableAlerts(r.Context(), table)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, map[string]any{"alerts_cleared": n})
}

func (h *Handler) ClearAllAlerts(w http.ResponseWriter, r *http.Request) {
	n := h.svc.ClearAllAlerts(r.Context())
	utils.RespondSuccess(w, http.StatusOK, map[string]any{"alerts_cleared": n})
}
