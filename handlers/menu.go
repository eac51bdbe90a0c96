package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ray-remotestate/tableside/restaurant"
	"github.com/ray-remotestate/tableside/utils"
)

// Menu serves ?category= and ?available=true filters.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := restaurant.MenuFilter{Category: q.Get("category")}
	if v := q.Get("available"); v != "" {
		only, err := strconv.ParseBool(v)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid available filter")
			return
		}
		f.AvailableOnly = only
	}
	utils.RespondSuccess(w, http.StatusOK, map[string]any{"menu": h.svc.Menu(r.Context(), f)})
}

func (h *Handler) AddMenuItem(w http.ResponseWriter, r *http.Request) {
	var req restaurant.MenuItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, err := h.svc.AddMenuItem(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.RespondSuccess(w, http.StatusCreated, map[string]any{"menu_item": item})
}

func (h *Handler) SetMenuAvailability(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Available *bool `json:"available"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	if body.Available == nil {
		utils.RespondError(w, http.StatusBadRequest, "Available status is required")
		return
	}

	item, err := h.svc.SetMenuAvailability(r.Context(), mux.Vars(r)["id"], *body.Available)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, map[string]any{"menu_item": item})
}

func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteMenuItem(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, nil)
}

func (h *Handler) MenuStats(w http.ResponseWriter, r *http.Request) {
	utils.RespondSuccess(w, http.StatusOK, map[string]any{"stats": h.svc.MenuStats(r.Context())})
}
