package handlers

import (
	"net/http"

	"github.com/ray-remotestate/tableside/restaurant"
	"github.com/ray-remotestate/tableside/utils"
)

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req restaurant.PlaceOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.svc.PlaceOrder(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, map[string]any{
		"message":  "Order placed successfully!",
		"order_id": order.ID,
	})
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	}
	if !h.decode(w, r, &body) {
		return
	}

	order, err := h.svc.UpdateOrderStatus(r.Context(), body.OrderID, body.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) OrderStats(w http.ResponseWriter, r *http.Request) {
	utils.RespondSuccess(w, http.StatusOK, map[string]any{"stats": h.svc.OrderStats(r.Context())})
}

func (h *Handler) ClearOrders(w http.ResponseWriter, r *http.Request) {
	res := h.svc.ClearOrders(r.Context())
	utils.RespondSuccess(w, http.StatusOK, map[string]any{
		"message": "All orders cleared",
		"cleared": res,
	})
}

func (h *Handler) AddManualOrder(w http.ResponseWriter, r *http.Request) {
	var req restaurant.ManualOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.svc.AddManualOrder(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, map[string]any{
		"message":  "Manual order added successfully!",
		"order_id": order.ID,
	})
}

func (h *Handler) ListManualOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ManualOrders(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, map[string]any{"manual_orders": orders})
}

func (h *Handler) DailyTotals(w http.ResponseWriter, r *http.Request) {
	totals := h.svc.Totals()
	utils.RespondSuccess(w, http.StatusOK, map[string]any{
		"today":   totals.Today(r.Context()),
		"history": totals.All(r.Context()),
	})
}

// ResetDailyTotals drops the totals for one date, or every date when the body
// names none.
func (h *Handler) ResetDailyTotals(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date string `json:"date"`
	}
	if r.ContentLength != 0 && !h.decode(w, r, &body) {
		return
	}
	n := h.svc.ResetTotals(r.Context(), body.Date)
	utils.RespondSuccess(w, http.StatusOK, map[string]any{"reset": n})
}
