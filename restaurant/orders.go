package restaurant

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/tableside/events"
	"github.com/ray-remotestate/tableside/models"
)

// totalTolerance is how far a submitted total may drift from the item sum.
var totalTolerance = decimal.RequireFromString("0.01")

type PlaceOrderRequest struct {
	CustomerName string             `json:"customer_name"`
	TableNumber  models.TableNumber `json:"table_number"`
	Items        []models.OrderItem `json:"items"`
	Total        float64            `json:"total"`
}

func (r PlaceOrderRequest) validate() error {
	if strings.TrimSpace(r.CustomerName) == "" {
		return invalid("Customer name is required")
	}
	if r.TableNumber == "" {
		return invalid("Table number is required")
	}
	if !r.TableNumber.Valid() {
		return invalid("Invalid table number format")
	}
	if len(r.Items) == 0 {
		return invalid("Order items are required")
	}
	if r.Total <= 0 {
		return invalid("Valid total amount is required")
	}

	sum := decimal.Zero
	for _, it := range r.Items {
		if strings.TrimSpace(it.ID) == "" {
			return invalid("Invalid item structure")
		}
		if it.Quantity <= 0 || it.Price <= 0 {
			return invalid("Invalid item quantity or price")
		}
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if sum.Sub(decimal.NewFromFloat(r.Total)).Abs().GreaterThan(totalTolerance) {
		return invalid("Order total mismatch")
	}
	return nil
}

// PlaceOrder validates and stores a customer order, counts it towards today's
// totals and tells staff about it. Nothing is stored when validation fails.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (models.Order, error) {
	if err := req.validate(); err != nil {
		return models.Order{}, err
	}

	now := s.now()
	order := models.Order{
		ID:           uuid.NewString(),
		CustomerName: strings.TrimSpace(req.CustomerName),
		TableNumber:  req.TableNumber,
		Items:        req.Items,
		Total:        decimal.NewFromFloat(req.Total).Round(2).InexactFloat64(),
		Status:       models.StatusPending,
		CreatedAt:    now,
		Date:         now.Format(time.DateOnly),
	}
	order = s.store.Orders.Add(ctx, order)
	s.totals.Apply(ctx, order.Total, KindDigital)

	s.log.WithFields(logrus.Fields{"order_id": order.ID, "table": order.TableNumber, "total": order.Total}).
		Info("order placed")
	s.notifier.Publish(ctx, events.NewOrder, order, events.GroupStaff)
	return order, nil
}

type StatusUpdate struct {
	OrderID string             `json:"order_id"`
	Status  models.OrderStatus `json:"status"`
}

// UpdateOrderStatus moves an order to status and notifies staff and the
// order's table.
func (s *Service) UpdateOrderStatus(ctx context.Context, id, status string) (models.Order, error) {
	id = strings.TrimSpace(id)
	next := models.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if id == "" || next == "" {
		return models.Order{}, invalid("Order ID and status are required")
	}
	if !next.IsValid() {
		return models.Order{}, invalid("Invalid status: %s", status)
	}

	order, ok := s.findOrder(ctx, id)
	if !ok {
		return models.Order{}, notFound("Order not found")
	}
	if s.opts.StrictTransitions && !order.Status.CanTransition(next) {
		return models.Order{}, forbiddenTransition(order.Status, next)
	}
	if !s.store.Orders.Update(ctx, id, models.Patch{"status": string(next)}) {
		return models.Order{}, notFound("Order not found")
	}
	order.Status = next

	s.log.WithFields(logrus.Fields{"order_id": id, "status": next}).Info("order status updated")
	s.notifier.Publish(ctx, events.OrderStatusUpdated, StatusUpdate{OrderID: id, Status: next},
		events.GroupStaff, events.TableGroup(string(order.TableNumber)))
	return order, nil
}

func (s *Service) findOrder(ctx context.Context, id string) (models.Order, bool) {
	for _, o := range s.store.Orders.Load(ctx) {
		if o.ID == id {
			return o, true
		}
	}
	return models.Order{}, false
}

// Orders lists orders newest first, optionally only those with status.
func (s *Service) Orders(ctx context.Context, status string) ([]models.Order, error) {
	want := models.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if want != "" && !want.IsValid() {
		return nil, invalid("Invalid status: %s", status)
	}

	all := s.store.Orders.Load(ctx)
	out := make([]models.Order, 0, len(all))
	for _, o := range all {
		if want == "" || o.Status == want {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type OrderStats struct {
	Total        int                        `json:"total"`
	ByStatus     map[models.OrderStatus]int `json:"by_status"`
	Active       int                        `json:"active"`
	TodayOrders  int                        `json:"today_orders"`
	TodayRevenue float64                    `json:"today_revenue"`
}

func (s *Service) OrderStats(ctx context.Context) OrderStats {
	stats := OrderStats{ByStatus: map[models.OrderStatus]int{}}
	for _, st := range models.OrderStatuses {
		stats.ByStatus[st] = 0
	}

	today := s.now().Format(time.DateOnly)
	revenue := decimal.Zero
	for _, o := range s.store.Orders.Load(ctx) {
		stats.Total++
		stats.ByStatus[o.Status]++
		if o.Status.Active() {
			stats.Active++
		}
		if o.Date == today {
			stats.TodayOrders++
			if o.Status != models.StatusCancelled {
				revenue = revenue.Add(decimal.NewFromFloat(o.Total))
			}
		}
	}
	stats.TodayRevenue = revenue.Round(2).InexactFloat64()
	return stats
}

type ClearResult struct {
	Orders       int `json:"orders_cleared"`
	ManualOrders int `json:"manual_orders_cleared"`
	Alerts       int `json:"alerts_cleared"`
}

// ClearOrders removes every digital and manual order and all pending alerts.
// Daily totals are left alone.
func (s *Service) ClearOrders(ctx context.Context) ClearResult {
	res := ClearResult{
		Orders:       len(s.store.Orders.Load(ctx)),
		ManualOrders: len(s.store.ManualOrders.Load(ctx)),
	}
	s.store.Orders.Save(ctx, []models.Order{})
	s.store.ManualOrders.Save(ctx, []models.ManualOrder{})
	res.Alerts = s.alerts.ClearAll()

	s.log.WithFields(logrus.Fields{"orders": res.Orders, "manual_orders": res.ManualOrders}).Warn("all orders cleared")
	s.notifier.Publish(ctx, events.OrdersCleared, res)
	return res
}
