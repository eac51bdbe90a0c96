package restaurant

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ray-remotestate/tableside/models"
)

type TableStatus string

const (
	TableEmpty          TableStatus = "empty"
	TableOccupied       TableStatus = "occupied"
	TableNeedsAttention TableStatus = "needs_attention"
)

type Table struct {
	Number       models.TableNumber `json:"table_number"`
	Status       TableStatus        `json:"status"`
	CustomerName string             `json:"customer_name,omitempty"`
	Orders       []models.Order     `json:"orders"`
	Alerts       []models.Alert     `json:"alerts"`
	TotalAmount  float64            `json:"total_amount"`
	LastActivity *time.Time         `json:"last_activity,omitempty"`
}

// Tables builds the floor view from today's active orders and pending alerts.
// Tables that are not configured but have activity are listed after the
// configured ones.
func (s *Service) Tables(ctx context.Context) []Table {
	board := map[models.TableNumber]*Table{}
	var order []models.TableNumber
	table := func(n models.TableNumber) *Table {
		if t, ok := board[n]; ok {
			return t
		}
		t := &Table{Number: n, Status: TableEmpty, Orders: []models.Order{}, Alerts: []models.Alert{}}
		board[n] = t
		order = append(order, n)
		return t
	}
	for _, n := range s.opts.Tables {
		table(models.TableNumber(n))
	}

	touch := func(t *Table, at time.Time) {
		if t.LastActivity == nil || at.After(*t.LastActivity) {
			at := at
			t.LastActivity = &at
		}
	}

	today := s.now().Format(time.DateOnly)
	orders := s.store.Orders.Load(ctx)
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	for _, o := range orders {
		if o.Date != today || !o.Status.Active() {
			continue
		}
		t := table(o.TableNumber)
		t.Orders = append(t.Orders, o)
		t.CustomerName = o.CustomerName
		t.TotalAmount = decimal.NewFromFloat(t.TotalAmount).Add(decimal.NewFromFloat(o.Total)).Round(2).InexactFloat64()
		touch(t, o.CreatedAt)
	}
	for _, a := range s.alerts.List() {
		t := table(a.TableNumber)
		t.Alerts = append(t.Alerts, a)
		if t.CustomerName == "" {
			t.CustomerName = a.CustomerName
		}
		touch(t, a.CreatedAt)
	}

	out := make([]Table, 0, len(order))
	for _, n := range order {
		t := board[n]
		switch {
		case len(t.Alerts) > 0:
			t.Status = TableNeedsAttention
		case len(t.Orders) > 0:
			t.Status = TableOccupied
		}
		out = append(out, *t)
	}
	return out
}
