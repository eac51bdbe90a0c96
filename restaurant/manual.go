package restaurant

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/tableside/models"
)

const (
	WalkInCustomer = "Walk-in Customer"
	TakeoutTable   = "Takeout"
)

type ManualOrderRequest struct {
	CustomerName     string             `json:"customer_name"`
	TableNumber      models.TableNumber `json:"table_number"`
	ItemsDescription string             `json:"items_description"`
	Total            float64            `json:"total"`
	Notes            string             `json:"notes"`
}

// AddManualOrder records an order taken by staff outside the digital menu.
func (s *Service) AddManualOrder(ctx context.Context, req ManualOrderRequest) (models.ManualOrder, error) {
	desc := strings.TrimSpace(req.ItemsDescription)
	if desc == "" {
		return models.ManualOrder{}, invalid("Items description is required")
	}
	if req.Total <= 0 {
		return models.ManualOrder{}, invalid("Valid total amount is required")
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		name = WalkInCustomer
	}
	table := req.TableNumber
	if table == "" {
		table = TakeoutTable
	}

	now := s.now()
	order := models.ManualOrder{
		ID:               uuid.NewString(),
		CustomerName:     name,
		TableNumber:      table,
		ItemsDescription: desc,
		Total:            decimal.NewFromFloat(req.Total).Round(2).InexactFloat64(),
		Notes:            strings.TrimSpace(req.Notes),
		CreatedAt:        now,
		Date:             now.Format(time.DateOnly),
		Type:             models.ManualOrderType,
	}
	order = s.store.ManualOrders.Add(ctx, order)
	s.totals.Apply(ctx, order.Total, KindManual)

	s.log.WithFields(logrus.Fields{"order_id": order.ID, "total": order.Total}).Info("manual order added")
	return order, nil
}

// ManualOrders lists manual orders newest first, optionally for one date
// (YYYY-MM-DD).
func (s *Service) ManualOrders(ctx context.Context, date string) ([]models.ManualOrder, error) {
	date = strings.TrimSpace(date)
	if date != "" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return nil, invalid("Invalid date format, use YYYY-MM-DD")
		}
	}

	all := s.store.ManualOrders.Load(ctx)
	out := make([]models.ManualOrder, 0, len(all))
	for _, o := range all {
		if date == "" || o.Date == date {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
