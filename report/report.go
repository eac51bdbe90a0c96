// Package report builds sales reports over a date range and renders them as
// PDF.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ray-remotestate/tableside/models"
)

type Row struct {
	ID        string    `json:"id"`
	Customer  string    `json:"customer_name"`
	Table     string    `json:"table_number"`
	Items     string    `json:"items"`
	Status    string    `json:"status"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

type Summary struct {
	DigitalOrders  int     `json:"digital_orders"`
	ManualOrders   int     `json:"manual_orders"`
	TotalOrders    int     `json:"total_orders"`
	DigitalRevenue float64 `json:"digital_revenue"`
	ManualRevenue  float64 `json:"manual_revenue"`
	TotalRevenue   float64 `json:"total_revenue"`
	AverageOrder   float64 `json:"average_order_value"`
}

type Meta struct {
	Restaurant  string
	Currency    string
	GeneratedAt time.Time
}

type Report struct {
	Meta
	From    string  `json:"from"`
	To      string  `json:"to"`
	Summary Summary `json:"summary"`
	Digital []Row   `json:"digital_orders"`
	Manual  []Row   `json:"manual_orders"`
}

// Build selects the orders dated within [from, to] (YYYY-MM-DD, inclusive)
// and summarises them. Cancelled orders are listed but not counted as
// revenue.
func Build(orders []models.Order, manual []models.ManualOrder, from, to string, meta Meta) Report {
	r := Report{Meta: meta, From: from, To: to, Digital: []Row{}, Manual: []Row{}}
	digital, manualRev := decimal.Zero, decimal.Zero

	for _, o := range orders {
		if !inRange(o.Date, from, to) {
			continue
		}
		r.Digital = append(r.Digital, Row{
			ID:        o.ID,
			Customer:  o.CustomerName,
			Table:     string(o.TableNumber),
			Items:     DescribeItems(o.Items),
			Status:    string(o.Status),
			Total:     o.Total,
			CreatedAt: o.CreatedAt,
		})
		if o.Status != models.StatusCancelled {
			r.Summary.DigitalOrders++
			digital = digital.Add(decimal.NewFromFloat(o.Total))
		}
	}
	for _, o := range manual {
		if !inRange(o.Date, from, to) {
			continue
		}
		r.Manual = append(r.Manual, Row{
			ID:        o.ID,
			Customer:  o.CustomerName,
			Table:     string(o.TableNumber),
			Items:     o.ItemsDescription,
			Status:    models.ManualOrderType,
			Total:     o.Total,
			CreatedAt: o.CreatedAt,
		})
		r.Summary.ManualOrders++
		manualRev = manualRev.Add(decimal.NewFromFloat(o.Total))
	}

	byTime := func(rows []Row) {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	}
	byTime(r.Digital)
	byTime(r.Manual)

	total := digital.Add(manualRev)
	r.Summary.TotalOrders = r.Summary.DigitalOrders + r.Summary.ManualOrders
	r.Summary.DigitalRevenue = digital.Round(2).InexactFloat64()
	r.Summary.ManualRevenue = manualRev.Round(2).InexactFloat64()
	r.Summary.TotalRevenue = total.Round(2).InexactFloat64()
	if r.Summary.TotalOrders > 0 {
		r.Summary.AverageOrder = total.Div(decimal.NewFromInt(int64(r.Summary.TotalOrders))).Round(2).InexactFloat64()
	}
	return r
}

func (r Report) FileName() string {
	return fmt.Sprintf("sales_report_%s_to_%s.pdf", r.From, r.To)
}

// DescribeItems renders items as "2x Kottu Roti, 1x Hoppers".
func DescribeItems(items []models.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, it.Name))
	}
	return strings.Join(parts, ", ")
}

func inRange(date, from, to string) bool {
	return date >= from && date <= to
}
