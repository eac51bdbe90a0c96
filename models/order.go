package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Record is anything stored in a collection under a stable key.
type Record interface {
	RecordID() string
}

// Patch is a partial update keyed by internal field name.
type Patch map[string]any

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled}

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusPreparing, StatusReady, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusCompleted, StatusCancelled},
}

func (s OrderStatus) IsValid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Active reports whether the order still occupies its table.
func (s OrderStatus) Active() bool {
	return s == StatusPending || s == StatusPreparing || s == StatusReady
}

func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if s == to {
		return true
	}
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// TableNumber accepts both JSON numbers and strings ("5", 5, "VIP1").
type TableNumber string

func (t *TableNumber) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = TableNumber(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("table_number must be a string or number: %w", err)
	}
	*t = TableNumber(n.String())
	return nil
}

// Valid reports whether t is all digits or a VIP table label.
func (t TableNumber) Valid() bool {
	s := string(t)
	if s == "" {
		return false
	}
	if strings.HasPrefix(strings.ToUpper(s), "VIP") {
		return true
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

type OrderItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type Order struct {
	ID           string      `json:"id"`
	CustomerName string      `json:"customer_name"`
	TableNumber  TableNumber `json:"table_number"`
	Items        []OrderItem `json:"items"`
	Total        float64     `json:"total"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	Date         string      `json:"date"`
}

func (o Order) RecordID() string { return o.ID }

const ManualOrderType = "manual"

type ManualOrder struct {
	ID               string      `json:"id"`
	CustomerName     string      `json:"customer_name"`
	TableNumber      TableNumber `json:"table_number"`
	ItemsDescription string      `json:"items_description"`
	Total            float64     `json:"total"`
	Notes            string      `json:"notes"`
	CreatedAt        time.Time   `json:"created_at"`
	Date             string      `json:"date"`
	Type             string      `json:"type"`
}

func (o ManualOrder) RecordID() string { return o.ID }

// DailyTotals is keyed by Date; there is at most one record per day.
type DailyTotals struct {
	Date           string    `json:"date"`
	DigitalOrders  int       `json:"digital_orders"`
	ManualOrders   int       `json:"manual_orders"`
	DigitalRevenue float64   `json:"digital_revenue"`
	ManualRevenue  float64   `json:"manual_revenue"`
	TotalOrders    int       `json:"total_orders"`
	TotalRevenue   float64   `json:"total_revenue"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (d DailyTotals) RecordID() string { return d.Date }

const AlertTypeCallStaff = "call_staff"

type Alert struct {
	ID           string      `json:"id"`
	TableNumber  TableNumber `json:"table_number"`
	CustomerName string      `json:"customer_name"`
	Type         string      `json:"type"`
	Status       string      `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
}
