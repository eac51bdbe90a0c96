// Package restaurant holds the ordering, alert, menu and revenue workflows
// behind the HTTP API.
package restaurant

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/tableside/events"
	"github.com/ray-remotestate/tableside/models"
	"github.com/ray-remotestate/tableside/storage"
)

const (
	CollectionOrders       = "orders"
	CollectionManualOrders = "manual_orders"
	CollectionDailyTotals  = "daily_totals"
	CollectionMenu         = "menu_items"
)

// Store groups the collections the service works on.
type Store struct {
	Orders       *storage.Collection[models.Order]
	ManualOrders *storage.Collection[models.ManualOrder]
	DailyTotals  *storage.Collection[models.DailyTotals]
	Menu         *storage.Collection[models.MenuItem]
}

type Options struct {
	// Tables lists the tables shown on the board, in display order.
	Tables            []string
	StrictTransitions bool
	RestaurantName    string
	Currency          string

	// PingRemote checks the remote store; nil means there is none.
	PingRemote func(ctx context.Context) error
	Now        func() time.Time
}

type Service struct {
	store    Store
	totals   *Totals
	alerts   *AlertBoard
	notifier *events.Notifier
	opts     Options
	now      func() time.Time
	log      *logrus.Entry
}

func NewService(store Store, notifier *events.Notifier, opts Options, log *logrus.Entry) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log = log.WithField("component", "restaurant")
	return &Service{
		store:    store,
		totals:   NewTotals(store.DailyTotals, now, log),
		alerts:   NewAlertBoard(),
		notifier: notifier,
		opts:     opts,
		now:      now,
		log:      log,
	}
}

func (s *Service) Totals() *Totals { return s.totals }

type SystemStatus struct {
	Status     string            `json:"status"`
	Storage    map[string]string `json:"storage"`
	Remote     string            `json:"remote"`
	Publishers []string          `json:"publishers"`
	Transports map[string]string `json:"transports"`
	Alerts     int               `json:"pending_alerts"`
	Tables     int               `json:"tables"`
	Time       time.Time         `json:"time"`
}

func (s *Service) SystemStatus(ctx context.Context) SystemStatus {
	st := SystemStatus{
		Status: "ok",
		Storage: map[string]string{
			CollectionOrders:       s.store.Orders.Mode(),
			CollectionManualOrders: s.store.ManualOrders.Mode(),
			CollectionDailyTotals:  s.store.DailyTotals.Mode(),
			CollectionMenu:         s.store.Menu.Mode(),
		},
		Remote:     "disabled",
		Publishers: s.notifier.Publishers(),
		Transports: s.notifier.Health(),
		Alerts:     len(s.alerts.List()),
		Tables:     len(s.opts.Tables),
		Time:       s.now(),
	}
	for name, health := range st.Transports {
		if health != "ok" {
			s.log.WithField("publisher", name).Warn("event transport unhealthy: " + health)
			st.Status = "degraded"
		}
	}
	if s.opts.PingRemote != nil {
		st.Remote = "connected"
		if err := s.opts.PingRemote(ctx); err != nil {
			s.log.WithError(err).Warn("remote store ping failed")
			st.Remote = "unreachable"
			st.Status = "degraded"
		}
	}
	return st
}

// ResetTotals drops the daily totals for date, or for every date when date is
// empty, and tells staff.
func (s *Service) ResetTotals(ctx context.Context, date string) int {
	n := s.totals.Reset(ctx, date)
	s.log.WithFields(logrus.Fields{"date": date, "removed": n}).Warn("daily totals reset")
	s.notifier.Publish(ctx, events.TotalsReset, map[string]any{"date": date, "removed": n}, events.GroupStaff)
	return n
}
