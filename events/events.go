// Package events fans domain events out to connected staff and customer
// clients, and optionally to a message broker.
package events

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const GroupStaff = "staff"

const (
	NewOrder           = "new_order"
	OrderStatusUpdated = "order_status_updated"
	OrdersCleared      = "orders_cleared"
	NewAlert           = "new_alert"
	AlertDismissed     = "alert_dismissed"
	TableCleaned       = "table_cleaned"
	MenuUpdated        = "menu_updated"
	MenuItemDeleted    = "menu_item_deleted"
	TotalsReset        = "daily_totals_reset"
)

// TableGroup is the group a customer at table joins.
func TableGroup(table string) string {
	return "table_" + table
}

// Event is one message for one group. An empty Group means every client.
type Event struct {
	Name    string    `json:"event"`
	Group   string    `json:"group,omitempty"`
	Payload any       `json:"data"`
	At      time.Time `json:"at"`
}

type Publisher interface {
	Name() string
	Publish(ctx context.Context, e Event) error
}

// Pinger is implemented by publishers that hold a broker connection.
type Pinger interface {
	Ping() error
}

// Notifier delivers events to every publisher. Delivery is best effort:
// failures are logged and never reach the caller.
type Notifier struct {
	publishers []Publisher
	log        *logrus.Entry
	now        func() time.Time
}

func NewNotifier(log *logrus.Entry, publishers ...Publisher) *Notifier {
	return &Notifier{
		publishers: publishers,
		log:        log.WithField("component", "notifier"),
		now:        time.Now,
	}
}

func (n *Notifier) Publishers() []string {
	names := make([]string, 0, len(n.publishers))
	for _, p := range n.publishers {
		names = append(names, p.Name())
	}
	return names
}

// Health reports each publisher as "ok" or the error its Ping returned.
func (n *Notifier) Health() map[string]string {
	out := make(map[string]string, len(n.publishers))
	for _, p := range n.publishers {
		status := "ok"
		if pg, ok := p.(Pinger); ok {
			if err := pg.Ping(); err != nil {
				status = err.Error()
			}
		}
		out[p.Name()] = status
	}
	return out
}

// Publish sends name/payload to each group, or broadcasts when no group is
// given.
func (n *Notifier) Publish(ctx context.Context, name string, payload any, groups ...string) {
	if len(groups) == 0 {
		groups = []string{""}
	}
	at := n.now()
	for _, g := range groups {
		e := Event{Name: name, Group: g, Payload: payload, At: at}
		for _, p := range n.publishers {
			if err := p.Publish(ctx, e); err != nil {
				n.log.WithError(err).WithFields(logrus.Fields{
					"publisher": p.Name(),
					"event":     name,
					"group":     g,
				}).Warn("event delivery failed")
			}
		}
	}
}
