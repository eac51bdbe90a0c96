package restaurant

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/tableside/events"
	"github.com/ray-remotestate/tableside/models"
)

// AlertBoard holds pending staff calls. Alerts live only in memory.
type AlertBoard struct {
	mu     sync.Mutex
	alerts []models.Alert
}

func NewAlertBoard() *AlertBoard {
	return &AlertBoard{}
}

func (b *AlertBoard) Add(a models.Alert) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alerts = append(b.alerts, a)
}

// List returns pending alerts, newest first.
func (b *AlertBoard) List() []models.Alert {
	b.mu.Lock()
	out := append([]models.Alert{}, b.alerts...)
	b.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (b *AlertBoard) Dismiss(id string) (models.Alert, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, a := range b.alerts {
		if a.ID == id {
			b.alerts = append(b.alerts[:i], b.alerts[i+1:]...)
			return a, true
		}
	}
	return models.Alert{}, false
}

func (b *AlertBoard) ClearTable(table models.TableNumber) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.alerts[:0]
	for _, a := range b.alerts {
		if a.TableNumber != table {
			kept = append(kept, a)
		}
	}
	n := len(b.alerts) - len(kept)
	b.alerts = kept
	return n
}

func (b *AlertBoard) ClearAll() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.alerts)
	b.alerts = nil
	return n
}

type CallStaffRequest struct {
	TableNumber  models.TableNumber `json:"table_number"`
	CustomerName string             `json:"customer_name"`
}

// CallStaff raises an alert for a table and notifies staff.
func (s *Service) CallStaff(ctx context.Context, req CallStaffRequest) (models.Alert, error) {
	name := strings.TrimSpace(req.CustomerName)
	if req.TableNumber == "" || name == "" {
		return models.Alert{}, invalid("Table number and customer name are required")
	}
	if !req.TableNumber.Valid() {
		return models.Alert{}, invalid("Invalid table number format")
	}

	alert := models.Alert{
		ID:           uuid.NewString(),
		TableNumber:  req.TableNumber,
		CustomerName: name,
		Type:         models.AlertTypeCallStaff,
		Status:       "pending",
		CreatedAt:    s.now(),
	}
	s.alerts.Add(alert)

	s.log.WithFields(logrus.Fields{"alert_id": alert.ID, "table": alert.TableNumber}).Info("staff called")
	s.notifier.Publish(ctx, events.NewAlert, alert, events.GroupStaff)
	return alert, nil
}

func (s *Service) Alerts(_ context.Context) []models.Alert {
	return s.alerts.List()
}

func (s *Service) DismissAlert(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invalid("Alert ID is required")
	}
	alert, ok := s.alerts.Dismiss(id)
	if !ok {
		return notFound("Alert not found")
	}
	s.notifier.Publish(ctx, events.AlertDismissed, map[string]string{"alert_id": id},
		events.GroupStaff, events.TableGroup(string(alert.TableNumber)))
	return nil
}

// ClearTableAlerts dismisses every alert for table, e.g. once it is cleaned.
func (s *Service) ClearTableAlerts(ctx context.Context, table models.TableNumber) (int, error) {
	if !table.Valid() {
		return 0, invalid("Invalid table number format")
	}
	n := s.alerts.ClearTable(table)
	s.notifier.Publish(ctx, events.TableCleaned, map[string]any{"table_number": table, "alerts_cleared": n},
		events.GroupStaff, events.TableGroup(string(table)))
	return n, nil
}

func (s *Service) ClearAllAlerts(ctx context.Context) int {
	n := s.alerts.ClearAll()
	s.notifier.Publish(ctx, events.TableCleaned, map[string]any{"table_number": "all", "alerts_cleared": n},
		events.GroupStaff)
	return n
}
