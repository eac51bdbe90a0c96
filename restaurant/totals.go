package restaurant

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/tableside/models"
	"github.com/ray-remotestate/tableside/storage"
)

type OrderKind string

const (
	KindDigital OrderKind = "digital"
	KindManual  OrderKind = "manual"
)

// Totals maintains one DailyTotals record per calendar day.
//
// Apply reads the whole collection, changes one record and writes everything
// back. The mutex makes that safe within a process; two processes sharing a
// store can still lose an update.
type Totals struct {
	mu   sync.Mutex
	coll *storage.Collection[models.DailyTotals]
	now  func() time.Time
	log  *logrus.Entry
}

func NewTotals(coll *storage.Collection[models.DailyTotals], now func() time.Time, log *logrus.Entry) *Totals {
	return &Totals{coll: coll, now: now, log: log.WithField("component", "totals")}
}

func (t *Totals) today() string {
	return t.now().Format(time.DateOnly)
}

// Today returns today's record, creating and persisting a zeroed one if
// needed.
func (t *Totals) Today(ctx context.Context) models.DailyTotals {
	t.mu.Lock()
	defer t.mu.Unlock()

	date := t.today()
	for _, d := range t.coll.Load(ctx) {
		if d.Date == date {
			return d
		}
	}
	rec := models.DailyTotals{Date: date, UpdatedAt: t.now()}
	return t.coll.Add(ctx, rec)
}

// Apply adds one order of the given kind and amount to today's record.
func (t *Totals) Apply(ctx context.Context, amount float64, kind OrderKind) models.DailyTotals {
	t.mu.Lock()
	defer t.mu.Unlock()

	date := t.today()
	all := t.coll.Load(ctx)
	idx := -1
	for i := range all {
		if all[i].Date == date {
			idx = i
			break
		}
	}
	if idx < 0 {
		all = append(all, models.DailyTotals{Date: date})
		idx = len(all) - 1
	}

	rec := all[idx]
	switch kind {
	case KindManual:
		rec.ManualOrders++
		rec.ManualRevenue = addMoney(rec.ManualRevenue, amount)
	default:
		rec.DigitalOrders++
		rec.DigitalRevenue = addMoney(rec.DigitalRevenue, amount)
	}
	rec.TotalOrders = rec.DigitalOrders + rec.ManualOrders
	rec.TotalRevenue = addMoney(rec.DigitalRevenue, rec.ManualRevenue)
	rec.UpdatedAt = t.now()
	all[idx] = rec

	t.coll.Save(ctx, all)
	t.log.WithFields(logrus.Fields{"date": date, "kind": kind, "amount": amount}).Debug("daily totals updated")
	return rec
}

// All returns every record, newest date first.
func (t *Totals) All(ctx context.Context) []models.DailyTotals {
	all := t.coll.Load(ctx)
	sort.Slice(all, func(i, j int) bool { return all[i].Date > all[j].Date })
	return all
}

// Reset deletes the record for date, or every record when date is empty. It
// returns how many records were removed.
func (t *Totals) Reset(ctx context.Context, date string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if date == "" {
		n := len(t.coll.Load(ctx))
		t.coll.Save(ctx, []models.DailyTotals{})
		return n
	}
	if t.coll.Delete(ctx, date) {
		return 1
	}
	return 0
}

func addMoney(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}
