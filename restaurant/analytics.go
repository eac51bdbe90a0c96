package restaurant

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ray-remotestate/tableside/models"
	"github.com/ray-remotestate/tableside/report"
)

const defaultRangeDays = 30

// DateRange resolves an inclusive [from, to] pair of YYYY-MM-DD dates. Missing
// ends default to the last 30 days ending today.
func DateRange(from, to string, now time.Time) (string, string, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)

	end := now
	if to != "" {
		t, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return "", "", invalid("Invalid end date, use YYYY-MM-DD")
		}
		end = t
	}
	start := end.AddDate(0, 0, -defaultRangeDays)
	if from != "" {
		t, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return "", "", invalid("Invalid start date, use YYYY-MM-DD")
		}
		start = t
	}

	f, e := start.Format(time.DateOnly), end.Format(time.DateOnly)
	if f > e {
		return "", "", invalid("Start date must not be after end date")
	}
	return f, e, nil
}

// Report collects the sales report for a date range.
func (s *Service) Report(ctx context.Context, from, to string) (report.Report, error) {
	f, e, err := DateRange(from, to, s.now())
	if err != nil {
		return report.Report{}, err
	}
	return report.Build(s.store.Orders.Load(ctx), s.store.ManualOrders.Load(ctx), f, e, report.Meta{
		Restaurant:  s.opts.RestaurantName,
		Currency:    s.opts.Currency,
		GeneratedAt: s.now(),
	}), nil
}

type ItemSales struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type Analytics struct {
	From          string                     `json:"from"`
	To            string                     `json:"to"`
	Summary       report.Summary             `json:"summary"`
	ByStatus      map[models.OrderStatus]int `json:"orders_by_status"`
	ByHour        map[int]int                `json:"orders_by_hour"`
	TopItems      []ItemSales                `json:"top_items"`
	DailyTotals   []models.DailyTotals       `json:"daily_totals"`
	BusiestTable  string                     `json:"busiest_table,omitempty"`
	CancelledRate float64                    `json:"cancelled_rate"`
}

const topItems = 5

// Analytics summarises orders within a date range for the manager dashboard.
func (s *Service) Analytics(ctx context.Context, from, to string) (Analytics, error) {
	rep, err := s.Report(ctx, from, to)
	if err != nil {
		return Analytics{}, err
	}

	a := Analytics{
		From:        rep.From,
		To:          rep.To,
		Summary:     rep.Summary,
		ByStatus:    map[models.OrderStatus]int{},
		ByHour:      map[int]int{},
		TopItems:    []ItemSales{},
		DailyTotals: []models.DailyTotals{},
	}

	items := map[string]*ItemSales{}
	revenue := map[string]decimal.Decimal{}
	tables := map[string]int{}
	digital := 0
	for _, o := range s.store.Orders.Load(ctx) {
		if o.Date < rep.From || o.Date > rep.To {
			continue
		}
		digital++
		a.ByStatus[o.Status]++
		a.ByHour[o.CreatedAt.Hour()]++
		tables[string(o.TableNumber)]++
		if o.Status == models.StatusCancelled {
			continue
		}
		for _, it := range o.Items {
			is, ok := items[it.ID]
			if !ok {
				is = &ItemSales{ID: it.ID, Name: it.Name}
				items[it.ID] = is
			}
			is.Quantity += it.Quantity
			revenue[it.ID] = revenue[it.ID].Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}

	for id, is := range items {
		is.Revenue = revenue[id].Round(2).InexactFloat64()
		a.TopItems = append(a.TopItems, *is)
	}
	sort.Slice(a.TopItems, func(i, j int) bool {
		if a.TopItems[i].Quantity != a.TopItems[j].Quantity {
			return a.TopItems[i].Quantity > a.TopItems[j].Quantity
		}
		return a.TopItems[i].Name < a.TopItems[j].Name
	})
	if len(a.TopItems) > topItems {
		a.TopItems = a.TopItems[:topItems]
	}

	best := 0
	for table, n := range tables {
		if n > best || (n == best && table < a.BusiestTable) {
			best, a.BusiestTable = n, table
		}
	}
	if digital > 0 {
		a.CancelledRate = decimal.NewFromInt(int64(a.ByStatus[models.StatusCancelled])).
			Div(decimal.NewFromInt(int64(digital))).Round(4).InexactFloat64()
	}

	for _, d := range s.totals.All(ctx) {
		if d.Date >= rep.From && d.Date <= rep.To {
			a.DailyTotals = append(a.DailyTotals, d)
		}
	}
	return a, nil
}
