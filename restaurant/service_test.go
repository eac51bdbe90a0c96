package restaurant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jaswdr/faker"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ray-remotestate/tableside/events"
	"github.com/ray-remotestate/tableside/models"
	"github.com/ray-remotestate/tableside/storage"
)

type fixture struct {
	svc   *Service
	store Store
	rec   *events.Recorder
	now   time.Time
}

func newFixture(t *testing.T, strict bool) *fixture {
	t.Helper()
	log, _ := test.NewNullLogger()
	entry := logrus.NewEntry(log)

	fs, err := storage.NewFileStore(t.TempDir(), 10, entry)
	require.NoError(t, err)
	menu, err := DefaultMenu()
	require.NoError(t, err)

	store := Store{
		Orders:       storage.NewCollection[models.Order](CollectionOrders, nil, storage.NewLocalCollection[models.Order](fs, CollectionOrders), entry),
		ManualOrders: storage.NewCollection[models.ManualOrder](CollectionManualOrders, nil, storage.NewLocalCollection[models.ManualOrder](fs, CollectionManualOrders), entry),
		DailyTotals:  storage.NewCollection[models.DailyTotals](CollectionDailyTotals, nil, storage.NewLocalCollection[models.DailyTotals](fs, CollectionDailyTotals), entry),
		Menu:         storage.NewCollection[models.MenuItem](CollectionMenu, nil, storage.NewMemoryCollection(menu), entry),
	}

	f := &fixture{store: store, rec: &events.Recorder{}, now: time.Date(2026, 10, 19, 18, 30, 0, 0, time.UTC)}
	f.svc = NewService(store, events.NewNotifier(entry, f.rec), Options{
		Tables:            []string{"1", "2", "3", "4", "5", "VIP1"},
		StrictTransitions: strict,
		RestaurantName:    "Green Heaven Restaurant",
		Currency:          "LKR",
		Now:               func() time.Time { return f.now },
	}, entry)
	return f
}

func aliceOrder() PlaceOrderRequest {
	return PlaceOrderRequest{
		CustomerName: "Alice",
		TableNumber:  "5",
		Items:        []models.OrderItem{{ID: "x", Name: "X", Price: 100, Quantity: 2}},
		Total:        200,
	}
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	order, err := f.svc.PlaceOrder(ctx, aliceOrder())
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, "2026-10-19", order.Date)

	stored := f.store.Orders.Load(ctx)
	require.Len(t, stored, 1)
	assert.Equal(t, order.ID, stored[0].ID)

	today := f.svc.Totals().Today(ctx)
	assert.Equal(t, 1, today.DigitalOrders)
	assert.Equal(t, 200.0, today.DigitalRevenue)
	assert.Equal(t, 200.0, today.TotalRevenue)

	published := f.rec.Named(events.NewOrder)
	require.Len(t, published, 1)
	assert.Equal(t, events.GroupStaff, published[0].Group)
}

func TestPlaceOrderToleratesRounding(t *testing.T) {
	f := newFixture(t, false)
	req := PlaceOrderRequest{
		CustomerName: "Dinesh",
		TableNumber:  "VIP1",
		Items: []models.OrderItem{
			{ID: "a", Name: "A", Price: 0.1, Quantity: 3},
			{ID: "b", Name: "B", Price: 0.2, Quantity: 1},
		},
		Total: 0.5,
	}
	_, err := f.svc.PlaceOrder(context.Background(), req)
	assert.NoError(t, err)

	req.Total = 0.52
	_, err = f.svc.PlaceOrder(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPlaceOrderValidation(t *testing.T) {
	for name, tc := range map[string]struct {
		mutate func(*PlaceOrderRequest)
		msg    string
	}{
		"missing name":     {func(r *PlaceOrderRequest) { r.CustomerName = " " }, "Customer name is required"},
		"missing table":    {func(r *PlaceOrderRequest) { r.TableNumber = "" }, "Table number is required"},
		"bad table":        {func(r *PlaceOrderRequest) { r.TableNumber = "patio" }, "Invalid table number format"},
		"no items":         {func(r *PlaceOrderRequest) { r.Items = nil }, "Order items are required"},
		"zero total":       {func(r *PlaceOrderRequest) { r.Total = 0 }, "Valid total amount is required"},
		"item without id":  {func(r *PlaceOrderRequest) { r.Items[0].ID = " " }, "Invalid item structure"},
		"zero quantity":    {func(r *PlaceOrderRequest) { r.Items[0].Quantity = 0 }, "Invalid item quantity or price"},
		"negative price":   {func(r *PlaceOrderRequest) { r.Items[0].Price = -1 }, "Invalid item quantity or price"},
		"total mismatch":   {func(r *PlaceOrderRequest) { r.Items[0].Price = 150; r.Items[0].Quantity = 1; r.Total = 100 }, "Order total mismatch"},
		"mismatch by 0.02": {func(r *PlaceOrderRequest) { r.Total = 200.02 }, "Order total mismatch"},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, false)
			req := aliceOrder()
			tc.mutate(&req)

			_, err := f.svc.PlaceOrder(context.Background(), req)
			require.ErrorIs(t, err, ErrValidation)
			assert.EqualError(t, err, tc.msg)

			assert.Empty(t, f.store.Orders.Load(context.Background()))
			assert.Empty(t, f.svc.Totals().All(context.Background()))
			assert.Empty(t, f.rec.Events())
		})
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	order, err := f.svc.PlaceOrder(ctx, aliceOrder())
	require.NoError(t, err)
	f.rec.Reset()

	updated, err := f.svc.UpdateOrderStatus(ctx, order.ID, "Ready")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, updated.Status)

	stored := f.store.Orders.Load(ctx)
	assert.Equal(t, models.StatusReady, stored[0].Status)

	published := f.rec.Named(events.OrderStatusUpdated)
	require.Len(t, published, 2)
	assert.Equal(t, events.GroupStaff, published[0].Group)
	assert.Equal(t, "table_5", published[1].Group)
	assert.Equal(t, StatusUpdate{OrderID: order.ID, Status: models.StatusReady}, published[0].Payload)

	// permissive mode allows any known label
	_, err = f.svc.UpdateOrderStatus(ctx, order.ID, "pending")
	assert.NoError(t, err)

	_, err = f.svc.UpdateOrderStatus(ctx, order.ID, "served")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.UpdateOrderStatus(ctx, "missing", "ready")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.UpdateOrderStatus(ctx, "", "ready")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStrictTransitions(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	order, err := f.svc.PlaceOrder(ctx, aliceOrder())
	require.NoError(t, err)

	_, err = f.svc.UpdateOrderStatus(ctx, order.ID, "completed")
	assert.ErrorIs(t, err, ErrForbiddenTransition)
	assert.ErrorIs(t, err, ErrValidation)

	for _, st := range []string{"preparing", "ready", "completed"} {
		_, err = f.svc.UpdateOrderStatus(ctx, order.ID, st)
		require.NoError(t, err, st)
	}
	_, err = f.svc.UpdateOrderStatus(ctx, order.ID, "pending")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOrdersFilterAndStats(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	first, err := f.svc.PlaceOrder(ctx, aliceOrder())
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	second, err := f.svc.PlaceOrder(ctx, aliceOrder())
	require.NoError(t, err)
	_, err = f.svc.UpdateOrderStatus(ctx, first.ID, "cancelled")
	require.NoError(t, err)

	all, err := f.svc.Orders(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	pending, err := f.svc.Orders(ctx, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	_, err = f.svc.Orders(ctx, "bogus")
	assert.ErrorIs(t, err, ErrValidation)

	stats := f.svc.OrderStats(ctx)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[models.StatusCancelled])
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 2, stats.TodayOrders)
	assert.Equal(t, 200.0, stats.TodayRevenue)
}

func TestDailyTotalsDigitalAndManual(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	f.svc.Totals().Apply(ctx, 100, KindDigital)
	f.svc.Totals().Apply(ctx, 250, KindDigital)
	_, err := f.svc.AddManualOrder(ctx, ManualOrderRequest{ItemsDescription: "2x tea", Total: 100})
	require.NoError(t, err)

	today := f.svc.Totals().Today(ctx)
	assert.Equal(t, models.DailyTotals{
		Date:           "2026-10-19",
		DigitalOrders:  2,
		ManualOrders:   1,
		DigitalRevenue: 350,
		ManualRevenue:  100,
		TotalOrders:    3,
		TotalRevenue:   450,
		UpdatedAt:      today.UpdatedAt,
	}, today)
	assert.True(t, f.now.Equal(today.UpdatedAt))
}

func TestTodayCreatesRecordOnce(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	first := f.svc.Totals().Today(ctx)
	assert.Equal(t, "2026-10-19", first.Date)
	assert.Zero(t, first.TotalOrders)
	f.svc.Totals().Today(ctx)
	assert.Len(t, f.svc.Totals().All(ctx), 1)

	f.now = f.now.AddDate(0, 0, 1)
	f.svc.Totals().Apply(ctx, 10, KindDigital)
	all := f.svc.Totals().All(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "2026-10-20", all[0].Date)

	assert.Equal(t, 1, f.svc.Totals().Reset(ctx, "2026-10-19"))
	assert.Equal(t, 0, f.svc.Totals().Reset(ctx, "2026-10-19"))
	assert.Equal(t, 1, f.svc.Totals().Reset(ctx, ""))
	assert.Empty(t, f.svc.Totals().All(ctx))
}

func TestConcurrentApplyLosesNothing(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind := KindDigital
			if i%5 == 0 {
				kind = KindManual
			}
			f.svc.Totals().Apply(ctx, 10.10, kind)
		}(i)
	}
	wg.Wait()

	today := f.svc.Totals().Today(ctx)
	assert.Equal(t, 25, today.TotalOrders)
	assert.Equal(t, 5, today.ManualOrders)
	assert.Equal(t, 252.5, today.TotalRevenue)
}

func TestManualOrders(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	order, err := f.svc.AddManualOrder(ctx, ManualOrderRequest{ItemsDescription: " 1x Fish Curry ", Total: 1450, Notes: "no chili"})
	require.NoError(t, err)
	assert.Equal(t, WalkInCustomer, order.CustomerName)
	assert.Equal(t, models.TableNumber(TakeoutTable), order.TableNumber)
	assert.Equal(t, "1x Fish Curry", order.ItemsDescription)
	assert.Equal(t, models.ManualOrderType, order.Type)

	_, err = f.svc.AddManualOrder(ctx, ManualOrderRequest{Total: 10})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.AddManualOrder(ctx, ManualOrderRequest{ItemsDescription: "tea", Total: 0})
	assert.ErrorIs(t, err, ErrValidation)

	list, err := f.svc.ManualOrders(ctx, "2026-10-19")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = f.svc.ManualOrders(ctx, "2026-10-18")
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = f.svc.ManualOrders(ctx, "19/10/2026")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCallStaffAndAlerts(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	name := faker.New().Person().FirstName()

	alert, err := f.svc.CallStaff(ctx, CallStaffRequest{TableNumber: "3", CustomerName: name})
	require.NoError(t, err)
	assert.Equal(t, models.AlertTypeCallStaff, alert.Type)
	assert.Len(t, f.rec.Named(events.NewAlert), 1)

	_, err = f.svc.CallStaff(ctx, CallStaffRequest{TableNumber: "patio", CustomerName: name})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.CallStaff(ctx, CallStaffRequest{TableNumber: "3"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CallStaff(ctx, CallStaffRequest{TableNumber: "VIP1", CustomerName: name})
	require.NoError(t, err)
	assert.Len(t, f.svc.Alerts(ctx), 2)

	err = f.svc.DismissAlert(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, f.svc.DismissAlert(ctx, alert.ID))
	assert.Len(t, f.svc.Alerts(ctx), 1)

	n, err := f.svc.ClearTableAlerts(ctx, "VIP1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, f.svc.Alerts(ctx))

	_, err = f.svc.CallStaff(ctx, CallStaffRequest{TableNumber: "1", CustomerName: name})
	require.NoError(t, err)
	assert.Equal(t, 1, f.svc.ClearAllAlerts(ctx))
}

func TestTablesBoard(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.PlaceOrder(ctx, aliceOrder())
	require.NoError(t, err)
	done, err := f.svc.PlaceOrder(ctx, PlaceOrderRequest{
		CustomerName: "Eve", TableNumber: "2",
		Items: []models.OrderItem{{ID: "x", Name: "X", Price: 50, Quantity: 1}}, Total: 50,
	})
	require.NoError(t, err)
	_, err = f.svc.UpdateOrderStatus(ctx, done.ID, "completed")
	require.NoError(t, err)
	_, err = f.svc.CallStaff(ctx, CallStaffRequest{TableNumber: "VIP1", CustomerName: "Frank"})
	require.NoError(t, err)
	_, err = f.svc.CallStaff(ctx, CallStaffRequest{TableNumber: "9", CustomerName: "Grace"})
	require.NoError(t, err)

	tables := f.svc.Tables(ctx)
	require.Len(t, tables, 7)

	byNumber := map[models.TableNumber]Table{}
	for _, tb := range tables {
		byNumber[tb.Number] = tb
	}
	assert.Equal(t, TableOccupied, byNumber["5"].Status)
	assert.Equal(t, "Alice", byNumber["5"].CustomerName)
	assert.Equal(t, 200.0, byNumber["5"].TotalAmount)
	assert.Equal(t, TableEmpty, byNumber["2"].Status)
	assert.Equal(t, TableNeedsAttention, byNumber["VIP1"].Status)
	assert.Equal(t, models.TableNumber("9"), tables[6].Number)
	assert.Nil(t, byNumber["1"].LastActivity)
}

func TestTablesBoardListsOrdersOldestFirst(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	first, err := f.svc.PlaceOrder(ctx, aliceOrder())
	require.NoError(t, err)
	f.now = f.now.Add(10 * time.Minute)
	second, err := f.svc.PlaceOrder(ctx, PlaceOrderRequest{
		CustomerName: "Bob", TableNumber: "5",
		Items: []models.OrderItem{{ID: "y", Name: "Y", Price: 75.5, Quantity: 1}}, Total: 75.5,
	})
	require.NoError(t, err)

	var five Table
	for _, tb := range f.svc.Tables(ctx) {
		if tb.Number == "5" {
			five = tb
		}
	}
	require.Len(t, five.Orders, 2)
	assert.Equal(t, first.ID, five.Orders[0].ID)
	assert.Equal(t, second.ID, five.Orders[1].ID)
	assert.Equal(t, "Bob", five.CustomerName)
	assert.Equal(t, 275.5, five.TotalAmount)
	require.NotNil(t, five.LastActivity)
	assert.True(t, f.now.Equal(*five.LastActivity))
}

func TestClearOrders(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.PlaceOrder(ctx, aliceOrder())
	require.NoError(t, err)
	_, err = f.svc.AddManualOrder(ctx, ManualOrderRequest{ItemsDescription: "tea", Total: 100})
	require.NoError(t, err)
	_, err = f.svc.CallStaff(ctx, CallStaffRequest{TableNumber: "1", CustomerName: "Ann"})
	require.NoError(t, err)

	res := f.svc.ClearOrders(ctx)
	assert.Equal(t, ClearResult{Orders: 1, ManualOrders: 1, Alerts: 1}, res)
	assert.Empty(t, f.store.Orders.Load(ctx))
	assert.Empty(t, f.store.ManualOrders.Load(ctx))
	assert.Equal(t, 2, f.svc.Totals().Today(ctx).TotalOrders)
	assert.Len(t, f.rec.Named(events.OrdersCleared), 1)
}

func TestMenu(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	menu := f.svc.Menu(ctx, MenuFilter{})
	require.Len(t, menu, 6)
	assert.Equal(t, "Appetizers", menu[0].Category)

	item, err := f.svc.AddMenuItem(ctx, MenuItemRequest{Name: "Watalappan", Price: 600})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCategory, item.Category)
	assert.True(t, item.Available)
	assert.Len(t, f.rec.Named(events.MenuUpdated), 1)

	_, err = f.svc.AddMenuItem(ctx, MenuItemRequest{Name: "Free", Price: 0})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.AddMenuItem(ctx, MenuItemRequest{Name: "Odd", Price: 1, Category: "Snacks"})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := f.svc.SetMenuAvailability(ctx, "hoppers", false)
	require.NoError(t, err)
	assert.False(t, updated.Available)
	_, err = f.svc.SetMenuAvailability(ctx, "nope", false)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, f.svc.Menu(ctx, MenuFilter{AvailableOnly: true}), 6)
	assert.Len(t, f.svc.Menu(ctx, MenuFilter{Category: "beverages"}), 1)

	require.NoError(t, f.svc.DeleteMenuItem(ctx, item.ID))
	assert.ErrorIs(t, f.svc.DeleteMenuItem(ctx, item.ID), ErrNotFound)
	assert.Len(t, f.rec.Named(events.MenuItemDeleted), 1)

	stats := f.svc.MenuStats(ctx)
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 1, stats.Unavailable)
	assert.Equal(t, 2, stats.Categories["Sri Lankan Specials"])
	assert.Equal(t, storage.ModeLocal, stats.Source)
}

func TestAnalyticsAndReport(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.PlaceOrder(ctx, PlaceOrderRequest{
		CustomerName: "Alice", TableNumber: "5",
		Items: []models.OrderItem{
			{ID: "kottu-roti", Name: "Chicken Kottu Roti", Price: 950, Quantity: 2},
			{ID: "mango-lassi", Name: "Fresh Mango Lassi", Price: 350, Quantity: 1},
		},
		Total: 2250,
	})
	require.NoError(t, err)
	_, err = f.svc.AddManualOrder(ctx, ManualOrderRequest{ItemsDescription: "tea", Total: 250})
	require.NoError(t, err)

	a, err := f.svc.Analytics(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-19", a.From)
	assert.Equal(t, "2026-10-19", a.To)
	assert.Equal(t, 2, a.Summary.TotalOrders)
	assert.Equal(t, 2500.0, a.Summary.TotalRevenue)
	assert.Equal(t, 1250.0, a.Summary.AverageOrder)
	require.Len(t, a.TopItems, 2)
	assert.Equal(t, "kottu-roti", a.TopItems[0].ID)
	assert.Equal(t, 1900.0, a.TopItems[0].Revenue)
	assert.Equal(t, 1, a.ByHour[18])
	assert.Equal(t, "5", a.BusiestTable)
	require.Len(t, a.DailyTotals, 1)

	rep, err := f.svc.Report(ctx, "2026-10-20", "2026-10-31")
	require.NoError(t, err)
	assert.Empty(t, rep.Digital)
	assert.Equal(t, "Green Heaven Restaurant", rep.Restaurant)

	_, err = f.svc.Report(ctx, "2026-10-20", "2026-10-01")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.Report(ctx, "yesterday", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSystemStatus(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	st := f.svc.SystemStatus(ctx)
	assert.Equal(t, "ok", st.Status)
	assert.Equal(t, "disabled", st.Remote)
	assert.Equal(t, storage.ModeLocal, st.Storage[CollectionOrders])
	assert.Equal(t, []string{"recorder"}, st.Publishers)
	assert.Equal(t, map[string]string{"recorder": "ok"}, st.Transports)

	f.svc.opts.PingRemote = func(context.Context) error { return errors.New("timeout") }
	st = f.svc.SystemStatus(ctx)
	assert.Equal(t, "degraded", st.Status)
	assert.Equal(t, "unreachable", st.Remote)
}

func TestDefaultMenu(t *testing.T) {
	items, err := DefaultMenu()
	require.NoError(t, err)
	require.Len(t, items, 6)
	for _, it := range items {
		assert.True(t, models.IsMenuCategory(it.Category), it.ID)
		assert.Positive(t, it.Price)
		assert.True(t, it.Available)
	}
}
