//go:build container

package dbhelper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ray-remotestate/tableside/database"
	"github.com/ray-remotestate/tableside/models"
	"github.com/ray-remotestate/tableside/storage"
)

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "tableside",
			"POSTGRES_PASSWORD": "tableside",
			"POSTGRES_DB":       "tableside",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pg, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pg.Terminate(context.Background())
	})

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://tableside:tableside@%s:%s/tableside?sslmode=disable", host, port.Port())
}

func TestRemoteAgainstPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	db, err := database.ConnectAndMigrate(ctx, startPostgres(t, ctx))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	orders := NewRemote[models.Order](db, OrdersSchema, 5*time.Second)
	order := sampleOrder()

	_, err = orders.Add(ctx, order)
	require.NoError(t, err)

	found, err := orders.Update(ctx, order.ID, models.Patch{"status": "ready"})
	require.NoError(t, err)
	assert.True(t, found)

	found, err = orders.Update(ctx, "missing", models.Patch{"status": "ready"})
	require.NoError(t, err)
	assert.False(t, found)

	loaded, err := orders.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, models.StatusReady, loaded[0].Status)
	assert.Equal(t, order.Items, loaded[0].Items)
	assert.Equal(t, order.Total, loaded[0].Total)
	assert.Equal(t, order.Date, loaded[0].Date)
	assert.True(t, order.CreatedAt.Equal(loaded[0].CreatedAt))

	totals := NewRemote[models.DailyTotals](db, DailyTotalsSchema, 5*time.Second)
	day := models.DailyTotals{Date: "2026-10-19", DigitalOrders: 1, DigitalRevenue: 350, TotalOrders: 1, TotalRevenue: 350, UpdatedAt: time.Now().UTC()}
	require.NoError(t, totals.Save(ctx, []models.DailyTotals{day}))
	day.ManualOrders, day.ManualRevenue, day.TotalOrders, day.TotalRevenue = 1, 100, 2, 450
	_, err = totals.Add(ctx, day)
	require.NoError(t, err)

	days, err := totals.Load(ctx)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 2, days[0].TotalOrders)
	assert.Equal(t, 450.0, days[0].TotalRevenue)

	deleted, err := orders.Delete(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestCollectionFallsBackWhenPostgresStops(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	db, err := database.ConnectAndMigrate(ctx, startPostgres(t, ctx))
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	store, err := storage.NewFileStore(t.TempDir(), 10, logrus.NewEntry(log))
	require.NoError(t, err)
	orders := storage.NewCollection[models.Order]("orders",
		NewRemote[models.Order](db, OrdersSchema, time.Second),
		storage.NewLocalCollection[models.Order](store, "orders"),
		logrus.NewEntry(log))

	order := sampleOrder()
	orders.Add(ctx, order)
	require.NoError(t, db.Close())

	loaded := orders.Load(ctx)
	require.Len(t, loaded, 1)
	assert.Equal(t, order.ID, loaded[0].ID)
}
