package main

import (
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/tableside/config"
	"github.com/ray-remotestate/tableside/database"
	"github.com/ray-remotestate/tableside/database/dbhelper"
	"github.com/ray-remotestate/tableside/events"
	"github.com/ray-remotestate/tableside/handlers"
	"github.com/ray-remotestate/tableside/middlewares"
	"github.com/ray-remotestate/tableside/models"
	"github.com/ray-remotestate/tableside/report"
	"github.com/ray-remotestate/tableside/restaurant"
	"github.com/ray-remotestate/tableside/server"
	"github.com/ray-remotestate/tableside/storage"
)

const connectTimeout = 15 * time.Second

type app struct {
	server  *server.Server
	hub     *events.Hub
	db      *sql.DB
	closers []io.Closer
}

// buildApp wires storage, events and the HTTP server from cfg. Optional
// backends that fail to start are logged and left out.
func buildApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	entry := logrus.NewEntry(log)
	a := &app{}

	fs, err := storage.NewFileStore(cfg.DataDir, cfg.BackupsToKeep, entry)
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL != "" {
		cctx, cancel := context.WithTimeout(ctx, connectTimeout)
		a.db, err = database.ConnectAndMigrate(cctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.WithError(err).Warn("remote store unavailable, running on local files only")
			a.db = nil
		}
	}

	menu, err := restaurant.DefaultMenu()
	if err != nil {
		return nil, err
	}
	store := restaurant.Store{
		Orders: collection[models.Order](a.db, cfg, dbhelper.OrdersSchema, restaurant.CollectionOrders,
			storage.NewLocalCollection[models.Order](fs, restaurant.CollectionOrders), entry),
		ManualOrders: collection[models.ManualOrder](a.db, cfg, dbhelper.ManualOrdersSchema, restaurant.CollectionManualOrders,
			storage.NewLocalCollection[models.ManualOrder](fs, restaurant.CollectionManualOrders), entry),
		DailyTotals: collection[models.DailyTotals](a.db, cfg, dbhelper.DailyTotalsSchema, restaurant.CollectionDailyTotals,
			storage.NewLocalCollection[models.DailyTotals](fs, restaurant.CollectionDailyTotals), entry),
		Menu: collection[models.MenuItem](a.db, cfg, dbhelper.MenuItemsSchema, restaurant.CollectionMenu,
			storage.NewMemoryCollection(menu), entry),
	}
	if len(store.Menu.Load(ctx)) == 0 {
		store.Menu.Save(ctx, menu)
	}

	a.hub = events.NewHub(entry)
	publishers := []events.Publisher{a.hub}
	if cfg.AMQPURL != "" {
		p, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.WithError(err).Warn("amqp publisher disabled")
		} else {
			publishers = append(publishers, p)
			a.closers = append(a.closers, p)
		}
	}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.WithError(err).Warn("kafka publisher disabled")
		} else {
			publishers = append(publishers, p)
			a.closers = append(a.closers, p)
		}
	}

	var archiver report.Archiver
	if cfg.ReportsBucket != "" {
		s3a, err := report.NewS3Archiver(ctx, cfg.ReportsRegion, cfg.ReportsBucket)
		if err != nil {
			log.WithError(err).Warn("report archiving disabled")
		} else {
			archiver = s3a
		}
	}

	opts := restaurant.Options{
		Tables:            cfg.Tables(),
		StrictTransitions: cfg.StrictTransitions,
		RestaurantName:    cfg.RestaurantName,
		Currency:          cfg.Currency,
	}
	if a.db != nil {
		opts.PingRemote = a.db.PingContext
	}
	svc := restaurant.NewService(store, events.NewNotifier(entry, publishers...), opts, entry)

	h := handlers.New(svc, handlers.AuthConfig{
		Secret:      cfg.JWTSecret,
		StaffHash:   cfg.StaffPasswordHash,
		ManagerHash: cfg.ManagerPasswordHash,
		TokenTTL:    cfg.TokenTTL,
	}, archiver, entry)
	auth := middlewares.NewAuthenticator(cfg.JWTSecret, entry)
	if !auth.Enabled() {
		log.Warn("JWT_SECRET_KEY not set, staff routes are open")
	}

	a.server = server.SetupRoutes(h, auth, a.hub, log)
	log.WithFields(logrus.Fields{
		"data_dir":   fs.Dir(),
		"remote":     a.db != nil,
		"publishers": len(publishers),
		"archiving":  archiver != nil,
	}).Info("application wired")
	return a, nil
}

func collection[T models.Record](db *sql.DB, cfg *config.Config, schema dbhelper.Schema, name string,
	local storage.Backend[T], log *logrus.Entry) *storage.Collection[T] {
	var remote storage.Backend[T]
	if db != nil {
		remote = dbhelper.NewRemote[T](db, schema, cfg.DBQueryTimeout)
	}
	return storage.NewCollection[T](name, remote, local, log)
}

// close stops the server, then every transport and the database.
func (a *app) close() error {
	var result *multierror.Error
	if err := a.server.Shutdown(shutdownTimeOut); err != nil {
		result = multierror.Append(result, err)
	}
	a.hub.Close()
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
