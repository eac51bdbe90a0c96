package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/tableside/handlers"
	"github.com/ray-remotestate/tableside/middlewares"
	"github.com/ray-remotestate/tableside/models"
)

type Server struct {
	Router *mux.Router
	log    logrus.FieldLogger
	server *http.Server
}

const (
	readTimeout       = 5 * time.Minute
	readHeaderTimeout = 30 * time.Second
	writeTimeout      = 5 * time.Minute
)

// SetupRoutes mounts the public, staff and manager APIs plus the websocket
// endpoint served by ws.
func SetupRoutes(h *handlers.Handler, auth *middlewares.Authenticator, ws http.Handler, log logrus.FieldLogger) *Server {
	router := mux.NewRouter()

	router.HandleFunc("/health", handlers.Health).Methods("GET")
	router.Handle("/ws", ws).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/place-order", h.PlaceOrder).Methods("POST")
	api.HandleFunc("/call-staff", h.CallStaff).Methods("POST")
	api.HandleFunc("/menu", h.Menu).Methods("GET")
	api.HandleFunc("/staff/login", h.Login).Methods("POST")

	// staff n manager
	staff := router.PathPrefix("/api").Subrouter()
	staff.Use(auth.AuthMiddleware, middlewares.RoleBasedMiddleware(models.RoleStaff, models.RoleManager))

	staff.HandleFunc("/update-order-status", h.UpdateOrderStatus).Methods("POST")
	staff.HandleFunc("/orders", h.ListOrders).Methods("GET")
	staff.HandleFunc("/orders/stats", h.OrderStats).Methods("GET")
	staff.HandleFunc("/manual-order", h.AddManualOrder).Methods("POST")
	staff.HandleFunc("/manual-orders", h.ListManualOrders).Methods("GET")
	staff.HandleFunc("/daily-totals", h.DailyTotals).Methods("GET")
	staff.HandleFunc("/analytics", h.Analytics).Methods("GET")

	staff.HandleFunc("/alerts", h.ListAlerts).Methods("GET")
	staff.HandleFunc("/dismiss-alert", h.DismissAlert).Methods("POST")
	staff.HandleFunc("/tables", h.Tables).Methods("GET")
	staff.HandleFunc("/tables/clear-all-alerts", h.ClearAllAlerts).Methods("POST")
	staff.HandleFunc("/tables/{table}/clear-alerts", h.ClearTableAlerts).Methods("POST")

	staff.HandleFunc("/add-menu-item", h.AddMenuItem).Methods("POST")
	staff.HandleFunc("/menu-item/{id}/availability", h.SetMenuAvailability).Methods("PATCH")
	staff.HandleFunc("/menu/stats", h.MenuStats).Methods("GET")
	staff.HandleFunc("/system-status", h.SystemStatus).Methods("GET")

	// manager only
	manager := router.PathPrefix("/api").Subrouter()
	manager.Use(auth.AuthMiddleware, middlewares.RoleBasedMiddleware(models.RoleManager))

	manager.HandleFunc("/menu-item/{id}", h.DeleteMenuItem).Methods("DELETE")
	manager.HandleFunc("/clear-orders", h.ClearOrders).Methods("POST")
	manager.HandleFunc("/daily-totals/reset", h.ResetDailyTotals).Methods("POST")
	manager.HandleFunc("/generate-report", h.GenerateReport).Methods("POST")

	return &Server{
		Router: router,
		log:    log,
	}
}

// Handler wraps the router with CORS and request logging. Preflight and
// unmatched requests pass through both.
func (svr *Server) Handler() http.Handler {
	return middlewares.CORS(middlewares.RequestLogger(svr.log)(svr.Router))
}

func (svr *Server) Run(addr string) error {
	svr.server = &http.Server{
		Addr:              addr,
		Handler:           svr.Handler(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
	return svr.server.ListenAndServe()
}

func (svr *Server) Shutdown(timeout time.Duration) error {
	if svr.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return svr.server.Shutdown(ctx)
}
