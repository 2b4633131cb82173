package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kiwari-pos/resto/internal/config"
	"github.com/kiwari-pos/resto/internal/database"
	"github.com/kiwari-pos/resto/internal/handler"
	mw "github.com/kiwari-pos/resto/internal/middleware"
	"github.com/kiwari-pos/resto/internal/service"
	"github.com/kiwari-pos/resto/internal/ws"
)

// Services bundles what the routes call into.
type Services struct {
	Orders *service.OrderService
	Tables *service.TableService
	Stock  *service.StockService
}

// NewServices wires the services onto one pool. Every store is a
// *database.Queries bound to either the pool or a transaction.
func NewServices(cfg *config.Config, db service.DB) *Services {
	return &Services{
		Orders: service.NewOrderService(db, func(d database.DBTX) service.OrderStore {
			return database.New(d)
		}),
		Tables: service.NewTableService(db, func(d database.DBTX) service.TableStore {
			return database.New(d)
		}, cfg.JWTSecret, cfg.TableTokenTTL),
		Stock: service.NewStockService(db, func(d database.DBTX) service.StockStore {
			return database.New(d)
		}),
	}
}

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, svcs *Services, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	orderHandler := handler.NewOrderHandler(svcs.Orders, hub)
	tableHandler := handler.NewTableHandler(svcs.Tables, hub)
	stockHandler := handler.NewStockHandler(svcs.Stock)
	customerHandler := handler.NewCustomerHandler(svcs.Orders, svcs.Tables, hub)
	userHandler := handler.NewUserHandler(queries)

	// Public: the customer landing page lists free tables before scanning.
	r.Get("/tables/available", tableHandler.ListAvailable)

	// WebSocket routes authenticate via ?token= query param.
	r.Get("/ws/staff", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeStaffWS(hub, cfg.JWTSecret, w, r)
	})
	r.Get("/ws/table", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeTableWS(hub, cfg.JWTSecret, w, r)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Staff routes. Per-route role checks live in each handler.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireStaff)
			r.Route("/orders", orderHandler.RegisterRoutes)
			r.Route("/tables", tableHandler.RegisterRoutes)
			r.Route("/stock", stockHandler.RegisterRoutes)
			r.Route("/users", userHandler.RegisterRoutes)
		})

		// Customer routes, scoped to the table in the token.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireTableToken)
			r.Route("/customer", customerHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
