package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pulanodus/tableserve-backend/api/controllers"
	"github.com/pulanodus/tableserve-backend/api/middleware"
	"github.com/pulanodus/tableserve-backend/internal/billing"
	"github.com/pulanodus/tableserve-backend/internal/cart"
	"github.com/pulanodus/tableserve-backend/internal/menu"
	"github.com/pulanodus/tableserve-backend/internal/orders"
	"github.com/pulanodus/tableserve-backend/internal/payments"
	"github.com/pulanodus/tableserve-backend/internal/sessions"
	"github.com/pulanodus/tableserve-backend/internal/splits"
	"github.com/pulanodus/tableserve-backend/internal/tables"
	"github.com/pulanodus/tableserve-backend/pkg/config"
	"github.com/pulanodus/tableserve-backend/pkg/logger"
	"github.com/pulanodus/tableserve-backend/pkg/metrics"
	"github.com/pulanodus/tableserve-backend/pkg/redis"
)

type pinger interface {
	Ping(context.Context) error
}

// RouterParams groups everything the HTTP surface needs.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    pinger
	RedisClient *redis.Client
	HTTPMetrics *metrics.HTTPMetrics
	Registry    prometheus.Gatherer

	Tables   tables.Service
	Sessions sessions.Service
	Menu     menu.Service
	Cart     cart.Service
	Splits   splits.Service
	Billing  billing.Service
	Payments payments.Service
	Orders   orders.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, p.HTTPMetrics),
		middleware.CORS(),
	)

	var redisPinger pinger
	if p.RedisClient != nil {
		redisPinger = p.RedisClient
	}
	r.Get("/healthz", controllers.HealthReady(p.DBPinger, redisPinger, logg))
	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Idempotency(p.RedisClient, logg))
		r.Use(middleware.SessionRateLimit(p.RedisClient, cfg.RateLimit.CartLimit, cfg.RateLimit.CartWindow, logg))

		r.Route("/tables", func(r chi.Router) {
			r.Post("/", controllers.TableCreate(p.Tables, logg))
			r.Get("/", controllers.TableList(p.Tables, logg))
			r.Get("/{tableID}/qr", controllers.TableQRToken(p.Tables, logg))
			r.Patch("/{tableID}", controllers.TableUpdate(p.Tables, logg))
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", controllers.SessionStart(p.Sessions, logg))
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", controllers.SessionGet(p.Sessions, logg))
				r.Post("/diners", controllers.SessionJoin(p.Sessions, logg))
				r.Post("/close", controllers.SessionClose(p.Sessions, logg))

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", controllers.CartGet(p.Cart, logg))
					r.Post("/items", controllers.CartAddItem(p.Cart, logg))
					r.Post("/confirm", controllers.CartConfirm(p.Cart, logg))
					r.Delete("/", controllers.CartClear(p.Cart, logg))
				})

				r.Get("/bill", controllers.BillSession(p.Billing, logg))
				r.Get("/bill/{dinerName}", controllers.BillDiner(p.Billing, logg))

				r.Route("/payments", func(r chi.Router) {
					r.Post("/", controllers.PaymentRecord(p.Payments, logg))
					r.Get("/", controllers.PaymentList(p.Payments, logg))
				})

				r.Get("/orders", controllers.OrdersBySession(p.Orders, logg))
			})
		})

		r.Route("/menu", func(r chi.Router) {
			r.Get("/", controllers.MenuList(p.Menu, logg))
			r.Post("/", controllers.MenuCreate(p.Menu, logg))
			r.Patch("/{itemID}", controllers.MenuUpdate(p.Menu, logg))
		})

		r.Route("/cart/lines/{lineID}", func(r chi.Router) {
			r.Patch("/quantity", controllers.CartSetQuantity(p.Cart, logg))
			r.Delete("/", controllers.CartRemoveLine(p.Cart, logg))

			r.Route("/split", func(r chi.Router) {
				r.Post("/", controllers.SplitCreate(p.Splits, logg))
				r.Put("/participants", controllers.SplitUpdateParticipants(p.Splits, logg))
				r.Get("/share", controllers.SplitShare(p.Splits, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/open", controllers.OrdersOpen(p.Orders, logg))
			r.Post("/lines/{lineID}/served", controllers.OrderMarkServed(p.Orders, logg))
		})
	})

	return r
}
