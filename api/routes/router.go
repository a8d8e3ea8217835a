package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stockdeskhq/stockdesk-backend/api/controllers"
	"github.com/stockdeskhq/stockdesk-backend/api/middleware"
	"github.com/stockdeskhq/stockdesk-backend/internal/dashboard"
	"github.com/stockdeskhq/stockdesk-backend/internal/orders"
	"github.com/stockdeskhq/stockdesk-backend/internal/products"
	"github.com/stockdeskhq/stockdesk-backend/pkg/config"
	"github.com/stockdeskhq/stockdesk-backend/pkg/logger"
)

// Deps carries everything the router mounts.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Products    products.Service
	Orders      orders.Service
	Dashboard   *dashboard.Service
	MetricsGath prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	if deps.MetricsGath != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGath, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.Post("/", controllers.CreateProduct(deps.Products, logg))
			r.Get("/{productId}", controllers.GetProduct(deps.Products, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(deps.Products, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(deps.Products, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Post("/", controllers.CreateOrder(deps.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
			r.Patch("/{orderId}/status", controllers.UpdateOrderStatus(deps.Orders, logg))
			r.Delete("/{orderId}", controllers.DeleteOrder(deps.Orders, logg))
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/summary", controllers.DashboardSummary(deps.Dashboard, logg))
			r.Get("/revenue/monthly", controllers.DashboardMonthlyRevenue(deps.Dashboard, logg))
			r.Get("/low-stock", controllers.DashboardLowStock(deps.Dashboard, logg))
			r.Get("/recent-orders", controllers.DashboardRecentOrders(deps.Dashboard, logg))
		})
	})

	return r
}
