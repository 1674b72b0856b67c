package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/nexus-cards-backend/api/controllers"
	"github.com/angelmondragon/nexus-cards-backend/api/middleware"
	"github.com/angelmondragon/nexus-cards-backend/internal/catalog"
	checkoutsvc "github.com/angelmondragon/nexus-cards-backend/internal/checkout"
	"github.com/angelmondragon/nexus-cards-backend/internal/orders"
	"github.com/angelmondragon/nexus-cards-backend/internal/payments"
	"github.com/angelmondragon/nexus-cards-backend/pkg/config"
	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/nexus-cards-backend/pkg/redis"
)

type redisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, deliveryID string) (bool, error)
	Delete(ctx context.Context, deliveryID string) error
}

// Params carries everything the HTTP surface is wired to.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.ReadinessCheck
	Redis    redisStore
	Metrics  http.Handler
	Cart     controllers.CartService
	Checkout checkoutsvc.Service
	Orders   orders.Service
	Ledger   controllers.LedgerService
	Catalog  catalog.Service
	Payments payments.Service
	Webhooks webhookGuard
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, controllers.ReadinessCheck{Name: "redis", Dep: p.Redis}))
	})
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics)
	}

	sessionPolicy := middleware.NewRateLimitPolicy("session", time.Minute, cfg.HTTP.RateLimitPerMinute)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/payments", controllers.PaymentsWebhook(p.Payments, p.Webhooks, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(logg))
			r.Use(middleware.RateLimit(sessionPolicy, p.Redis, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(p.Cart, logg))
				r.Delete("/", controllers.CartClear(p.Cart, logg))
				r.Post("/items", controllers.CartAddItem(p.Cart, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(p.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(p.Cart, logg))
				r.Post("/items/{itemId}/renew", controllers.CartRenewItem(p.Cart, logg))
			})
			r.With(middleware.Idempotency(p.Redis, cfg.HTTP.IdempotencyTTL, logg)).
				Post("/checkout", controllers.Checkout(p.Checkout, logg))
		})

		r.Get("/orders/{orderNumber}", controllers.OrderDetail(p.Orders, logg))

		r.Get("/inventory/{skuId}", controllers.InventoryLevel(p.Ledger, logg))
		r.Get("/inventory/{skuId}/movements", controllers.InventoryMovements(p.Ledger, logg))
		r.Get("/skus/{skuId}", controllers.SKUDetail(p.Catalog, logg))

		// catalog and stock writes are staff only
		r.Group(func(r chi.Router) {
			r.Use(middleware.StaffAuth(cfg.AdminAuth, logg))

			r.With(middleware.RequireStaffRole(logg, enums.StaffRoleAdmin, enums.StaffRoleStock)).
				Post("/inventory/{skuId}/restock", controllers.InventoryRestock(p.Ledger, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireStaffRole(logg, enums.StaffRoleAdmin))
				r.Post("/products", controllers.ProductCreate(p.Catalog, logg))
				r.Post("/skus", controllers.SKUCreate(p.Catalog, logg))
				r.Patch("/skus/{skuId}/prices", controllers.SKUUpdatePrices(p.Catalog, logg))
			})
		})
	})

	return r
}
