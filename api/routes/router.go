package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fleurly/fleurly-backend/api/controllers"
	"github.com/fleurly/fleurly-backend/api/middleware"
	"github.com/fleurly/fleurly-backend/internal/inventory"
	"github.com/fleurly/fleurly-backend/pkg/config"
	"github.com/fleurly/fleurly-backend/pkg/db"
	"github.com/fleurly/fleurly-backend/pkg/logger"
	"github.com/fleurly/fleurly-backend/pkg/redis"
)

// NewRouter assembles the inventory API surface. The redis client may be nil;
// idempotency replay is then disabled and readiness skips the redis check.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	inventoryService inventory.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisPing redis.Pinger
	var idemStore redis.IdempotencyStore
	if redisClient != nil {
		redisPing = redisClient
		idemStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPing))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/availability", controllers.CheckAvailability(inventoryService, logg))
			r.Post("/availability/batch", controllers.CheckBatchAvailability(inventoryService, logg))
			r.Get("/summary", controllers.InventorySummary(inventoryService, logg))
			r.Get("/items", controllers.ListWarehouseItems(inventoryService, logg))
			r.Post("/reservations/cleanup", controllers.CleanupReservations(inventoryService, cfg.Inventory.ReservationMaxAgeHours, logg))
		})

		r.Route("/orders/{orderID}", func(r chi.Router) {
			r.Post("/reservations", controllers.CreateReservations(inventoryService, logg))
			r.Get("/reservations", controllers.GetReservations(inventoryService, logg))
			r.Delete("/reservations", controllers.ReleaseReservations(inventoryService, logg))
			r.Post("/assemble", controllers.AssembleOrder(inventoryService, logg))
		})
	})

	return r
}
