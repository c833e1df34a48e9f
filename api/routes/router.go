package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freightlane/loadboard-backend/api/controllers"
	"github.com/freightlane/loadboard-backend/api/middleware"
	"github.com/freightlane/loadboard-backend/internal/bids"
	"github.com/freightlane/loadboard-backend/internal/feeds"
	"github.com/freightlane/loadboard-backend/internal/loads"
	"github.com/freightlane/loadboard-backend/pkg/config"
	"github.com/freightlane/loadboard-backend/pkg/enums"
	"github.com/freightlane/loadboard-backend/pkg/logger"
	"github.com/freightlane/loadboard-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	redisClient *redis.Client,
	loadService loads.Service,
	bidService bids.Service,
	feedService feeds.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	writePolicy := middleware.NewWriteRateLimitPolicy(
		"write",
		cfg.RateLimit.WriteWindow,
		cfg.RateLimit.WriteIPLimit,
		cfg.RateLimit.WriteUserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
			r.Use(middleware.WriteRateLimit(writePolicy, redisClient, logg))
		}

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/loads", func(r chi.Router) {
			r.Get("/open", controllers.ListOpenLoads(loadService, logg))
			r.Get("/{loadID}", controllers.GetLoad(loadService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(logg, string(enums.CallerRoleBroker), string(enums.CallerRoleAdmin)))
				r.Post("/", controllers.CreateLoad(loadService, logg))
				r.Get("/", controllers.ListBrokerLoads(loadService, logg))
				r.Patch("/{loadID}/bidding", controllers.UpdateLoadBidding(loadService, logg))
				r.Post("/{loadID}/complete", controllers.CompleteLoad(loadService, logg))
				r.Post("/{loadID}/cancel", controllers.CancelLoad(loadService, logg))
				r.Get("/{loadID}/bids", controllers.ListLoadBids(bidService, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(logg, string(enums.CallerRoleTrucker), string(enums.CallerRoleAdmin)))
				r.Post("/{loadID}/bids", controllers.PlaceBid(bidService, logg))
				r.Post("/{loadID}/accept-rate", controllers.AcceptFixedRate(bidService, logg))
			})
		})

		r.Route("/v1/bids", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(logg, string(enums.CallerRoleTrucker), string(enums.CallerRoleAdmin)))
				r.Get("/", controllers.ListMyBids(bidService, logg))
				r.Patch("/{bidID}", controllers.EditBid(bidService, logg))
				r.Delete("/{bidID}", controllers.DeleteBid(bidService, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(logg, string(enums.CallerRoleBroker), string(enums.CallerRoleAdmin)))
				r.Post("/{bidID}/accept", controllers.AcceptBid(bidService, logg))
				r.Post("/{bidID}/reject", controllers.RejectBid(bidService, logg))
				r.Post("/{bidID}/undo", controllers.UndoBidDecision(bidService, logg))
			})
		})

		r.Route("/v1/feed", func(r chi.Router) {
			r.Get("/", controllers.ListFeed(feedService, logg))
			r.Post("/seen", controllers.MarkFeedSeen(feedService, logg))
		})
	})

	return r
}
