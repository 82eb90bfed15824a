package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Lava-10/knowMoreQR/internal/catalog"
	"github.com/Lava-10/knowMoreQR/internal/repository"
	"github.com/Lava-10/knowMoreQR/pkg/health"
	"github.com/Lava-10/knowMoreQR/pkg/middleware"
)

// RouterDeps collects everything the router wires together.
type RouterDeps struct {
	ServiceName    string
	Environment    string
	AllowedOrigins []string
	RequestTimeout time.Duration

	Resolver       CommandResolver
	Wishlist       WishlistService
	Lookup         catalog.Lookup
	Catalog        repository.CatalogRepository
	Health         *health.Handler
	TokenValidator middleware.TokenValidator
	// CommandLimiter throttles the command endpoints. Nil disables limiting.
	CommandLimiter *middleware.RateLimiter
	Logger         *slog.Logger
}

// NewRouter creates a chi router with all wishlist service routes registered.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogging(d.Logger))
	r.Use(middleware.Tracing(d.ServiceName))
	r.Use(middleware.PrometheusMetrics(d.ServiceName))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.CORS(d.AllowedOrigins, d.Environment))
	r.Use(chimw.Compress(5, "application/json"))

	// Health check and scrape endpoints
	r.Get("/health/live", d.Health.LivenessHandler())
	r.Get("/health/ready", d.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	commandHandler := NewCommandHandler(d.Resolver, d.Logger)
	wishlistHandler := NewWishlistHandler(d.Wishlist, d.Logger)
	catalogHandler := NewCatalogHandler(d.Lookup, d.Catalog, d.Logger)

	r.Group(func(r chi.Router) {
		if d.RequestTimeout > 0 {
			r.Use(chimw.Timeout(d.RequestTimeout))
		}
		r.Use(middleware.Auth(d.TokenValidator, d.Logger))
		r.Use(middleware.RequestLogger(d.Logger))
		r.Use(middleware.NoStore)

		// Natural-language commands
		r.Group(func(r chi.Router) {
			if d.CommandLimiter != nil {
				r.Use(d.CommandLimiter.Handler)
			}
			r.Post("/api/v1/wishlist/commands", commandHandler.Resolve)
			r.Post("/api/nlp-wishlist", commandHandler.Resolve)
		})

		// Wishlist API endpoints
		r.Route("/api/v1/wishlist", func(r chi.Router) {
			r.Get("/", wishlistHandler.ListItems)
			r.Delete("/", wishlistHandler.Clear)
			r.Get("/entries", wishlistHandler.ListEntries)
			r.Get("/{tagId}", wishlistHandler.Contains)
			r.Post("/{tagId}", wishlistHandler.AddItem)
			r.Delete("/{tagId}", wishlistHandler.RemoveItem)
		})

		// Catalog API endpoints
		r.Route("/api/v1/tags", func(r chi.Router) {
			r.Get("/", catalogHandler.Search)
			r.Get("/{id}", catalogHandler.Get)
		})
	})

	return r
}
