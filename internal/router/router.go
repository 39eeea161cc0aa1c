package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/api/auth"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/api/destinations"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/api/enrichment"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/api/trip"
)

// Config contains dependencies needed for the router setup.
type Config struct {
	AuthHandler         *auth.HandlerImpl
	TripHandler         *trip.HandlerImpl
	EnrichmentHandler   *enrichment.HandlerImpl
	DestinationsHandler *destinations.HandlerImpl

	Tokens   *auth.TokenService
	Sessions *auth.SessionProvider
	Logger   *slog.Logger

	AllowedOrigins []string
	// GenerateRateLimit caps generation submissions per client IP per minute.
	GenerateRateLimit int
}

// SetupRouter builds the application routes. Server-wide middleware is
// applied by the caller before mounting.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(cfg.Logger, cfg.Tokens, cfg.Sessions))

		r.Route("/auth", func(r chi.Router) {
			r.Get("/google", cfg.AuthHandler.BeginAuth)
			r.Get("/google/callback", cfg.AuthHandler.Callback)
			r.Post("/logout", cfg.AuthHandler.Logout)
			r.Get("/me", cfg.AuthHandler.Me)
		})

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/trips", func(r chi.Router) {
				// Generation and job polling work before sign-in; the job
				// itself waits for the session to sign in.
				r.With(rateLimit(cfg.GenerateRateLimit)).Post("/generate", cfg.TripHandler.GenerateTrip)
				r.Get("/jobs/{jobID}", cfg.TripHandler.GetJob)
				r.Delete("/jobs/{jobID}", cfg.TripHandler.CancelJob)
				r.Post("/jobs/{jobID}/save", cfg.TripHandler.SaveJob)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireIdentity(cfg.Sessions))
					r.Get("/", cfg.TripHandler.ListTrips)
					r.Delete("/", cfg.TripHandler.DeleteAllTrips)
					r.Get("/{tripID}", cfg.TripHandler.GetTrip)
					r.Get("/{tripID}/enriched", cfg.TripHandler.GetEnrichedTrip)
					r.Delete("/{tripID}", cfg.TripHandler.DeleteTrip)
					r.Post("/{tripID}/assistant", cfg.TripHandler.AskAssistant)
				})
			})

			r.Post("/destinations/suggest", cfg.DestinationsHandler.Suggest)

			r.Route("/enrichment", func(r chi.Router) {
				r.Get("/image", cfg.EnrichmentHandler.Image)
				r.Get("/weather", cfg.EnrichmentHandler.Weather)
				r.Get("/geocode", cfg.EnrichmentHandler.Geocode)
			})
		})
	})

	return r
}

func rateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.LimitByIP(perMinute, time.Minute)
}
