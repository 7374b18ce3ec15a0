// Package rest wires the HTTP surface of the versioning API.
package rest

import (
	"net/http"

	"recruiter-backend/application/commands/bus"
	querybus "recruiter-backend/application/queries/bus"
	"recruiter-backend/interfaces/http/rest/handlers"
	"recruiter-backend/interfaces/http/rest/middleware"
	"recruiter-backend/pkg/auth"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	commandBus  *bus.CommandBus
	queryBus    *querybus.QueryBus
	validator   *auth.JWTValidator
	ipLimiter   auth.RateLimiter
	userLimiter auth.RateLimiter
	logger      *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	validator *auth.JWTValidator,
	ipLimiter auth.RateLimiter,
	userLimiter auth.RateLimiter,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus:  commandBus,
		queryBus:    queryBus,
		validator:   validator,
		ipLimiter:   ipLimiter,
		userLimiter: userLimiter,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://*.recruiter.dev"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	router.Route("/api/v2", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.ipLimiter, rt.userLimiter, rt.logger))

		entityHandler := handlers.NewEntityHandler(rt.commandBus, rt.queryBus, rt.logger)
		slotHandler := handlers.NewSlotHandler(rt.commandBus, rt.queryBus, rt.logger)

		r.Route("/entities/{kind}/{name}", func(r chi.Router) {
			r.Post("/versions", entityHandler.CreateVersion)
			r.Post("/edits", entityHandler.EditWithCascade)
			r.Get("/versions", entityHandler.GetHistory)
			r.Get("/versions/{version}", entityHandler.GetVersion)
			r.Get("/latest", entityHandler.GetLatest)
			r.Delete("/versions/{version}", entityHandler.SoftDelete)
			r.With(middleware.RequireRole("admin")).
				Post("/versions/{version}/purge", entityHandler.PurgeOrphan)
		})

		r.Get("/resolve", entityHandler.Resolve)

		r.Route("/slots/{parentID}/{order}", func(r chi.Router) {
			r.Put("/active", slotHandler.Activate)
			r.Get("/active", slotHandler.CurrentActive)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
