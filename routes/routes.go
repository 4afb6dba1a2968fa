package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/relayforge/llm-fallback-gateway/app"
	"github.com/relayforge/llm-fallback-gateway/handlers"
	gwmiddleware "github.com/relayforge/llm-fallback-gateway/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(5 * time.Minute))
	r.Use(propagateRequestID)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	completionHandler := handlers.NewCompletionHandler(
		deps.Orchestrator, deps.Catalog, deps.ProviderRegistry, deps.RequestLogs, deps.Logger)
	chainHandler := handlers.NewChainHandler(deps.Catalog, deps.Logger)
	metricsHandler := handlers.NewMetricsHandler(
		deps.Tracker, deps.CostRecorder, deps.RequestLogs, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealthz)
	r.Get("/readyz", healthHandler.HandleReadyz)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Inference endpoints
		r.Route("/inference", func(r chi.Router) {
			if deps.Config.Auth.Enabled() {
				r.Use(deps.AuthMiddleware.RequireAuth)
			}
			r.Post("/chat", completionHandler.HandleChatCompletion)
		})

		// Model and chain catalog
		r.Get("/models", chainHandler.HandleListModels)
		r.Route("/chains", func(r chi.Router) {
			r.Get("/", chainHandler.HandleListChains)

			// Chain mutation requires an admin token when auth is on
			r.Group(func(r chi.Router) {
				if deps.Config.Auth.Enabled() {
					r.Use(deps.AuthMiddleware.RequireAuth)
					r.Use(deps.AuthMiddleware.RequireRole("admin"))
				}
				r.Post("/", chainHandler.HandleCreateChain)
				r.Delete("/{name}", chainHandler.HandleDeleteChain)
			})
		})

		// Metrics
		r.Route("/metrics", func(r chi.Router) {
			if deps.Config.Auth.Enabled() {
				r.Use(deps.AuthMiddleware.RequireAuth)
			}
			r.Get("/", metricsHandler.HandleGetMetrics)
			r.Get("/requests", metricsHandler.HandleGetRequestLog)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}

// propagateRequestID copies chi's request id into the application
// context key and echoes it to the client.
func propagateRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := chimiddleware.GetReqID(r.Context())
		if requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
			r = r.WithContext(gwmiddleware.WithRequestID(r.Context(), requestID))
		}
		next.ServeHTTP(w, r)
	})
}
