package routes

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/ai-translator/app"
	"github.com/upb/ai-translator/handlers"
	"github.com/upb/ai-translator/middleware"
)

// serverOperation names the otelhttp handler wrapping the router
const serverOperation = "translator-api"

// SetupRoutes configures all application routes and middleware.
// The returned handler is traced with the runtime's tracer provider.
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRequestLogger(deps.Logger).Handler)
	r.Use(chimw.Recoverer)
	if timeout := deps.Config.Server.WriteTimeout; timeout > 0 {
		r.Use(chimw.Timeout(timeout))
	}

	// The translator is public: every origin, no credentials
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var sqlDB *sql.DB
	if deps.DB != nil {
		sqlDB = deps.DB.DB
	}
	health := handlers.NewHealthHandler(sqlDB, deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.Config.Observability.MetricsEnabled {
		if metrics := deps.Runtime.MetricsHandler(); metrics != nil {
			r.Method(http.MethodGet, "/metrics", metrics)
		}
	}

	translations := handlers.NewTranslationHandler(deps.Translation, deps.Logger)
	feedback := handlers.NewFeedbackHandler(deps.Feedback, deps.Logger)

	r.Get("/", handlers.HandleRoot)
	r.Post("/translate", translations.HandleTranslate)
	r.Post("/evaluate", translations.HandleEvaluate)
	r.Post("/feedback", feedback.HandleSubmit)

	r.Route("/translations/{id}", func(r chi.Router) {
		r.Get("/evaluations", translations.HandleListEvaluations)
		r.Get("/feedback", feedback.HandleList)
	})

	return deps.Runtime.WrapHandler(r, serverOperation)
}
