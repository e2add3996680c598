package handler

import (
	"net/http"
	"time"

	"github.com/flipfolio/flipfolio-api-go/internal/config"
	"github.com/flipfolio/flipfolio-api-go/internal/domain"
	"github.com/flipfolio/flipfolio-api-go/internal/infra/observability"
	"github.com/flipfolio/flipfolio-api-go/internal/port"
	"github.com/flipfolio/flipfolio-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles the use-case layer the router dispatches to.
type Services struct {
	Projects *service.ProjectService
	Budget   *service.BudgetService
	Vendors  *service.VendorService
	Draws    *service.DrawService
	Journal  *service.JournalService
	Autosave *service.Autosaver
}

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract the Flipfolio web client consumes.
func NewRouter(cfg *config.Config, store port.Store, svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(store, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 (every route runs as an authenticated user) ---
	r.Route("/v1", func(r chi.Router) {
		if cfg.DevAuth {
			r.Use(DevAuthMiddleware(cfg.DevUserID, logger))
		} else {
			r.Use(AuthMiddleware(cfg.SupabaseJWTSecret, logger))
		}

		// =============================================
		// Projects
		// =============================================
		r.Get("/projects", listProjectsHandler(svcs.Projects, logger))
		r.Post("/projects", createProjectHandler(svcs.Projects, logger))
		r.Post("/projects/validate", validateProjectHandler(svcs.Projects, logger))
		r.Get("/projects/{projectID}", getProjectHandler(svcs.Projects, logger))
		r.Put("/projects/{projectID}", updateProjectHandler(svcs.Projects, logger))
		r.Delete("/projects/{projectID}", deleteProjectHandler(svcs.Projects, logger))
		r.Get("/projects/{projectID}/overview", projectOverviewHandler(svcs.Projects, logger))

		// =============================================
		// Budget items & rollup
		// =============================================
		r.Get("/projects/{projectID}/budget", listBudgetItemsHandler(svcs.Budget, logger))
		r.Post("/projects/{projectID}/budget", createBudgetItemHandler(svcs.Budget, logger))
		r.Get("/projects/{projectID}/budget/summary", budgetSummaryHandler(svcs.Budget, logger))
		r.Patch("/budget-items/{itemID}", patchBudgetItemHandler(svcs.Budget, logger))
		r.Delete("/budget-items/{itemID}", deleteBudgetItemHandler(svcs.Budget, logger))

		// =============================================
		// Vendors
		// =============================================
		r.Get("/vendors", listVendorsHandler(svcs.Vendors, logger))
		r.Post("/vendors", createVendorHandler(svcs.Vendors, logger))
		r.Get("/vendors/{vendorID}", getVendorHandler(svcs.Vendors, logger))
		r.Put("/vendors/{vendorID}", updateVendorHandler(svcs.Vendors, logger))
		r.Delete("/vendors/{vendorID}", deleteVendorHandler(svcs.Vendors, logger))

		// =============================================
		// Draw schedule
		// =============================================
		r.Get("/projects/{projectID}/draws", listDrawsHandler(svcs.Draws, logger))
		r.Post("/projects/{projectID}/draws", createDrawHandler(svcs.Draws, logger))
		r.Patch("/draws/{drawID}", patchDrawHandler(svcs.Draws, logger))
		r.Delete("/draws/{drawID}", deleteDrawHandler(svcs.Draws, logger))

		// =============================================
		// Journal pages & autosave drafts
		// =============================================
		r.Get("/journal", listJournalHandler(svcs.Journal, logger))
		r.Post("/journal", createJournalPageHandler(svcs.Journal, logger))
		r.Get("/journal/{pageID}", getJournalPageHandler(svcs.Journal, logger))
		r.Delete("/journal/{pageID}", deleteJournalPageHandler(svcs.Journal, logger))

		r.Put("/journal/{pageID}/draft", putDraftHandler(svcs.Autosave, logger))
		r.Get("/journal/{pageID}/draft", getDraftHandler(svcs.Autosave, logger))
		r.Post("/journal/{pageID}/draft/flush", flushDraftHandler(svcs.Autosave, logger))
		r.Delete("/journal/{pageID}/draft", closeDraftHandler(svcs.Autosave, logger))

		r.Post("/journal/{pageID}/pin", setJournalFlagHandler(svcs.Journal, logger, "pinned", true))
		r.Post("/journal/{pageID}/unpin", setJournalFlagHandler(svcs.Journal, logger, "pinned", false))
		r.Post("/journal/{pageID}/archive", setJournalFlagHandler(svcs.Journal, logger, "archived", true))
		r.Post("/journal/{pageID}/unarchive", setJournalFlagHandler(svcs.Journal, logger, "archived", false))

		// =============================================
		// Metrics
		// =============================================
		r.Get("/metrics/autosave", autosaveMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Health & metrics
// ============================================================

func healthzHandler(store port.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "flipfolio-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if store != nil {
			start := time.Now()
			err := store.Ping(ctx)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
				logger.Warn("healthz: store ping failed", zap.Error(err))
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func autosaveMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.AutosaveSnapshot())
	}
}
