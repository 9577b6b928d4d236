package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fleetops/fleet-gateway/internal/auth"
	"github.com/fleetops/fleet-gateway/internal/cache"
	"github.com/fleetops/fleet-gateway/internal/config"
	"github.com/fleetops/fleet-gateway/internal/handlers"
	"github.com/fleetops/fleet-gateway/internal/middleware"
	"github.com/fleetops/fleet-gateway/internal/models"
	"github.com/fleetops/fleet-gateway/internal/repository"
	"github.com/fleetops/fleet-gateway/internal/services"
	"github.com/fleetops/fleet-gateway/internal/webhook"
)

// Deps are the wired collaborators the router needs. Tests construct these
// over sqlite and a memory cache; main wires postgres and redis.
type Deps struct {
	Config      *config.Config
	Cache       cache.Cache
	Counter     cache.Counter
	AuthService *auth.Service
	Microsoft   *auth.MicrosoftClient
	Events      *webhook.Dispatcher
	Reports     *services.ReportService
	Documents   *services.DocumentService
	Telemetry   *services.TelemetryService
}

// NewRouter assembles the full HTTP surface.
func NewRouter(d Deps) http.Handler {
	authn := middleware.NewAuthenticator(d.AuthService)
	csrf := middleware.NewCSRF(d.Cache, d.AuthService.TokenExpiry())
	limiter := middleware.NewRateLimiter(d.Counter, d.Config.RateLimit.Enabled)

	users := repository.NewUserRepository()
	auditRepo := repository.NewAuditRepository()
	gpsRepo := repository.NewGPSRepository()
	maintRepo := repository.NewMaintenanceRepository()

	authHandler := handlers.NewAuthHandler(d.AuthService, d.Microsoft, users, csrf)
	healthHandler := handlers.NewHealthHandler(d.Cache)
	gpsHandler := handlers.NewGPSHandler(d.Telemetry, gpsRepo)
	maintHandler := handlers.NewMaintenanceHandler(maintRepo)
	docHandler := handlers.NewDocumentHandler(d.Documents, d.Config.Uploads.MaxSizeMB)
	reportHandler := handlers.NewReportHandler(d.Reports)
	auditHandler := handlers.NewAuditHandler(auditRepo)

	vehicles := handlers.NewResource(handlers.VehicleDescriptor(),
		repository.NewStore[models.Vehicle, *models.Vehicle](), auditRepo, d.Events)
	drivers := handlers.NewResource(handlers.DriverDescriptor(),
		repository.NewStore[models.Driver, *models.Driver](), auditRepo, d.Events)
	maintenance := handlers.NewResource(handlers.MaintenanceDescriptor(),
		repository.NewStore[models.MaintenanceRecord, *models.MaintenanceRecord](), auditRepo, d.Events)
	workOrders := handlers.NewResource(handlers.WorkOrderDescriptor(),
		repository.NewStore[models.WorkOrder, *models.WorkOrder](), auditRepo, d.Events)
	fuel := handlers.NewResource(handlers.FuelDescriptor(),
		repository.NewStore[models.FuelTransaction, *models.FuelTransaction](), auditRepo, d.Events)
	geofences := handlers.NewResource(handlers.GeofenceDescriptor(),
		repository.NewStore[models.Geofence, *models.Geofence](), auditRepo, d.Events)
	chargingStations := handlers.NewResource(handlers.ChargingStationDescriptor(),
		repository.NewStore[models.ChargingStation, *models.ChargingStation](), auditRepo, d.Events)
	chargingSessions := handlers.NewResource(handlers.ChargingSessionDescriptor(),
		repository.NewStore[models.ChargingSession, *models.ChargingSession](), auditRepo, d.Events)
	documents := handlers.NewResource(handlers.DocumentDescriptor(),
		repository.NewStore[models.Document, *models.Document](), auditRepo, d.Events)
	incidents := handlers.NewResource(handlers.IncidentDescriptor(),
		repository.NewStore[models.SafetyIncident, *models.SafetyIncident](), auditRepo, d.Events)
	inspections := handlers.NewResource(handlers.InspectionDescriptor(),
		repository.NewStore[models.Inspection, *models.Inspection](), auditRepo, d.Events)
	webhookEndpoints := handlers.NewResource(handlers.WebhookDescriptor(),
		repository.NewStore[models.WebhookEndpoint, *models.WebhookEndpoint](), auditRepo, d.Events)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Compress(5))
	r.Use(limiter.Limit(middleware.CategoryGlobalIP))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORS.AllowedOrigins,
		AllowedMethods:   d.Config.CORS.AllowedMethods,
		AllowedHeaders:   d.Config.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Content-Length", "Content-Type", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "X-RateLimit-Window"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	if d.Config.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Unauthenticated auth exchange
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(limiter.Limit(middleware.CategoryAuth)).Post("/login", authHandler.Login)
		r.With(limiter.Limit(middleware.CategoryAuth)).Post("/microsoft", authHandler.MicrosoftLogin)
		r.With(limiter.Limit(middleware.CategoryRegister)).Post("/register", authHandler.Register)

		r.Group(func(r chi.Router) {
			r.Use(authn.Authenticate)
			r.Get("/csrf-token", authHandler.CSRFToken)
		})
	})

	// Authenticated API
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authn.Authenticate)
		r.Use(limiter.LimitByMethod(middleware.CategoryRead, middleware.CategoryWrite))
		r.Use(csrf.Protect)

		r.Route("/vehicles", vehicles.Register(authn))
		r.Route("/drivers", drivers.Register(authn))
		r.Route("/maintenance", func(r chi.Router) {
			r.With(authn.RequirePermission("maintenance:read")).
				Get("/vehicle/{vehicleId}", maintHandler.ByVehicle)
			maintenance.Register(authn)(r)
		})
		r.Route("/work-orders", workOrders.Register(authn))
		r.Route("/fuel-transactions", fuel.Register(authn))
		r.Route("/geofences", func(r chi.Router) {
			r.With(authn.RequirePermission("geofence:read")).
				Get("/{id}/alerts", gpsHandler.GeofenceAlerts)
			geofences.Register(authn)(r)
		})
		r.Route("/charging-stations", chargingStations.Register(authn))
		r.Route("/charging-sessions", chargingSessions.Register(authn))
		r.Route("/incidents", incidents.Register(authn))
		r.Route("/inspections", inspections.Register(authn))
		r.Route("/webhooks", webhookEndpoints.Register(authn))

		r.Route("/gps", func(r chi.Router) {
			r.With(authn.RequirePermission("gps:create")).Post("/positions", gpsHandler.Ingest)
			r.With(authn.RequirePermission("gps:read")).
				Get("/vehicles/{vehicleId}/history", gpsHandler.History)
		})

		r.Route("/documents", func(r chi.Router) {
			r.With(authn.RequirePermission("document:create"), limiter.Limit(middleware.CategoryUpload)).
				Post("/upload", docHandler.Upload)
			r.With(authn.RequirePermission("document:read")).
				Get("/{id}/download", docHandler.Download)
			documents.Register(authn)(r)
		})

		r.Route("/reports", func(r chi.Router) {
			r.With(authn.RequirePermission("report:create")).Post("/", reportHandler.Generate)
			r.With(authn.RequirePermission("report:read")).Get("/{id}/status", reportHandler.Status)
		})

		r.With(authn.RequireRole(models.RoleAdmin)).Get("/audit-logs", auditHandler.List)
	})

	return r
}
