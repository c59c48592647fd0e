package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/laserowo/studio-manager/internal/actions"
	"github.com/laserowo/studio-manager/internal/audit"
	"github.com/laserowo/studio-manager/internal/config"
	"github.com/laserowo/studio-manager/internal/handlers"
	infraRepo "github.com/laserowo/studio-manager/internal/infra/repository"
	"github.com/laserowo/studio-manager/internal/metrics"
	"github.com/laserowo/studio-manager/internal/middleware"
	"github.com/laserowo/studio-manager/internal/spreadsheet"
	ucAppointment "github.com/laserowo/studio-manager/internal/usecase/appointment"
	ucClient "github.com/laserowo/studio-manager/internal/usecase/client"
	"github.com/laserowo/studio-manager/internal/usecase/resolver"
)

// Infra holds the process-wide singletons shared by every route.
type Infra struct {
	Audit    *audit.Dispatcher
	Metrics  *metrics.StudioMetrics
	Gatherer prometheus.Gatherer
	Mapping  *spreadsheet.Mapping
	Log      zerolog.Logger
}

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, infra Infra) {

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RequestLogger(infra.Log))

	// ======================================================
	// REPOSITORIES
	// ======================================================
	appointmentRepo := infraRepo.NewAppointmentGormRepository(db)
	clientRepo := infraRepo.NewClientGormRepository(db)
	referenceRepo := infraRepo.NewReferenceGormRepository(db)

	// ======================================================
	// USE CASES: APPOINTMENTS
	// ======================================================
	apDeps := ucAppointment.Deps{
		Repo:           appointmentRepo,
		Resolver:       resolver.New(clientRepo, referenceRepo, infra.Log),
		Audit:          infra.Audit,
		Metrics:        infra.Metrics,
		Log:            infra.Log,
		Timezone:       cfg.Timezone,
		EnforceSpacing: cfg.EnforceSessionSpacing,
	}

	createAppointmentUC := ucAppointment.NewCreateAppointment(apDeps)
	updateAppointmentUC := ucAppointment.NewUpdateAppointment(apDeps)
	cancelAppointmentUC := ucAppointment.NewCancelAppointment(apDeps)
	completeAppointmentUC := ucAppointment.NewCompleteAppointment(apDeps)
	rescheduleAppointmentUC := ucAppointment.NewRescheduleAppointment(apDeps)
	getAppointmentUC := ucAppointment.NewGetAppointment(appointmentRepo)
	listAppointmentsUC := ucAppointment.NewListAppointments(appointmentRepo)

	// ======================================================
	// USE CASES: CLIENTS
	// ======================================================
	searchClientsUC := ucClient.NewSearchClients(clientRepo)
	getClientUC := ucClient.NewGetClient(clientRepo, appointmentRepo)
	deactivateClientUC := ucClient.NewDeactivateClient(clientRepo, appointmentRepo, infra.Audit, infra.Log)

	// ======================================================
	// ACTION SURFACE
	// ======================================================
	dispatcher := actions.New(actions.Deps{
		Appointments:   appointmentRepo,
		Clients:        clientRepo,
		References:     referenceRepo,
		Audit:          infra.Audit,
		Metrics:        infra.Metrics,
		Log:            infra.Log,
		Timezone:       cfg.Timezone,
		EnforceSpacing: cfg.EnforceSessionSpacing,
		Mapping:        infra.Mapping,
		S3: spreadsheet.S3Config{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Endpoint:        cfg.AWSEndpointURL,
		},
	})

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg)
	meHandler := handlers.NewMeHandler(db)
	auditLogsHandler := handlers.NewAuditLogsHandler(db)

	appointmentHandler := handlers.NewAppointmentHandler(
		createAppointmentUC,
		updateAppointmentUC,
		cancelAppointmentUC,
		completeAppointmentUC,
		rescheduleAppointmentUC,
		getAppointmentUC,
		listAppointmentsUC,
		cfg.Timezone,
	)

	clientHandler := handlers.NewClientHandler(searchClientsUC, getClientUC, deactivateClientUC)
	actionsHandler := handlers.NewActionsHandler(dispatcher)
	importHandler := handlers.NewImportHandler(dispatcher)

	// ======================================================
	// OPERATIONS
	// ======================================================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gatherer := infra.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// PRIVATE API
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", meHandler.GetMe)

			secured.GET("/actions", actionsHandler.List)
			secured.POST("/actions/:action", actionsHandler.Run)

			// ------------------------------
			// APPOINTMENTS
			// ------------------------------
			secured.POST("/appointments", appointmentHandler.Create)
			secured.GET("/appointments", appointmentHandler.ListByDate)
			secured.GET("/appointments/month", appointmentHandler.ListByMonth)
			secured.GET("/appointments/:id", appointmentHandler.Get)
			secured.PATCH("/appointments/:id", appointmentHandler.Update)
			secured.PATCH("/appointments/:id/cancel", appointmentHandler.Cancel)
			secured.PATCH("/appointments/:id/complete", appointmentHandler.Complete)
			secured.POST("/appointments/:id/reschedule", appointmentHandler.Reschedule)

			// ------------------------------
			// CLIENTS
			// ------------------------------
			secured.GET("/clients", clientHandler.List)
			secured.GET("/clients/:id", clientHandler.Get)
			secured.POST("/clients/:id/deactivate", clientHandler.Deactivate)

			// ------------------------------
			// ADMIN
			// ------------------------------
			admin := secured.Group("/")
			admin.Use(middleware.RequireRole(handlers.RoleAdmin))
			{
				admin.POST("/import", importHandler.Upload)
				admin.GET("/audit-logs", auditLogsHandler.List)
			}
		}
	}
}
