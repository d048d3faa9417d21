package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"e_mairie_go/config"
	"e_mairie_go/db"
	"e_mairie_go/handlers"
	"e_mairie_go/logger"
	"e_mairie_go/middleware"
	"e_mairie_go/models"
	"e_mairie_go/services"
	"e_mairie_go/services/i18n"
	"e_mairie_go/services/jobs"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		panic(err)
	}
	logger.SetGlobal(zl)
	defer logger.Sync()

	// Registry database and per-mairie partitions
	if err := db.Initialize(cfg); err != nil {
		logger.L().Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logger.L().Fatal("Failed to run migrations", "error", err)
	}

	db.Tenants = db.NewTenantRouter(cfg)
	db.Tenants.Seed = services.SeedTenantDefaults
	defer db.Tenants.Close()

	if err := i18n.Load(); err != nil {
		logger.L().Fatal("Failed to load translations", "error", err)
	}
	services.InitializeStorage(cfg)
	middleware.InitAssetVersions("static")

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlers.HTTPErrorHandler

	e.Pre(echomiddleware.AddTrailingSlashWithConfig(echomiddleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasPrefix(path, "/static/") || path == "/metrics" || path == "/healthz" || strings.HasSuffix(path, ".pdf")
		},
	}))

	// Middleware
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogHost:      true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			kv := []interface{}{
				"request_id", v.RequestID,
				"method", v.Method,
				"uri", v.URI,
				"host", v.Host,
				"status", v.Status,
				"latency", v.Latency.String(),
				"remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				logger.L().Warn("request", append(kv, "error", v.Error)...)
				return nil
			}
			logger.L().Info("request", kv...)
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CSPNonce(cfg.TurnstileSecretKey != ""))

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})
	e.Use(middleware.Locale(cfg))

	// Host independent routes
	e.Static("/static", "static")
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// Everything else is served for the mairie owning the request host
	site := e.Group("",
		middleware.ResolveTenant(db.DB, db.Tenants),
		middleware.CSRF(cfg.Environment == "production"),
		middleware.LoadSession(),
		middleware.AuditContext(),
	)
	registerRoutes(site)

	cron, err := jobs.StartScheduler(db.DB, db.Tenants, cfg)
	if err != nil {
		logger.L().Fatal("Failed to start scheduler", "error", err)
	}
	defer cron.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.L().Info("Server starting", "port", cfg.ServerPort, "environment", cfg.Environment)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("Failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.L().Error("Server shutdown failed", "error", err)
	}
}

func registerRoutes(site *echo.Group) {
	login := middleware.LoginRateLimiter.Middleware()
	publicForm := middleware.PublicFormRateLimiter.Middleware()
	signedIn := middleware.RequireAuth()

	site.GET("/", handlers.HomeHandler)

	// Accounts
	site.GET("/comptes/connexion/", handlers.LoginHandler)
	site.POST("/comptes/connexion/", handlers.LoginPostHandler, login)
	site.POST("/comptes/deconnexion/", handlers.LogoutHandler)
	site.GET("/comptes/inscription/", handlers.RegisterHandler)
	site.POST("/comptes/inscription/", handlers.RegisterPostHandler, login)
	site.GET("/comptes/profil/", handlers.ProfileHandler, signedIn)
	site.POST("/comptes/profil/", handlers.ProfilePostHandler, signedIn)

	// Civil registry, citizen side
	site.GET("/etat-civil/", handlers.CivilRegistryHomeHandler)
	for _, variant := range models.AllVariants {
		path := "/etat-civil/" + variant.PathSegment() + "/"
		site.GET(path, handlers.CivilRequestFormHandler(variant))
		site.POST(path, handlers.CivilRequestSubmitHandler(variant), publicForm)
	}
	site.GET("/etat-civil/suivi/", handlers.TrackingHandler)
	site.POST("/etat-civil/suivi/", handlers.TrackingLookupHandler)
	site.GET("/etat-civil/suivi/:token/", handlers.TrackingHandler)
	site.GET("/etat-civil/suivi/:token/recepisse.pdf", handlers.ReceiptHandler)
	site.GET("/etat-civil/mes-demandes/", handlers.MyRequestsHandler, signedIn)

	// Civil registry, agent side
	registry := site.Group("/etat-civil/agent", middleware.RequireCapability(middleware.CanManageCivilRegistry))
	registry.GET("/demandes/", handlers.AgentRequestsHandler)
	registry.GET("/demandes/:variant/:id/", handlers.AgentRequestHandler)
	registry.GET("/demandes/:variant/:id/piece-identite/", handlers.IdentityDocumentHandler)
	registry.POST("/traiter/:variant/:id/", handlers.AgentTransitionHandler)
	registry.GET("/export/", handlers.RegisterExportHandler)

	// Appointments
	site.GET("/services/", handlers.ServicesHomeHandler)
	api := site.Group("/services/api", middleware.APIRateLimiter.Middleware())
	api.GET("/creneaux/", handlers.AvailableSlotsHandler)
	api.GET("/types-rdv/", handlers.AppointmentTypesHandler)
	site.GET("/services/types-rdv/", handlers.AppointmentTypesHandler)

	site.GET("/services/rendez-vous/", handlers.BookingHandler)
	site.POST("/services/rendez-vous/", handlers.BookingPostHandler, publicForm)
	site.GET("/services/rendez-vous/confirmation/:token/", handlers.AppointmentConfirmationHandler)
	site.POST("/services/rendez-vous/:token/annuler/", handlers.CancelAppointmentHandler)
	site.GET("/services/rendez-vous/mes-rdv/", handlers.MyAppointmentsHandler, signedIn)

	// Complaints
	site.GET("/services/reclamation/", handlers.ComplaintFormHandler)
	site.POST("/services/reclamation/", handlers.ComplaintSubmitHandler, publicForm)
	site.GET("/services/reclamation/suivi/", handlers.ComplaintTrackingHandler)
	site.POST("/services/reclamation/suivi/", handlers.ComplaintLookupHandler)
	site.GET("/services/reclamation/suivi/:token/", handlers.ComplaintTrackingHandler)
	site.GET("/services/reclamation/mes-reclamations/", handlers.MyComplaintsHandler, signedIn)

	// Newsletter
	site.GET("/services/newsletter/", handlers.NewsletterHandler)
	site.POST("/services/newsletter/", handlers.NewsletterSubscribeHandler, publicForm)
	site.GET("/services/newsletter/desinscription/:token/", handlers.NewsletterUnsubscribeHandler)

	// Appointment and complaint desks
	desk := site.Group("/services/agent", middleware.RequireCapability(middleware.CanManageServices))
	desk.GET("/rendez-vous/", handlers.AgentAppointmentsHandler)
	desk.POST("/rendez-vous/:id/statut/", handlers.AgentAppointmentStatusHandler)
	desk.POST("/rendez-vous/fermetures/", handlers.AgentBlockDateHandler)
	desk.POST("/rendez-vous/fermetures/:id/supprimer/", handlers.AgentUnblockDateHandler)
	desk.GET("/reclamations/", handlers.AgentComplaintsHandler)
	desk.POST("/reclamations/:id/", handlers.AgentComplaintUpdateHandler)
	desk.GET("/reclamations/:id/photo/", handlers.ComplaintPhotoHandler)
	desk.GET("/newsletter/export/", handlers.AgentNewsletterExportHandler)
}
