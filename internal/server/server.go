package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/themancarve/tickets/config"
	"github.com/themancarve/tickets/internal/handlers"
	"github.com/themancarve/tickets/internal/helpers"
	"github.com/themancarve/tickets/internal/middleware"
	"github.com/themancarve/tickets/internal/models"
	"github.com/themancarve/tickets/internal/monitoring"
	"github.com/themancarve/tickets/internal/services"
	"github.com/themancarve/tickets/internal/store"
	"github.com/themancarve/tickets/internal/yoco"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	rdb, err := config.InitRedis(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize redis: %v", err)
	}

	events := store.NewEvents(rdb)
	st := store.New(db, events)
	pending := store.NewPendingCheckoutStore(rdb, cfg.PendingCheckoutTTL)

	yocoClient := yoco.NewClient(cfg.YocoAPIURL, cfg.YocoSecretKey)

	checkoutSvc := services.NewCheckoutService(st, pending, yocoClient, services.CheckoutConfig{
		BaseURL:   cfg.AppBaseURL,
		EventName: cfg.EventName,
		EventDate: cfg.EventDate,
	})
	reconcileSvc := services.NewReconcileService(st, pending, st, cfg.ReconcilePollAttempts, cfg.ReconcilePollInterval)
	scanSvc := services.NewScanService(st, rdb)

	monitor := monitoring.NewMonitor(st, 30*time.Second)
	go monitor.Run(context.Background())

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		helpers.RespondWithError(c, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	r.Use(corsMiddleware(cfg))

	setupRoutes(r, cfg, rdb, st, events, yocoClient, checkoutSvc, reconcileSvc, scanSvc)

	return r.Run(":" + cfg.Port)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// corsMiddleware admits the configured app origin plus local dev hosts.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowOrigins: []string{
			cfg.AppBaseURL,
			"http://localhost:5173",
			"http://localhost:3000",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.Environment != "production" {
		corsCfg.AllowOriginFunc = func(origin string) bool {
			return strings.HasPrefix(origin, "http://localhost:")
		}
	}
	return cors.New(corsCfg)
}

func setupRoutes(
	r *gin.Engine,
	cfg *config.Config,
	rdb *redis.Client,
	st *store.Store,
	events *store.Events,
	yocoClient *yoco.Client,
	checkoutSvc *services.CheckoutService,
	reconcileSvc *services.ReconcileService,
	scanSvc *services.ScanService,
) {
	authHandler := handlers.NewAuthHandler(st, cfg.JWTSecret)
	proxyHandler := handlers.NewCheckoutProxyHandler(yocoClient, cfg.YocoSecretKey, cfg.Environment)
	webhookHandler := handlers.NewWebhookHandler(st)
	paymentHandler := handlers.NewPaymentHandler(checkoutSvc, reconcileSvc)
	ticketHandler := handlers.NewTicketHandler(st, services.EventInfo{
		Name:  cfg.EventName,
		Date:  cfg.EventDate,
		Venue: cfg.EventVenue,
	})
	adminHandler := handlers.NewAdminHandler(st)
	staffHandler := handlers.NewStaffHandler(st, scanSvc, events)

	r.GET("/health", healthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.RateLimit(rdb))
	{
		api.GET("/health", healthHandler)
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// Payment gateway relay. Any method on the create path so a
		// stray GET gets 405, not 404.
		api.Any("/yoco-checkout", proxyHandler.Create)
		api.GET("/yoco-checkout/:id", proxyHandler.Get)
		api.POST("/yoco-webhook", webhookHandler.Handle)

		api.POST("/checkout", middleware.OptionalJWTAuth(cfg.JWTSecret), paymentHandler.BeginCheckout)
		api.GET("/payment/return", middleware.OptionalJWTAuth(cfg.JWTSecret), paymentHandler.PaymentReturn)

		api.GET("/ticket/:id", ticketHandler.Get)
		api.GET("/tickets/:id/qr.png", ticketHandler.QRImage)

		authed := api.Group("")
		authed.Use(middleware.JWTAuth(cfg.JWTSecret))
		{
			authed.GET("/tickets/mine", ticketHandler.Mine)
			authed.GET("/tickets/:id/receipt.pdf", ticketHandler.Receipt)

			staff := authed.Group("/staff")
			staff.Use(middleware.RequireRole(models.RoleStaff))
			{
				staff.GET("/attendees", staffHandler.Attendees)
				staff.POST("/scan/:id", staffHandler.Scan)
				staff.GET("/live", staffHandler.Live)
			}

			admin := authed.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.POST("/tickets", adminHandler.CreateTickets)
				admin.GET("/tickets", adminHandler.ListTickets)
				admin.DELETE("/tickets/:id", adminHandler.DeleteTicket)
				admin.DELETE("/tickets", adminHandler.DeleteAllTickets)
				admin.GET("/qr-logs", adminHandler.QRLogs)
				admin.GET("/stats", adminHandler.Stats)
			}
			authed.PUT("/ticket/:id", middleware.RequireRole(models.RoleAdmin), ticketHandler.Update)
		}

		if cfg.Environment != "production" {
			debug := api.Group("/debug")
			{
				debug.GET("/available-tickets", adminHandler.DebugAvailable)
				debug.GET("/all-tickets", adminHandler.DebugAllTickets)
			}
		}
	}
}
