// @title           Memorial Storefront API
// @version         1.0.0
// @description     Backend for the memorial products storefront: catalog, the five-step customization wizard, order creation, Stripe checkout and the Stripe webhook.

// @contact.name   API Support
// @contact.email  support@example.com

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and a Supabase access token.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"memorial-storefront/internal/config"
	"memorial-storefront/internal/database"
	"memorial-storefront/internal/handlers"
	"memorial-storefront/internal/metrics"
	"memorial-storefront/internal/middleware"
	"memorial-storefront/internal/payment"
	"memorial-storefront/internal/services"
	"memorial-storefront/internal/supabase"
	"memorial-storefront/internal/validation"
	"memorial-storefront/internal/wizard"
)

const serviceName = "memorial-storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	setupLogging(cfg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase client: %v", err)
	}
	storageClient := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, cfg.SupabaseStorageBucket)

	// Orders go through PostgREST unless a direct connection is configured,
	// in which case an order and its items are written in one transaction.
	readiness := map[string]handlers.HealthCheck{}

	var orderStore services.OrderStore = supabaseClient
	if cfg.DatabaseURL != "" {
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		dbClient := supabase.NewDatabaseClientFromDB(db)
		defer dbClient.Close()

		if _, err := database.NewMigrator(db).Run(ctx); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Info("migrations completed")
		orderStore = dbClient
		readiness["database"] = db.PingContext
	} else {
		log.Warn("DATABASE_URL not set; orders are written through PostgREST without a transaction and migrations are skipped")
	}

	validator := validation.New()
	provider := payment.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret, "")

	orderService := services.NewOrderService(orderStore, validator)
	checkoutService := services.NewCheckoutService(provider, cfg.Currency, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	webhookService := services.NewWebhookService(provider, orderStore)

	var (
		orderCreator    services.OrderCreator    = orderService
		checkoutCreator services.CheckoutCreator = checkoutService
	)
	if cfg.OrderFunctionsURL != "" {
		functions := supabase.NewFunctionsClient(cfg.OrderFunctionsURL, cfg.SupabaseServiceRoleKey, cfg.HTTPClientTimeout)
		orderCreator = functions
		checkoutCreator = functions
		log.WithField("url", cfg.OrderFunctionsURL).Info("submitting orders through edge functions")
	}

	pipeline := services.NewSubmissionPipeline(storageClient, orderCreator, checkoutCreator, orderService,
		cfg.PhotoFolder, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)

	sessionStore, sessionCheck, closeStore := newSessionStore(ctx, cfg)
	defer closeStore()
	if sessionCheck != nil {
		readiness["sessions"] = sessionCheck
	}
	orchestrator := wizard.NewOrchestrator(sessionStore, validator, supabaseClient, pipeline)

	catalogHandler := handlers.NewCatalogHandler(supabaseClient)
	wizardHandler := handlers.NewWizardHandler(orchestrator)
	ordersHandler := handlers.NewOrdersHandler(orderService, supabaseClient, checkoutCreator)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	profilesHandler := handlers.NewProfilesHandler(supabaseClient)
	reviewsHandler := handlers.NewReviewsHandler(supabaseClient)

	router := gin.New()
	router.Use(gin.Recovery())
	if !cfg.IsProduction() {
		router.Use(gin.Logger())
	}
	router.Use(metrics.PrometheusMiddleware(serviceName))

	router.GET("/health", handlers.HealthHandler)
	router.GET("/ready", handlers.ReadinessHandler(readiness))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	auth := middleware.AuthMiddleware(cfg)
	optionalAuth := middleware.OptionalAuth(cfg)

	catalog := api.Group("/catalog")
	catalog.GET("/product-types", catalogHandler.ListProductTypes)
	catalog.GET("/product-types/:id/products", catalogHandler.ListProductsByType)
	catalog.GET("/products/:id", catalogHandler.GetProduct)
	catalog.GET("/themes", catalogHandler.ListThemes)
	catalog.GET("/formats", catalogHandler.ListFormats)
	catalog.GET("/kit", catalogHandler.GetKit)

	sessions := api.Group("/wizard/sessions")
	sessions.POST("", wizardHandler.StartSession)
	sessions.GET("/:id", wizardHandler.GetSession)
	sessions.PUT("/:id/steps/:step", wizardHandler.UpdateStep)
	sessions.POST("/:id/photos", wizardHandler.UploadPhotos)
	sessions.DELETE("/:id/photos/:photo_id", wizardHandler.RemovePhoto)
	sessions.POST("/:id/cart", wizardHandler.AddCartItem)
	sessions.PATCH("/:id/cart/:item_id", wizardHandler.UpdateCartItem)
	sessions.DELETE("/:id/cart/:item_id", wizardHandler.RemoveCartItem)
	sessions.POST("/:id/advance", wizardHandler.Advance)
	sessions.POST("/:id/retreat", wizardHandler.Retreat)
	sessions.GET("/:id/review", wizardHandler.Review)
	sessions.POST("/:id/submit", wizardHandler.Submit)

	api.POST("/orders", optionalAuth, ordersHandler.CreateOrder)
	api.GET("/orders", auth, ordersHandler.ListMyOrders)
	api.GET("/orders/:id", optionalAuth, ordersHandler.GetOrder)
	api.POST("/orders/:id/reviews", auth, reviewsHandler.CreateReview)
	api.POST("/checkout-sessions", ordersHandler.CreateCheckoutSession)
	api.POST("/profiles", auth, profilesHandler.CreateProfile)

	// Authenticated by the Stripe-Signature header.
	api.POST("/webhooks/stripe", webhookHandler.HandleStripeWebhook)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	log.Info("server exited")
}

func setupLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("unknown LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// newSessionStore keeps wizard sessions in Redis when REDIS_URL is set and
// in process otherwise. The returned check is nil for the in-process store.
func newSessionStore(ctx context.Context, cfg *config.Config) (wizard.SessionStore, handlers.HealthCheck, func()) {
	if cfg.RedisURL == "" {
		store := wizard.NewMemoryStore(cfg.SessionTTL)
		go store.RunJanitor(ctx, time.Minute)
		log.Info("wizard sessions kept in memory")
		return store, nil, func() {}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Info("wizard sessions kept in Redis")

	check := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return wizard.NewRedisStore(client, cfg.SessionTTL), check, func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("failed to close Redis client")
		}
	}
}
