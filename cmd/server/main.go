package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	config "github.com/jobdeck/gatekeeper/configs"
	"github.com/jobdeck/gatekeeper/internal/application/services"
	"github.com/jobdeck/gatekeeper/internal/core/domain/ratelimit"
	"github.com/jobdeck/gatekeeper/internal/core/ports"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/db"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/email"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/health"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/httpserver"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/redis"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/repositories"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting gatekeeper admission service...")

	// Initialize database (apply pool settings from config)
	database, err := db.NewDatabaseWithConfig(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	logger.Info("Connected to database successfully")

	// Initialize Redis client
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	logger.Info("Connected to Redis successfully")

	// Run migrations
	if err := database.Migrate("./migrations"); err != nil {
		logger.Warn("Failed to run migrations:", err)
	}

	// Redis-backed counter store for rate limit windows plus a generic
	// cache for read-heavy entities and notification guards
	counterStore := redis.NewCounterStore(redisClient)
	redisCache := redis.NewRedisCache(redisClient, "gatekeeper")

	// Initialize all db repository implementations
	basePlanRepo := repositories.NewPlanRepository(database, logger)
	baseSubscriptionRepo := repositories.NewSubscriptionRepository(database, logger)
	usageRepo := repositories.NewUsageRepository(database, logger)
	ephemeralRepo := repositories.NewEphemeralRepository(database, logger)

	// Decorate with caching (choose TTLs). Usage records are never cached:
	// the quota read path must see fresh counts.
	planRepo := repositories.NewCachingPlanRepository(basePlanRepo, redisCache, 10*time.Minute)
	subscriptionRepo := repositories.NewCachingSubscriptionRepository(baseSubscriptionRepo, redisCache, 3*time.Minute)

	emailConfig := &email.EmailConfig{
		SendGridAPIKey: cfg.Email.SendGridAPIKey,
		FromEmail:      cfg.Email.FromEmail,
		FromName:       cfg.Email.FromName,
		CompanyName:    cfg.Email.CompanyName,
	}
	emailService, err := email.NewEmailService(emailConfig, logger)
	if err != nil {
		logger.Fatal("Failed to initialize email service:", err)
	}

	// Wire all services with their repository dependencies
	rateLimiterService := services.NewRateLimiterService(counterStore, cfg.RateLimit.StoreTimeout, logger)
	planService := services.NewPlanService(planRepo, logger)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, planRepo, logger)
	entitlementService := services.NewEntitlementService(subscriptionService, logger)
	quotaService := services.NewQuotaService(subscriptionRepo, planRepo, usageRepo, redisCache, emailService, logger)

	headers := ratelimit.HeaderStyle{Standard: !cfg.RateLimit.LegacyHeaders, Legacy: cfg.RateLimit.LegacyHeaders}

	generalPolicy, err := ratelimit.NewPolicy(ratelimit.Policy{
		Name:        "general",
		Window:      cfg.RateLimit.GeneralWindow,
		MaxRequests: cfg.RateLimit.GeneralMaxRequests,
		KeyFunc:     ratelimit.AnonymousKey,
		Headers:     headers,
	})
	if err != nil {
		logger.Fatal("Invalid general rate limit policy:", err)
	}

	// Mutating endpoints get a tighter per-endpoint window; failed writes
	// are refunded so validation errors do not burn the allowance.
	writePolicy, err := ratelimit.NewPolicy(ratelimit.Policy{
		Name:        "write",
		Window:      cfg.RateLimit.WriteWindow,
		MaxRequests: cfg.RateLimit.WriteMaxRequests,
		KeyFunc:     ratelimit.EndpointKey,
		SkipFailed:  true,
		Headers:     headers,
	})
	if err != nil {
		logger.Fatal("Invalid write rate limit policy:", err)
	}

	admissionPolicy, err := ratelimit.NewPolicy(ratelimit.Policy{
		Name:        "admission",
		Window:      cfg.RateLimit.AdmissionWindow,
		MaxRequests: cfg.RateLimit.AdmissionMaxRequests,
		KeyFunc:     ratelimit.AuthenticatedKey,
		Headers:     headers,
	})
	if err != nil {
		logger.Fatal("Invalid admission rate limit policy:", err)
	}

	admissionService := services.NewAdmissionService(rateLimiterService, entitlementService, quotaService, admissionPolicy, logger)

	// Background cleanup of expired ephemeral rows
	sweeper := services.NewSweeperService(ephemeralRepo, &services.SweeperConfig{
		Interval: cfg.Sweeper.Interval,
		Timeout:  cfg.Sweeper.Timeout,
	}, logger)
	sweeper.Start()
	defer sweeper.Stop()

	hcSlice := []ports.HealthChecker{health.NewDBHealthChecker(database), health.NewRedisHealthChecker(redisClient)}

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		TLSCertFile:  cfg.Server.TLSCertFile,
		TLSKeyFile:   cfg.Server.TLSKeyFile,
	}

	policies := httpserver.RoutePolicies{
		General:   generalPolicy,
		Write:     writePolicy,
		Admission: admissionPolicy,
	}

	// Initialize HTTP server using ServerDeps for clearer wiring
	deps := httpserver.ServerDeps{
		PlanService:         planService,
		SubscriptionService: subscriptionService,
		QuotaService:        quotaService,
		EntitlementService:  entitlementService,
		RateLimiterService:  rateLimiterService,
		AdmissionService:    admissionService,
		HealthCheckers:      hcSlice,
	}

	server := httpserver.NewServer(serverConfig, cfg.JWT.Secret, policies, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
