package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"attendance-backend/internal/config"
	"attendance-backend/internal/database"
	"attendance-backend/internal/handlers"
	"attendance-backend/internal/models"
	"attendance-backend/internal/repository"
	"attendance-backend/internal/router"
	"attendance-backend/internal/services"
)

func main() {
	log.Println("🚀 Starting Attendance Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Stores (PostgreSQL, or in-memory for dev) ────
	var (
		sessionStore repository.SessionStore
		policyStore  repository.PolicyStore
		logStore     repository.NotificationLogStore
		userStore    repository.UserStore
		courseStore  repository.CourseStore
		tenantStore  repository.TenantStore
	)

	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("✗ PostgreSQL connection failed: %v", err)
		}
		defer pool.Close()
		log.Println("✓ PostgreSQL connected")

		if err := database.RunMigrations(pool, "migrations"); err != nil {
			log.Fatalf("✗ Database migration failed: %v", err)
		}
		log.Println("✓ Database migrations applied")

		sessionStore = repository.NewSessionRepo(pool)
		policyStore = repository.NewPolicyRepo(pool)
		logStore = repository.NewNotificationLogRepo(pool)
		userStore = repository.NewUserRepo(pool)
		courseStore = repository.NewCourseRepo(pool)
		tenantStore = repository.NewTenantRepo(pool)
	} else {
		log.Println("⚠ DATABASE_URL not set, using in-memory stores (dev mode)")
		sessionStore = repository.NewMemorySessionStore()
		policyStore = repository.NewMemoryPolicyStore()
		logStore = repository.NewMemoryNotificationLogStore()
		userStore = repository.NewMemoryUserStore()
		courseStore = repository.NewMemoryCourseStore()
		tenantStore = repository.NewMemoryTenantStore(models.Tenant{ID: "dev", Name: "Development", Active: true})
	}

	// ──── Step 3: Initialize Redis (reconcile lock) ────
	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		client, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer client.Close()
		redisClient = client
		log.Println("✓ Redis connected")
	} else {
		log.Println("⚠ REDIS_URL not set, reconcile lock disabled")
	}

	// ──── Step 4: Initialize Services ────
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)
	sessionService := services.NewSessionService(sessionStore)
	policyResolver := services.NewPolicyResolver(policyStore)
	reminderService := services.NewReminderService(logStore, userStore, courseStore, emailService)
	reconcileService := services.NewReconcileService(
		sessionStore,
		tenantStore,
		policyResolver,
		reminderService,
		redisClient,
		services.ReconcileConfig{
			StaleAfter:         time.Duration(cfg.StaleAfterMin) * time.Minute,
			StaleBatchSize:     cfg.StaleBatchSize,
			AutoCloseAfter:     time.Duration(cfg.AutoCloseAfterHrs) * time.Hour,
			AutoCloseBatchSize: cfg.AutoCloseBatchSize,
		},
	)

	// ──── Step 5: Start Reconcile Scheduler ────
	scheduler := services.NewReconcileScheduler(reconcileService, cfg.ReconcileCron)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("✗ Reconcile scheduler failed to start: %v", err)
	}

	// ──── Step 6: Initialize Handlers ────
	sessionHandler := handlers.NewSessionHandler(sessionService)
	reconcileHandler := handlers.NewReconcileHandler(reconcileService)

	// ──── Step 7: Start HTTP Server ────
	r := router.New(sessionHandler, reconcileHandler, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		scheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Attendance Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
