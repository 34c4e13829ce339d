package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"omnitask/backend/internal/ai"
	"omnitask/backend/internal/config"
	"omnitask/backend/internal/handlers"
	"omnitask/backend/internal/middleware"
	"omnitask/backend/internal/monitoring"
	"omnitask/backend/internal/storage"
	"omnitask/backend/internal/store"
	"omnitask/backend/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, err := buildStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s storage: %v", cfg.Storage.Backend, err)
	}
	defer st.Close()

	taskStore := store.New(st)
	hydrateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := taskStore.Hydrate(hydrateCtx); err != nil {
		cancel()
		log.Fatalf("Failed to load tasks from %s storage: %v", cfg.Storage.Backend, err)
	}
	cancel()
	log.Printf("Loaded %d tasks from %s storage", len(taskStore.Tasks()), cfg.Storage.Backend)

	monitoring.RegisterHealthCheck("storage", st.Health)

	coach := buildCoach(cfg)
	taskHandler := handlers.NewTaskHandler(taskStore)
	coachHandler := handlers.NewCoachHandler(taskStore, coach)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RecoveryWithLog())
	r.Use(monitoring.MetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	var aiLimit gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		aiLimit = middleware.RateLimit(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize)
	}
	handlers.RegisterRoutes(r, taskHandler, coachHandler, aiLimit)

	r.GET("/health", monitoring.HealthHandler())
	r.GET("/metrics", monitoring.MetricsHandler())

	var reminderWorker *worker.Worker
	if cfg.Worker.Enabled {
		if rs, ok := st.(*storage.RedisStorage); ok {
			reminderWorker = worker.New(worker.Config{
				RedisClient:  rs.Client(),
				Store:        taskStore,
				Concurrency:  cfg.Worker.Concurrency,
				PollInterval: cfg.Worker.PollInterval,
				ScanInterval: cfg.Worker.ScanInterval,
			})
			reminderWorker.Start()
			monitoring.RegisterGauge("reminder_queue_size", reminderWorker.QueueSize)
		} else {
			log.Printf("Reminder worker requires the redis backend, skipping (backend: %s)", cfg.Storage.Backend)
		}
	}

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	if reminderWorker != nil {
		reminderWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

func buildStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "redis":
		return storage.NewRedisStorage(&storage.RedisConfig{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Storage.Redis.Password,
			DB:           cfg.Storage.Redis.DB,
			PoolSize:     cfg.Storage.Redis.PoolSize,
			MinIdleConns: cfg.Storage.Redis.MinIdleConns,
			MaxRetries:   cfg.Storage.Redis.MaxRetries,
			DialTimeout:  cfg.Storage.Redis.DialTimeout,
			ReadTimeout:  cfg.Storage.Redis.ReadTimeout,
			WriteTimeout: cfg.Storage.Redis.WriteTimeout,
		}), nil
	case "file":
		return storage.NewFileStorage(cfg.Storage.DataDir)
	case "sqlite":
		return storage.NewSQLiteStorage(cfg.Storage.SQLitePath)
	case "postgres":
		return storage.NewPostgresStorage(cfg.GetPostgresDSN())
	default:
		// LoadConfig already validated the backend name.
		return storage.NewMemoryStorage(), nil
	}
}

func buildCoach(cfg *config.Config) ai.Coach {
	if !cfg.AI.Enabled || cfg.AI.APIKey == "" {
		log.Println("AI coaching disabled (no API key configured)")
		return ai.DisabledCoach{}
	}
	return ai.NewGeminiClient(ai.Config{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	})
}
