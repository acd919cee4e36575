package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"betting-model-service/internal/adapters/primary/http/handlers"
	"betting-model-service/internal/adapters/primary/http/middleware"
	"betting-model-service/internal/adapters/secondary/postgres"
	"betting-model-service/internal/adapters/secondary/s3"
	"betting-model-service/internal/config"
	ports "betting-model-service/internal/core/ports/output"
	"betting-model-service/internal/core/services"
	"betting-model-service/internal/httpconn"
	"betting-model-service/internal/mlflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	ctx := context.Background()

	// MLflow registry client over the shared HTTP connector
	conn := httpconn.New(httpconn.Config{
		BaseURL:    cfg.MLflow.TrackingURI,
		AuthToken:  cfg.MLflow.AuthToken,
		Timeout:    cfg.HTTP.Timeout,
		MaxRetries: cfg.HTTP.MaxRetries,
		RetryWait:  cfg.HTTP.RetryWait,
	})
	defer conn.Close()
	registryClient := mlflow.NewClient(conn)

	// Artifact store (S3 / MinIO-compatible)
	artifactStore, err := s3.NewArtifactStore(ctx, &cfg.Artifact)
	if err != nil {
		log.Fatalf("create artifact store: %v", err)
	}

	// Audit trail (Optional - based on config)
	var (
		pool      *pgxpool.Pool
		auditRepo ports.AuditRepository
	)
	if cfg.Database.Enabled {
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
		if err != nil {
			log.Fatalf("parse db config: %v", err)
		}
		poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
		poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
		poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			log.Fatalf("create db pool: %v", err)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			log.Fatalf("ping db: %v", err)
		}
		auditRepo = postgres.NewAuditRepository(pool)
		log.Info("audit trail enabled")
	} else {
		log.Info("audit trail disabled")
	}

	// Core services
	managerSvc := services.NewModelManagerService(registryClient, artifactStore, auditRepo, services.ManagerConfig{
		ExperimentName:   cfg.MLflow.ExperimentName,
		LoadDir:          cfg.Artifact.LoadDir,
		RegistrationWait: cfg.MLflow.RegistrationWait,
		PollAttempts:     cfg.MLflow.PollAttempts,
	})
	if err := managerSvc.EnsureExperiment(ctx); err != nil {
		log.Fatalf("configure experiment: %v", err)
	}

	var auditSvc *services.AuditService
	if auditRepo != nil {
		auditSvc = services.NewAuditService(auditRepo)
	}

	// HTTP facade
	h := handlers.New(managerSvc, auditSvc)

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())

	api := router.Group("/api/v1/betting-models")
	h.RegisterRoutes(api)

	router.GET("/healthz", func(c *gin.Context) {
		if pool != nil {
			if err := pool.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
