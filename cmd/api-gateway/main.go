package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Boatkungg/teerute-tpat13-checker/api/swagger"
	"github.com/Boatkungg/teerute-tpat13-checker/internal/handler"
	"github.com/Boatkungg/teerute-tpat13-checker/internal/middleware"
	"github.com/Boatkungg/teerute-tpat13-checker/internal/repository"
	"github.com/Boatkungg/teerute-tpat13-checker/internal/service"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/cache"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/config"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/jobs"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/logger"
	corsmiddleware "github.com/Boatkungg/teerute-tpat13-checker/pkg/middleware/cors"
	reqidmiddleware "github.com/Boatkungg/teerute-tpat13-checker/pkg/middleware/requestid"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/storage"
)

// @title TPAT13 Checker API
// @version 1.0.0
// @description Merges bubble-sheet answer exports and scores them against an answer key.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	var (
		results    service.CacheRepository
		redisStore *repository.CacheRepository
		memory     *repository.MemoryRepository
	)
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("redis unavailable", zap.Error(err))
		}
		redisStore = repository.NewCacheRepository(client, "checker:", logr)
		defer redisStore.Close() //nolint:errcheck
		results = redisStore
	} else {
		memory = repository.NewMemoryRepository()
		results = memory
		logr.Info("redis disabled, keeping results in memory")
	}
	store := service.NewCacheService(results, metrics, cfg.Results.TTL, logr, service.WithOpTimeout(cfg.Results.StoreTimeout))

	codec := service.NewAnswerCodec(service.RangeUnchecked)
	if cfg.Scoring.StrictSelections {
		codec = service.NewAnswerCodec(service.RangeReject)
	}
	duplicates := service.DuplicateOverwrite
	if cfg.Scoring.RejectDuplicateQuestions {
		duplicates = service.DuplicateReject
	}

	mergeSvc := service.NewMergeService(store, metrics, cfg.Results.TTL, service.MergeOptions{IDColumn: cfg.Columns.StudentID}, logr)
	scoreSvc := service.NewScoreService(mergeSvc, store, metrics, service.ScoringConfig{
		DefaultPenalty: cfg.Scoring.DefaultPenalty,
		Codec:          codec,
		Duplicates:     duplicates,
		QuestionColumn: cfg.Columns.QuestionNumber,
		ResultTTL:      cfg.Results.TTL,
	}, validator.New(), logr)

	files, err := storage.NewDir(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("export storage unavailable", zap.Error(err))
	}
	signer := storage.NewLinkSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(mergeSvc, scoreSvc, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		FileTTL:   cfg.Exports.SignedURLTTL,
	}, logr)

	var sweeper interface{ Sweep() int }
	if memory != nil {
		sweeper = memory
	}
	maintenance := service.NewMaintenanceService(exportSvc, sweeper, logr)
	queue := jobs.NewQueue("maintenance", maintenance.Handle, jobs.QueueConfig{Workers: 1, MaxRetries: 1, Logger: logr})
	if err := metrics.TrackQueue(queue.Name(), queue.Stats); err != nil {
		logr.Warn("queue metrics unavailable", zap.Error(err))
	}
	queue.Start(ctx)
	defer queue.Stop()
	for _, jobType := range []string{service.JobExportCleanup, service.JobResultSweep} {
		jobType := jobType
		if err := queue.Every(cfg.Exports.CleanupInterval, func(time.Time) jobs.Job {
			return jobs.Job{ID: uuid.NewString(), Type: jobType}
		}); err != nil {
			logr.Fatal("failed to schedule maintenance", zap.Error(err))
		}
	}

	limits := handler.UploadLimits{MaxFileSize: cfg.Uploads.MaxFileSizeBytes, MaxFiles: cfg.Uploads.MaxFiles}
	mergeHandler := handler.NewMergeHandler(mergeSvc, exportSvc, limits)
	scoreHandler := handler.NewScoreHandler(scoreSvc, exportSvc, limits)
	exportHandler := handler.NewExportHandler(exportSvc)
	templateHandler := handler.NewTemplateHandler(cfg.Columns.QuestionNumber)
	metricsHandler := handler.NewMetricsHandler(metrics, nil)
	if redisStore != nil {
		metricsHandler = handler.NewMetricsHandler(metrics, redisStore)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/merges", mergeHandler.Create)
	api.GET("/merges/:id", mergeHandler.Get)
	api.DELETE("/merges/:id", mergeHandler.Delete)
	api.POST("/merges/:id/exports", mergeHandler.Export)
	api.POST("/scores", scoreHandler.Create)
	api.GET("/scores/:id", scoreHandler.Get)
	api.DELETE("/scores/:id", scoreHandler.Delete)
	api.POST("/scores/:id/exports", scoreHandler.Export)
	api.GET("/templates/answer-key", templateHandler.AnswerKey)
	api.GET("/export/:token", exportHandler.Download)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
