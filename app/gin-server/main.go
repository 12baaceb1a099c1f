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
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/hirelink/config"
	"github.com/yoockh/hirelink/internal/api/handlers"
	"github.com/yoockh/hirelink/internal/api/middleware"
	"github.com/yoockh/hirelink/internal/api/routes"
	"github.com/yoockh/hirelink/internal/auth"
	"github.com/yoockh/hirelink/internal/cache"
	"github.com/yoockh/hirelink/internal/events"
	"github.com/yoockh/hirelink/internal/logger"
	"github.com/yoockh/hirelink/internal/metrics"
	"github.com/yoockh/hirelink/internal/migrate"
	mongorepo "github.com/yoockh/hirelink/internal/repositories/mongo"
	pgrepo "github.com/yoockh/hirelink/internal/repositories/postgres"
	"github.com/yoockh/hirelink/internal/services"
	"github.com/yoockh/hirelink/internal/storage"
)

func main() {
	_ = godotenv.Load()

	settings, err := config.LoadSettings(config.NewViper())
	if err != nil {
		logrus.WithError(err).Fatal("invalid settings")
	}
	log := logger.New(settings.LogLevel)

	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("MongoDB init error")
	}
	log.Info("MongoDB connected")
	if err := config.EnsureMongoIndexes(); err != nil {
		log.WithError(err).Fatal("MongoDB index setup error")
	}

	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("PostgreSQL init error")
	}
	log.Info("PostgreSQL connected")
	if err := runMigrations(log); err != nil {
		log.WithError(err).Fatal("PostgreSQL migration error")
	}

	if err := config.InitRedis(); err != nil {
		log.WithError(err).Fatal("Redis init error")
	}
	log.Info("Redis connected")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var uploader storage.Uploader
	if settings.GCSBucket != "" {
		gcs, err := storage.NewGCSUploader(ctx, settings.GCSBucket, settings.GCSPublicRead)
		if err != nil {
			log.WithError(err).Fatal("GCS init error")
		}
		defer gcs.Close()
		uploader = gcs
	} else {
		log.Warn("GCS_BUCKET not set; resume uploads are disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.New(reg)
	if err != nil {
		log.WithError(err).Fatal("metrics init error")
	}

	tokens, err := auth.NewTokens(settings.JWTSecret, settings.JWTIssuer, settings.TokenTTL)
	if err != nil {
		log.WithError(err).Fatal("token setup error")
	}

	db := config.MongoDatabase()
	postingRepo := mongorepo.NewPostingRepo(db)
	applicationRepo := mongorepo.NewApplicationRepo(db)
	accountRepo := pgrepo.NewAccountRepo(config.PostgresDB)

	postingCache := cache.NewRedisCache(config.RedisClient, "hirelink:")
	publisher := events.NewRedisPublisher(config.RedisClient)

	accountSvc := services.NewAccountService(accountRepo, tokens, log)
	postingSvc := services.NewPostingService(postingRepo, applicationRepo, accountRepo, postingCache, settings.PostingCacheTTL, rec, log)
	applicationSvc := services.NewApplicationService(postingRepo, applicationRepo, postingCache, publisher, rec, log)
	recommendationSvc := services.NewRecommendationService(accountRepo, postingRepo, applicationRepo, settings.RecommendationLimit)
	resumeSvc := services.NewResumeService(uploader, settings.MaxResumeBytes)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.MaxMultipartMemory = settings.MaxResumeBytes
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.Metrics(rec))

	routes.RegisterRoutes(r, routes.Deps{
		Auth:         handlers.NewAuthHandler(accountSvc),
		Postings:     handlers.NewPostingHandler(postingSvc),
		Applications: handlers.NewApplicationHandler(applicationSvc, recommendationSvc, accountSvc, resumeSvc),
		Profile:      handlers.NewProfileHandler(accountSvc, resumeSvc),
		Feed:         handlers.NewFeedHandler(applicationSvc, config.RedisClient, log, settings.AllowedOrigins),
		Verifier:     tokens,
		Log:          log,
		Metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http server shutdown error")
	}
	_ = config.RedisClient.Close()
	_ = config.MongoClient.Disconnect(shutdownCtx)
	if sqlDB, err := config.PostgresDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func runMigrations(log *logrus.Logger) error {
	dsn, err := config.PostgresURI()
	if err != nil {
		return err
	}
	runner, err := migrate.New(dsn, log)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return runner.Up(ctx)
}
