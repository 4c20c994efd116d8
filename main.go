package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"cinelytics/internal/boxoffice/api"
	"cinelytics/internal/config"
	"cinelytics/internal/database/migrations"
	"cinelytics/internal/etl"
	etldb "cinelytics/internal/etl/db"
	etlredis "cinelytics/internal/etl/redis"
	"cinelytics/internal/kafka"
	"cinelytics/internal/kofic"
	"cinelytics/internal/logger"
	"cinelytics/internal/news"
	"cinelytics/internal/reviews"
	reviews_api "cinelytics/internal/reviews/api"
	reviewsdb "cinelytics/internal/reviews/db"
	"cinelytics/internal/share"
	"cinelytics/internal/tmdb"
)

func verifyConnections(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	logger.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	logger.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

// refreshYesterday keeps the latest snapshot warm: the pipeline runs for
// yesterday at startup and then once an hour. A populated date degenerates
// to the freshness check, so repeated ticks are cheap.
func refreshYesterday(etlService *etl.Service, logger *logger.Logger) {
	run := func() {
		yesterday := time.Now().AddDate(0, 0, -1)
		outcome, err := etlService.EnsureDataForDate(yesterday)
		if err != nil {
			logger.Error("SCHEDULER", fmt.Sprintf("Refresh for yesterday failed: %v", err))
			return
		}
		logger.Info("SCHEDULER", fmt.Sprintf("Refresh for yesterday finished: %s", outcome))
	}

	go func() {
		run()
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			run()
		}
	}()
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Cinelytics initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	if cfg.Kofic.APIKey == "" {
		logger.Fatal("CONFIG", "KOFIC_API_KEY not set")
	}
	if cfg.Tmdb.APIKey == "" {
		logger.Warn("CONFIG", "TMDB_API_KEY not set, movies will load without enrichment")
	}

	ctx := context.Background()

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	defer redisClient.Close()

	logger.Info("DATABASE", "Running schema migrations")
	migrationRunner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := migrationRunner.RunMigrations(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{kafka.TopicDayLoaded}); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
	} else {
		logger.Info("KAFKA", "Kafka disabled, load events will not be published")
	}

	// Ranking and metadata fetches share one outbound client; the news
	// path keeps its own short-timeout client inside news.NewClient.
	client := &http.Client{
		Timeout: time.Second * 10,
	}

	store := &etldb.DB{Bun: bunDB}
	koficClient := kofic.NewClient(cfg.Kofic, client, logger)
	tmdbClient := tmdb.NewClient(cfg.Tmdb, client, logger)
	newsClient := news.NewClient(cfg.News, logger)
	dateLock := etlredis.NewRedis(redisClient, cfg.Redis.LockTTL)

	var events etl.EventPublisher
	if producer != nil {
		events = producer
	}
	etlService := etl.NewService(store, koficClient, tmdbClient, dateLock, events, logger)

	reviewService := reviews.NewService(&reviewsdb.DB{Bun: bunDB})

	boxOfficeHandler := api.NewHandler(etlService, store, newsClient, share.NewQRGenerator(cfg.Share.BaseURL), logger)
	reviewHandler := reviews_api.NewHandler(reviewService, logger)

	logger.Info("HTTP", "Setting up router")
	r := chi.NewRouter()
	boxOfficeHandler.RegisterRoutes(r)
	logger.Info("ROUTER", "Box-office routes registered under /api/boxoffice")
	reviewHandler.RegisterRoutes(r)
	logger.Info("ROUTER", "Review routes registered under /api/reviews")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	logger.Info("SCHEDULER", "Starting daily refresh loop")
	refreshYesterday(etlService, logger)

	go func() {
		logger.Info("HTTP", fmt.Sprintf("Cinelytics running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "Cinelytics shutdown complete")
	}
}
