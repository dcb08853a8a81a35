package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/travelbook/config"
	authmgr "github.com/Domenick1991/travelbook/internal/auth"
	"github.com/Domenick1991/travelbook/internal/bootstrap"
	"github.com/Domenick1991/travelbook/internal/cache"
	"github.com/Domenick1991/travelbook/internal/kafka"
	"github.com/Domenick1991/travelbook/internal/repository"
	authsvc "github.com/Domenick1991/travelbook/internal/service/auth"
	"github.com/Domenick1991/travelbook/internal/service/booking"
	"github.com/Domenick1991/travelbook/internal/service/travel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.CatalogCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	tokens := authmgr.NewManager(cfg.Auth.Secret, time.Duration(cfg.Auth.TTLMinutes)*time.Minute)

	travelRepo := repository.NewTravelRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	travelService := travel.NewTravelService(travelRepo, redisCache)
	bookingService := booking.NewBookingService(
		bookingRepo,
		redisCache,
		producer,
		cfg.Kafka.BookingTopic,
		cfg.Booking.MaxRetries,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithLogger(logger),
	)
	authService := authsvc.NewAuthService(userRepo, tokens)

	err = bootstrap.Run(ctx, cfg, logger, bootstrap.Services{
		Travel:  travelService,
		Booking: bookingService,
		Auth:    authService,
		Tokens:  tokens,
	})
	if err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
