package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Baaaki/apartment-booking/internal/activity"
	"github.com/Baaaki/apartment-booking/internal/broker"
	"github.com/Baaaki/apartment-booking/internal/config"
	"github.com/Baaaki/apartment-booking/internal/database"
	"github.com/Baaaki/apartment-booking/internal/handler"
	"github.com/Baaaki/apartment-booking/internal/middleware"
	"github.com/Baaaki/apartment-booking/internal/payment"
	"github.com/Baaaki/apartment-booking/internal/repository"
	"github.com/Baaaki/apartment-booking/internal/router"
	"github.com/Baaaki/apartment-booking/internal/service"
	"github.com/Baaaki/apartment-booking/internal/storage"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal("Invalid configuration", zap.Error(err))
	}
	logger.Log.Info("Config loaded successfully", zap.String("environment", cfg.Environment))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Database
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// 2. Activity journal
	journal, err := activity.Open(cfg.ActivityLogPath)
	if err != nil {
		logger.Log.Fatal("Failed to open activity journal", zap.Error(err))
	}
	defer journal.Close()

	if cfg.ActivityRetention > 0 {
		removed, err := journal.Prune(time.Now().Add(-cfg.ActivityRetention))
		if err != nil {
			logger.Log.Warn("Failed to prune activity journal", zap.Error(err))
		} else if removed > 0 {
			logger.Log.Info("Pruned activity journal", zap.Int("removed", removed))
		}
	}

	// 3. Event brokers
	redisBroker, err := broker.NewRedisBroker(ctx, cfg.RedisURL)
	if err != nil {
		logger.Log.Fatal("Failed to initialize Redis broker", zap.Error(err))
	}

	publishers := broker.MultiPublisher{redisBroker}
	if cfg.KafkaEnabled() {
		kafka, err := broker.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, nil)
		if err != nil {
			logger.Log.Fatal("Failed to initialize Kafka publisher", zap.Error(err))
		}
		publishers = append(publishers, kafka)
		logger.Log.Info("Kafka event stream enabled", zap.String("topic", cfg.KafkaTopic))
	}
	defer publishers.Close()

	// 4. Image storage
	var uploader storage.Uploader = storage.NoopUploader{}
	if cfg.S3Enabled() {
		s3, err := storage.NewS3Uploader(storage.S3Options{
			Endpoint:       cfg.S3Endpoint,
			UseSSL:         cfg.S3UseSSL,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			Bucket:         cfg.S3Bucket,
			PublicEndpoint: cfg.S3PublicEndpoint,
		})
		if err != nil {
			logger.Log.Fatal("Failed to initialize image storage", zap.Error(err))
		}
		uploader = s3
	}

	// 5. Services
	store := repository.NewStore(db)
	events := service.NewEventRecorder(journal, publishers)
	availability := service.NewAvailabilityChecker(store)
	gateway := payment.NewSimulatedGateway(cfg.PaymentSuccessRate, rand.NewSource(time.Now().UnixNano()))

	authService := service.NewAuthService(store.Users, cfg.JWTSecret, cfg.JWTExpiry, cfg.Environment)
	userService := service.NewUserService(store)
	apartmentService := service.NewApartmentService(store, uploader)
	reservationService := service.NewReservationService(store, availability, events)
	paymentService := service.NewPaymentService(store, gateway, events)
	ratingService := service.NewRatingService(store)
	favoriteService := service.NewFavoriteService(store)

	// 6. Handlers
	rateLimiter := middleware.NewRateLimiter(redisBroker.Client(), middleware.RateLimiterConfig{
		MaxRequests: cfg.RateLimitMaxRequests,
		Window:      cfg.RateLimitWindow,
		BlockTime:   cfg.RateLimitBlockTime,
	})
	wsHandler := handler.NewWebSocketHandler()

	engine := router.New(router.Dependencies{
		JWTSecret:      cfg.JWTSecret,
		Users:          store.Users,
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: cfg.TrustedProxies,
		IsProduction:   cfg.IsProduction(),
		RateLimiter:    rateLimiter,

		Auth:         handler.NewAuthHandler(authService),
		Apartments:   handler.NewApartmentHandler(apartmentService, availability),
		Reservations: handler.NewReservationHandler(reservationService),
		Payments:     handler.NewPaymentHandler(paymentService),
		Ratings:      handler.NewRatingHandler(ratingService),
		Favorites:    handler.NewFavoriteHandler(favoriteService),
		Admin:        handler.NewAdminHandler(userService, events, rateLimiter),
		Health:       handler.NewHealthHandler(store, redisBroker.Client()),
		WebSocket:    wsHandler,
	})

	// 7. Live event push
	go func() {
		if err := wsHandler.Run(ctx, redisBroker); err != nil {
			logger.Log.Error("Event listener stopped", zap.Error(err))
		}
	}()

	// 8. Serve until signalled
	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting", zap.String("addr", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Forced shutdown", zap.Error(err))
	}
	logger.Log.Info("Server stopped")
}
