package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/api/handler"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/api/router"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/application"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/config"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/card"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/trip"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/user"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/infrastructure/memory"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/infrastructure/messaging"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-train-ticket-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/auth"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/clock"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/metrics"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/worker"
)

// storage はストレージドライバーごとのリポジトリ一式
type storage struct {
	tx           transaction.Manager
	trips        trip.Repository
	reservations reservation.Repository
	cards        card.Repository
	users        user.Repository
	check        handler.HealthCheckFunc
	close        func() error
}

func openStorage(cfg *config.Config, loc *time.Location) (*storage, error) {
	if cfg.App.StorageDriver == config.StorageMemory {
		store := memory.NewStore()
		return &storage{
			tx:           memory.NewTxManager(store),
			trips:        memory.NewTripRepository(store),
			reservations: memory.NewReservationRepository(store),
			cards:        memory.NewCardRepository(store),
			users:        memory.NewUserRepository(store),
			close:        func() error { return nil },
		}, nil
	}

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
		db.Close()
		return nil, err
	}
	return &storage{
		tx:           postgres.NewTxManager(db),
		trips:        postgres.NewTripRepository(db, loc),
		reservations: postgres.NewReservationRepository(db),
		cards:        postgres.NewCardRepository(db),
		users:        postgres.NewUserRepository(db),
		check:        func(ctx context.Context) error { return postgres.Ping(ctx, db) },
		close:        db.Close,
	}, nil
}

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("設定エラー: %v", err)
	}

	zl := logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	defer logger.Sync()

	loc, _ := cfg.App.Location()
	clk := clock.NewReal(loc)
	m := metrics.Init()

	store, err := openStorage(cfg, loc)
	if err != nil {
		logger.Fatal("ストレージ初期化に失敗", zap.String("driver", cfg.App.StorageDriver), zap.Error(err))
	}
	defer store.close()
	logger.Info("ストレージ初期化完了", zap.String("driver", cfg.App.StorageDriver))

	checks := map[string]handler.HealthCheckFunc{}
	if store.check != nil {
		checks["postgres"] = store.check
	}

	// Redis は任意。接続できない場合はロックとキャッシュなしで動かす
	var (
		redisClient redis.UniversalClient
		locker      application.TripLocker
		cache       application.TripCache
	)
	if cfg.Redis.Enabled {
		rc, err := redisinfra.NewClient(&cfg.Redis)
		if err != nil {
			logger.Warn("Redis に接続できないためロックとキャッシュを無効化", zap.Error(err))
		} else {
			defer rc.Close()
			redisClient = rc
			locker = redisinfra.NewLockManager(rc, cfg.Booking.LockTTL, m)
			cache = redisinfra.NewTripCache(rc, cfg.Booking.CacheTTL)
			checks["redis"] = func(ctx context.Context) error { return redisinfra.Ping(ctx, rc) }
		}
	}

	publisher, err := messaging.NewPublisher(cfg.Broker, redisClient, zl)
	if err != nil {
		logger.Fatal("イベント配信の初期化に失敗", zap.String("driver", cfg.Broker.Driver), zap.Error(err))
	}
	defer publisher.Close()

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	tripService := application.NewTripService(store.trips, store.reservations, cache, clk, loc)
	reservationService := application.NewReservationService(
		store.tx, store.trips, store.reservations, store.cards,
		application.WithTripLocker(locker),
		application.WithTripCache(cache),
		application.WithEventPublisher(publisher),
		application.WithMetrics(m),
		application.WithClock(clk),
		application.WithExpiry(cfg.Booking.ExpireAfter, cfg.Booking.ReleaseSeatsOnExpiry),
	)
	cardService := application.NewCardService(store.cards, clk)
	userService := application.NewUserService(store.users, tokens, cfg.Auth.BcryptCost, clk)

	if cfg.Auth.HasAdmin() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := userService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			logger.Fatal("管理者の作成に失敗", zap.Error(err))
		}
		cancel()
	}

	e := router.New(router.Handlers{
		Trip:        handler.NewTripHandler(tripService),
		Reservation: handler.NewReservationHandler(reservationService, userService),
		Card:        handler.NewCardHandler(cardService),
		User:        handler.NewUserHandler(userService),
		Health:      handler.NewHealthHandler(checks),
	}, tokens, middleware.Options{
		AllowOrigins: cfg.Server.AllowOrigins,
		BodyLimit:    cfg.Server.BodyLimit,
	})
	e.Use(middleware.PrometheusMiddleware(m))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(cfg.Metrics))

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var sweeper *worker.ExpirySweeper
	if cfg.Booking.SweepInterval > 0 {
		sweeper = worker.NewExpirySweeper(reservationService, cfg.Booking.SweepInterval)
		go sweeper.Start(ctx)
	}

	go func() {
		logger.Info("サーバー起動", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	if sweeper != nil {
		sweeper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("サーバーシャットダウンエラー", zap.Error(err))
		return
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
