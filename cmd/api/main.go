package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/api"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/api/handler"
	custommiddleware "github.com/sanosuguru/go-movie-ticket-booking/internal/api/middleware"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/application"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/config"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-movie-ticket-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/notification"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/pkg/metrics"
)

func main() {
	cfg := config.Load()

	logger.Set(logger.NewLogger(cfg.Server.Env))
	defer logger.Sync()

	log := logger.Get()
	log.Info("映画チケット予約サービスを起動します", zap.String("env", cfg.Server.Env))

	// PostgreSQL接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatal("データベース接続に失敗しました", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション実行
	if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
		log.Fatal("マイグレーションに失敗しました", zap.Error(err))
	}

	// Redis接続（空席キャッシュ用）
	redisClient := redisinfra.NewClient(&cfg.Redis)
	defer redisClient.Close()

	var cache *redisinfra.AvailabilityCache
	if err := redisinfra.Ping(context.Background(), redisClient); err != nil {
		// キャッシュなしでも動作する（照会は毎回DBへ）
		log.Warn("Redis接続に失敗したためキャッシュなしで起動します", zap.Error(err))
	} else {
		cache = redisinfra.NewAvailabilityCache(redisClient)
	}

	// メトリクス初期化
	m := metrics.Init()

	// リポジトリ
	txManager := postgres.NewTxManager(db)
	ticketRepo := postgres.NewTicketRepository(db)
	walletRepo := postgres.NewWalletRepository(db)
	loyaltyRepo := postgres.NewLoyaltyRepository(db)

	// ランク変更通知ディスパッチャー
	dispatcher := notification.NewTierDispatcher(cfg.Booking.NotificationBuffer, nil)
	dispatcherCtx, dispatcherCancel := context.WithCancel(context.Background())
	defer dispatcherCancel()
	go dispatcher.Start(dispatcherCtx)
	defer dispatcher.Stop()

	// アプリケーションサービス
	availabilityService := application.NewAvailabilityService(ticketRepo, cache, cfg.Booking.AvailabilityCacheTTL)
	bookingService := application.NewBookingService(txManager, ticketRepo, availabilityService)
	paymentService := application.NewPaymentService(txManager, ticketRepo, walletRepo, loyaltyRepo, availabilityService, dispatcher, m)
	walletService := application.NewWalletService(txManager, walletRepo, m)
	loyaltyService := application.NewLoyaltyService(loyaltyRepo)

	// ハンドラー
	healthHandler := handler.NewHealthHandler()
	showtimeHandler := handler.NewShowtimeHandler(availabilityService)
	ticketHandler := handler.NewTicketHandler(bookingService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	walletHandler := handler.NewWalletHandler(walletService)
	loyaltyHandler := handler.NewLoyaltyHandler(loyaltyService)

	// Echoセットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	custommiddleware.SetupMiddleware(e)
	e.Use(custommiddleware.PrometheusMiddleware(m))

	// ルーティング
	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommiddleware.MetricsBasicAuth())

	v1 := e.Group("/api/v1")
	v1.GET("/showtimes/seats", showtimeHandler.GetSeatMap)
	v1.GET("/showtimes/booked", showtimeHandler.GetBookedSeats)
	v1.POST("/payments", paymentHandler.Pay)
	v1.POST("/bookings", ticketHandler.Reserve)
	v1.GET("/tickets", ticketHandler.GetUserTickets)
	v1.GET("/tickets/:id", ticketHandler.GetByID)
	v1.GET("/wallet", walletHandler.Get)
	v1.GET("/wallet/transactions", walletHandler.ListTransactions)
	v1.POST("/wallet/topup", walletHandler.TopUp)
	v1.GET("/loyalty", loyaltyHandler.Get)

	// サーバー起動
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("サーバーをシャットダウンしています...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	log.Info("サーバーが正常にシャットダウンしました")
}
