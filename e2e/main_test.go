package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/api"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/api/handler"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/api/middleware"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/application"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/config"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-movie-ticket-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/notification"
)

// TestServer はE2Eテスト用のサーバー
type TestServer struct {
	Echo    *echo.Echo
	DB      *sqlx.DB
	Cleanup func()
}

// NewTestServer はテスト用サーバーを作成
// DB / Redis が起動していない環境ではテストをスキップする
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	cfg := config.Load()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		t.Skipf("DB接続エラー: %v", err)
	}

	if err := postgres.RunMigrations(db.DB, "../migrations"); err != nil {
		db.Close()
		t.Skipf("マイグレーションエラー: %v", err)
	}

	redisClient := redisinfra.NewClient(&cfg.Redis)
	if err := redisinfra.Ping(context.Background(), redisClient); err != nil {
		db.Close()
		t.Skipf("Redis接続エラー: %v", err)
	}
	cache := redisinfra.NewAvailabilityCache(redisClient)

	txManager := postgres.NewTxManager(db)
	ticketRepo := postgres.NewTicketRepository(db)
	walletRepo := postgres.NewWalletRepository(db)
	loyaltyRepo := postgres.NewLoyaltyRepository(db)

	dispatcher := notification.NewTierDispatcher(cfg.Booking.NotificationBuffer, nil)
	dispatcherCtx, dispatcherCancel := context.WithCancel(context.Background())
	go dispatcher.Start(dispatcherCtx)

	availabilityService := application.NewAvailabilityService(ticketRepo, cache, cfg.Booking.AvailabilityCacheTTL)
	bookingService := application.NewBookingService(txManager, ticketRepo, availabilityService)
	paymentService := application.NewPaymentService(txManager, ticketRepo, walletRepo, loyaltyRepo, availabilityService, dispatcher, nil)
	walletService := application.NewWalletService(txManager, walletRepo, nil)
	loyaltyService := application.NewLoyaltyService(loyaltyRepo)

	healthHandler := handler.NewHealthHandler()
	showtimeHandler := handler.NewShowtimeHandler(availabilityService)
	ticketHandler := handler.NewTicketHandler(bookingService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	walletHandler := handler.NewWalletHandler(walletService)
	loyaltyHandler := handler.NewLoyaltyHandler(loyaltyService)

	e := echo.New()
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	middleware.SetupMiddleware(e)

	e.GET("/health", healthHandler.Check)

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

	cleanup := func() {
		db.Exec("TRUNCATE TABLE ticket_seats, tickets, wallet_transactions, wallets, user_profiles CASCADE")
		redisClient.FlushDB(context.Background())
		dispatcherCancel()
		dispatcher.Stop()
		redisClient.Close()
		db.Close()
	}

	return &TestServer{Echo: e, DB: db, Cleanup: cleanup}
}

// Request はHTTPリクエストを実行
func (s *TestServer) Request(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

// topUp はテストユーザーのウォレットに入金するヘルパー
func (s *TestServer) topUp(t *testing.T, userID string, amount int64) {
	t.Helper()
	rec := s.Request("POST", "/api/v1/wallet/topup", map[string]interface{}{"amount": amount}, map[string]string{
		"X-User-ID": userID,
	})
	require.Equal(t, 200, rec.Code, "入金に失敗: %s", rec.Body.String())
}
