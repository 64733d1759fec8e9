package handler

import (
	"context"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/application"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/loyalty"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/seat"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/ticket"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/wallet"
)

// AvailabilityServiceInterface は空席照会サービスのインターフェース
type AvailabilityServiceInterface interface {
	GetSeatMap(ctx context.Context, st ticket.Showtime) ([]seat.Seat, error)
	GetBookedSeatIDs(ctx context.Context, st ticket.Showtime) (map[string]struct{}, error)
}

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	Reserve(ctx context.Context, input application.ReserveInput) (*ticket.Ticket, error)
	GetTicket(ctx context.Context, id string) (*ticket.Ticket, error)
	GetUserTickets(ctx context.Context, userID string, limit, offset int) ([]*ticket.Ticket, error)
}

// PaymentServiceInterface は決済サービスのインターフェース
type PaymentServiceInterface interface {
	Pay(ctx context.Context, input application.PayInput) (*application.PayResult, error)
}

// WalletServiceInterface はウォレットサービスのインターフェース
type WalletServiceInterface interface {
	GetWallet(ctx context.Context, userID string) (*wallet.Wallet, error)
	TopUp(ctx context.Context, userID string, amount int64) (*wallet.Wallet, *wallet.Transaction, error)
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*wallet.Transaction, error)
}

// LoyaltyServiceInterface はロイヤルティサービスのインターフェース
type LoyaltyServiceInterface interface {
	GetState(ctx context.Context, userID string) (*loyalty.State, error)
}
