package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/ticket"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/transaction"
)

// BookingService は座席予約（チケット発行）を実行する
// 空席確認とチケット書き込みは単一のDBトランザクションで行われ、
// 同一上映回で重なる予約は ticket_seats の一意制約によりコミット時点で弾かれる
type BookingService struct {
	txManager    transaction.Manager
	ticketRepo   ticket.Repository
	availability *AvailabilityService
}

func NewBookingService(tm transaction.Manager, tr ticket.Repository, av *AvailabilityService) *BookingService {
	return &BookingService{txManager: tm, ticketRepo: tr, availability: av}
}

type ReserveInput struct {
	UserID      string
	Movie       ticket.Movie
	Date        string
	Time        string
	SeatIDs     []string
	TotalAmount int64
}

// Reserve は座席を予約してチケットを発行する
// チケットIDはリクエスト内容から決定的に導出されるため、同一リクエストの再試行は
// 既存チケットをそのまま返す（二重発行しない）
func (s *BookingService) Reserve(ctx context.Context, input ReserveInput) (*ticket.Ticket, error) {
	st, err := ticket.NormalizeShowtime(input.Movie.ID, input.Date, input.Time)
	if err != nil {
		return nil, err
	}

	tk, err := ticket.NewTicket(input.UserID, input.Movie, st, input.SeatIDs, input.TotalAmount)
	if err != nil {
		return nil, err
	}

	// 冪等性チェック: 同一リクエストが既にコミット済みならそれを返す
	existing, err := s.ticketRepo.GetByID(ctx, tk.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ticket.ErrTicketNotFound) {
		return nil, fmt.Errorf("冪等性チェックに失敗: %w", err)
	}

	// 事前チェック: 明らかに埋まっている座席は早期に弾く
	// 最終的な衝突検出はコミット時の一意制約が担う
	booked, err := s.availability.GetBookedSeatIDs(ctx, st)
	if err != nil {
		return nil, err
	}
	if conflict := conflictingSeats(input.SeatIDs, booked); len(conflict) > 0 {
		return nil, fmt.Errorf("%w: %s", ticket.ErrSeatAlreadyBooked, strings.Join(conflict, ", "))
	}

	// トランザクション
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.ticketRepo.Create(ctx, tx, tk); err != nil {
		if errors.Is(err, ticket.ErrTicketAlreadyExists) {
			// 同一リクエストが並行してコミットされた場合は既存チケットを返す
			tx.Rollback()
			return s.ticketRepo.GetByID(ctx, tk.ID)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.availability.InvalidateCache(ctx, st)
	return tk, nil
}

// GetTicket はIDからチケットを取得する
func (s *BookingService) GetTicket(ctx context.Context, id string) (*ticket.Ticket, error) {
	return s.ticketRepo.GetByID(ctx, id)
}

// GetUserTickets はユーザーのチケット一覧を取得する
func (s *BookingService) GetUserTickets(ctx context.Context, userID string, limit, offset int) ([]*ticket.Ticket, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.ticketRepo.GetByUserID(ctx, userID, limit, offset)
}

// conflictingSeats は要求座席と予約済み集合の重なりをソート済みで返す
func conflictingSeats(seatIDs []string, booked map[string]struct{}) []string {
	var conflict []string
	for _, id := range seatIDs {
		if _, ok := booked[id]; ok {
			conflict = append(conflict, id)
		}
	}
	sort.Strings(conflict)
	return conflict
}
