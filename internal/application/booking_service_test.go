package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/ticket"
)

type bookingTestEnv struct {
	txManager  *MockTxManager
	tx         *MockTx
	ticketRepo *MockTicketRepository
	service    *BookingService
}

func newBookingTestEnv() *bookingTestEnv {
	env := &bookingTestEnv{
		txManager:  new(MockTxManager),
		tx:         new(MockTx),
		ticketRepo: new(MockTicketRepository),
	}
	availability := NewAvailabilityService(env.ticketRepo, nil, 0)
	env.service = NewBookingService(env.txManager, env.ticketRepo, availability)
	return env
}

func validReserveInput() ReserveInput {
	return ReserveInput{
		UserID:      "user-456",
		Movie:       ticket.Movie{ID: 7, Title: "千と千尋の神隠し", PosterPath: "/poster/7.jpg"},
		Date:        "15/03/2030",
		Time:        "18:30",
		SeatIDs:     []string{"A1", "A2"},
		TotalAmount: 50_000,
	}
}

func reserveShowtime() ticket.Showtime {
	return ticket.Showtime{MovieID: 7, Date: "15/03/2030", Time: "18:30"}
}

func TestBookingService_Reserve_Success(t *testing.T) {
	env := newBookingTestEnv()
	ctx := context.Background()

	env.ticketRepo.On("GetByID", ctx, mock.AnythingOfType("string")).Return(nil, ticket.ErrTicketNotFound).Once()
	env.ticketRepo.On("GetBookedSeatIDs", ctx, reserveShowtime()).Return(map[string]struct{}{}, nil).Once()
	env.txManager.On("Begin", ctx).Return(env.tx, nil).Once()
	env.ticketRepo.On("Create", ctx, env.tx, mock.AnythingOfType("*ticket.Ticket")).Return(nil).Once()
	env.tx.On("Commit").Return(nil).Once()
	env.tx.On("Rollback").Return(nil)

	tk, err := env.service.Reserve(ctx, validReserveInput())

	require.NoError(t, err)
	assert.Equal(t, "user-456", tk.UserID)
	assert.Equal(t, []string{"A1", "A2"}, tk.SeatIDs)
	assert.Equal(t, ticket.StatusActive, tk.Status)
	assert.NotEmpty(t, tk.ID)
	env.tx.AssertExpectations(t)
}

func TestBookingService_Reserve_DeterministicID(t *testing.T) {
	// 同一内容のリクエストは同じチケットIDに解決される
	input := validReserveInput()
	st := reserveShowtime()

	first, err := ticket.NewTicket(input.UserID, input.Movie, st, input.SeatIDs, input.TotalAmount)
	require.NoError(t, err)
	second, err := ticket.NewTicket(input.UserID, input.Movie, st, []string{"A2", "A1"}, input.TotalAmount)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "座席の並び順はIDに影響しない")
}

func TestBookingService_Reserve_IdempotentReplay(t *testing.T) {
	env := newBookingTestEnv()
	ctx := context.Background()
	input := validReserveInput()

	existing, err := ticket.NewTicket(input.UserID, input.Movie, reserveShowtime(), input.SeatIDs, input.TotalAmount)
	require.NoError(t, err)

	env.ticketRepo.On("GetByID", ctx, existing.ID).Return(existing, nil).Once()

	tk, err := env.service.Reserve(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, existing.ID, tk.ID)
	// 二重発行なし
	env.txManager.AssertNotCalled(t, "Begin", mock.Anything)
	env.ticketRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_Reserve_SeatConflictPrecheck(t *testing.T) {
	env := newBookingTestEnv()
	ctx := context.Background()

	env.ticketRepo.On("GetByID", ctx, mock.AnythingOfType("string")).Return(nil, ticket.ErrTicketNotFound).Once()
	env.ticketRepo.On("GetBookedSeatIDs", ctx, reserveShowtime()).Return(map[string]struct{}{"A2": {}, "B5": {}}, nil).Once()

	_, err := env.service.Reserve(ctx, validReserveInput())

	assert.ErrorIs(t, err, ticket.ErrSeatAlreadyBooked)
	assert.Contains(t, err.Error(), "A2")
	assert.NotContains(t, err.Error(), "B5")
	env.txManager.AssertNotCalled(t, "Begin", mock.Anything)
}

func TestBookingService_Reserve_ConflictAtCommit(t *testing.T) {
	// 事前チェック通過後に別の予約が同じ座席をコミットしたケース
	env := newBookingTestEnv()
	ctx := context.Background()

	env.ticketRepo.On("GetByID", ctx, mock.AnythingOfType("string")).Return(nil, ticket.ErrTicketNotFound).Once()
	env.ticketRepo.On("GetBookedSeatIDs", ctx, reserveShowtime()).Return(map[string]struct{}{}, nil).Once()
	env.txManager.On("Begin", ctx).Return(env.tx, nil).Once()
	env.ticketRepo.On("Create", ctx, env.tx, mock.AnythingOfType("*ticket.Ticket")).Return(ticket.ErrSeatAlreadyBooked).Once()
	env.tx.On("Rollback").Return(nil)

	_, err := env.service.Reserve(ctx, validReserveInput())

	assert.ErrorIs(t, err, ticket.ErrSeatAlreadyBooked)
	env.tx.AssertNotCalled(t, "Commit")
}

func TestBookingService_Reserve_ConcurrentIdenticalCommit(t *testing.T) {
	// 同一リクエストが並行してコミットされた場合は既存チケットを返す
	env := newBookingTestEnv()
	ctx := context.Background()
	input := validReserveInput()

	existing, err := ticket.NewTicket(input.UserID, input.Movie, reserveShowtime(), input.SeatIDs, input.TotalAmount)
	require.NoError(t, err)

	env.ticketRepo.On("GetByID", ctx, existing.ID).Return(nil, ticket.ErrTicketNotFound).Once()
	env.ticketRepo.On("GetBookedSeatIDs", ctx, reserveShowtime()).Return(map[string]struct{}{}, nil).Once()
	env.txManager.On("Begin", ctx).Return(env.tx, nil).Once()
	env.ticketRepo.On("Create", ctx, env.tx, mock.AnythingOfType("*ticket.Ticket")).Return(ticket.ErrTicketAlreadyExists).Once()
	env.tx.On("Rollback").Return(nil)
	env.ticketRepo.On("GetByID", ctx, existing.ID).Return(existing, nil).Once()

	tk, err := env.service.Reserve(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, existing.ID, tk.ID)
	env.tx.AssertNotCalled(t, "Commit")
}

func TestBookingService_Reserve_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ReserveInput)
		want   error
	}{
		{"座席指定なし", func(in *ReserveInput) { in.SeatIDs = nil }, nil},
		{"ユーザーID必須", func(in *ReserveInput) { in.UserID = "" }, ticket.ErrUserIDRequired},
		{"映画ID必須", func(in *ReserveInput) { in.Movie.ID = 0 }, ticket.ErrMovieIDRequired},
		{"不正な日付", func(in *ReserveInput) { in.Date = "32/01/2030" }, ticket.ErrInvalidDate},
		{"金額は正であること", func(in *ReserveInput) { in.TotalAmount = -100 }, ticket.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newBookingTestEnv()
			input := validReserveInput()
			tt.mutate(&input)

			_, err := env.service.Reserve(context.Background(), input)

			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			env.ticketRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestBookingService_Reserve_DateNormalization(t *testing.T) {
	// "-" や "." 区切りの日付は "/" 区切りに正規化されて照会される
	env := newBookingTestEnv()
	ctx := context.Background()
	input := validReserveInput()
	input.Date = "15-03-2030"

	env.ticketRepo.On("GetByID", ctx, mock.AnythingOfType("string")).Return(nil, ticket.ErrTicketNotFound).Once()
	env.ticketRepo.On("GetBookedSeatIDs", ctx, reserveShowtime()).Return(map[string]struct{}{}, nil).Once()
	env.txManager.On("Begin", ctx).Return(env.tx, nil).Once()
	env.ticketRepo.On("Create", ctx, env.tx, mock.AnythingOfType("*ticket.Ticket")).Return(nil).Once()
	env.tx.On("Commit").Return(nil).Once()
	env.tx.On("Rollback").Return(nil)

	tk, err := env.service.Reserve(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "15/03/2030", tk.Date)
}

func TestBookingService_Reserve_AvailabilityError(t *testing.T) {
	// 空席状況の取得失敗はエラーとして伝播し、予約は進行しない
	env := newBookingTestEnv()
	ctx := context.Background()

	env.ticketRepo.On("GetByID", ctx, mock.AnythingOfType("string")).Return(nil, ticket.ErrTicketNotFound).Once()
	env.ticketRepo.On("GetBookedSeatIDs", ctx, reserveShowtime()).Return(nil, errors.New("接続エラー")).Once()

	_, err := env.service.Reserve(ctx, validReserveInput())

	require.Error(t, err)
	env.txManager.AssertNotCalled(t, "Begin", mock.Anything)
}

func TestBookingService_GetUserTickets_Pagination(t *testing.T) {
	env := newBookingTestEnv()
	ctx := context.Background()

	env.ticketRepo.On("GetByUserID", ctx, "user-456", 20, 0).Return([]*ticket.Ticket{}, nil).Once()
	env.ticketRepo.On("GetByUserID", ctx, "user-456", 100, 0).Return([]*ticket.Ticket{}, nil).Once()

	// limit省略時はデフォルト20、上限は100に丸める
	_, err := env.service.GetUserTickets(ctx, "user-456", 0, -5)
	require.NoError(t, err)
	_, err = env.service.GetUserTickets(ctx, "user-456", 500, 0)
	require.NoError(t, err)

	env.ticketRepo.AssertExpectations(t)
}
