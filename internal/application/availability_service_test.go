package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/seat"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/ticket"
)

func availabilityShowtime() ticket.Showtime {
	return ticket.Showtime{MovieID: 3, Date: "10/06/2030", Time: "21:00"}
}

func TestAvailabilityService_GetBookedSeatIDs(t *testing.T) {
	t.Run("予約済み座席を返す", func(t *testing.T) {
		repo := new(MockTicketRepository)
		service := NewAvailabilityService(repo, nil, 0)
		st := availabilityShowtime()

		repo.On("GetBookedSeatIDs", context.Background(), st).
			Return(map[string]struct{}{"B2": {}, "C5": {}}, nil).Once()

		booked, err := service.GetBookedSeatIDs(context.Background(), st)

		require.NoError(t, err)
		assert.Len(t, booked, 2)
		assert.Contains(t, booked, "B2")
		assert.Contains(t, booked, "C5")
	})

	t.Run("予約なしは空集合を返す", func(t *testing.T) {
		repo := new(MockTicketRepository)
		service := NewAvailabilityService(repo, nil, 0)
		st := availabilityShowtime()

		repo.On("GetBookedSeatIDs", context.Background(), st).
			Return(map[string]struct{}{}, nil).Once()

		booked, err := service.GetBookedSeatIDs(context.Background(), st)

		require.NoError(t, err)
		assert.Empty(t, booked)
	})

	t.Run("取得失敗は空集合に畳み込まずエラーを返す", func(t *testing.T) {
		repo := new(MockTicketRepository)
		service := NewAvailabilityService(repo, nil, 0)
		st := availabilityShowtime()

		repo.On("GetBookedSeatIDs", context.Background(), st).
			Return(nil, errors.New("タイムアウト")).Once()

		booked, err := service.GetBookedSeatIDs(context.Background(), st)

		require.Error(t, err)
		assert.Nil(t, booked)
	})
}

func TestAvailabilityService_GetSeatMap(t *testing.T) {
	t.Run("標準レイアウトに予約状況が反映される", func(t *testing.T) {
		repo := new(MockTicketRepository)
		service := NewAvailabilityService(repo, nil, 0)
		st := availabilityShowtime()

		repo.On("GetBookedSeatIDs", context.Background(), st).
			Return(map[string]struct{}{"A1": {}, "G8": {}}, nil).Once()

		seats, err := service.GetSeatMap(context.Background(), st)

		require.NoError(t, err)
		assert.Len(t, seats, seat.Total)

		bookedCount := 0
		for _, s := range seats {
			if s.IsBooked {
				bookedCount++
				assert.Contains(t, []string{"A1", "G8"}, s.ID)
			}
		}
		assert.Equal(t, 2, bookedCount)
	})

	t.Run("取得失敗時は座席一覧を返さない", func(t *testing.T) {
		repo := new(MockTicketRepository)
		service := NewAvailabilityService(repo, nil, 0)
		st := availabilityShowtime()

		repo.On("GetBookedSeatIDs", context.Background(), st).
			Return(nil, errors.New("接続エラー")).Once()

		seats, err := service.GetSeatMap(context.Background(), st)

		require.Error(t, err)
		assert.Nil(t, seats)
	})
}
