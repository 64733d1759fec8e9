package handler

import (
	"errors"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/seat"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/ticket"
)

// isValidationError はリクエスト内容そのものが不正なドメインエラーかを判定する
func isValidationError(err error) bool {
	for _, target := range []error{
		seat.ErrSeatIDsRequired,
		seat.ErrInvalidSeatID,
		seat.ErrDuplicateSeatID,
		ticket.ErrMovieIDRequired,
		ticket.ErrUserIDRequired,
		ticket.ErrInvalidDate,
		ticket.ErrInvalidTime,
		ticket.ErrInvalidAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
