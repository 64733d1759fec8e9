package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/application"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/ticket"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/wallet"
)

type PaymentHandler struct {
	service PaymentServiceInterface
}

func NewPaymentHandler(s PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: s}
}

type PayRequest struct {
	MovieID     int      `json:"movie_id" validate:"required,min=1" example:"42"`
	MovieTitle  string   `json:"movie_title" example:"インターステラー"`
	MoviePoster string   `json:"movie_poster" example:"/poster/42.jpg"`
	Date        string   `json:"date" validate:"required" example:"01/01/2030"`
	Time        string   `json:"time" validate:"required" example:"20:00"`
	SeatIDs     []string `json:"seat_ids" validate:"required,min=1" example:"C3,C4"`
	TotalAmount int64    `json:"total_amount" validate:"required,min=1" example:"100000"`
}

type PayResponse struct {
	Ticket       TicketResponse `json:"ticket"`
	NewBalance   int64          `json:"new_balance" example:"100000"`
	EarnedPoints int64          `json:"earned_points" example:"10"`
	Points       int64          `json:"points" example:"10"`
	Tier         string         `json:"tier" example:"Silver"`
	TierChanged  bool           `json:"tier_changed"`
}

// Pay godoc
// @Summary チケットを購入
// @Description 座席予約・ウォレット引き落とし・ポイント付与を1つのトランザクションで行います
// @Tags payments
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body PayRequest true "決済情報"
// @Success 201 {object} PayResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string "座席が既に予約済み"
// @Failure 422 {object} map[string]string "残高不足"
// @Router /payments [post]
func (h *PaymentHandler) Pay(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req PayRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	result, err := h.service.Pay(c.Request().Context(), application.PayInput{
		UserID:      userID,
		Movie:       ticket.Movie{ID: req.MovieID, Title: req.MovieTitle, PosterPath: req.MoviePoster},
		Date:        req.Date,
		Time:        req.Time,
		SeatIDs:     req.SeatIDs,
		TotalAmount: req.TotalAmount,
	})
	if err != nil {
		switch {
		case errors.Is(err, ticket.ErrSeatAlreadyBooked):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, wallet.ErrInsufficientFunds):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		case isValidationError(err):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, PayResponse{
		Ticket:       toTicketResponse(result.Ticket),
		NewBalance:   result.NewBalance,
		EarnedPoints: result.EarnedPoints,
		Points:       result.Points,
		Tier:         string(result.Tier),
		TierChanged:  result.TierChanged,
	})
}
