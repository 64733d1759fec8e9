package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/application"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/ticket"
)

type TicketHandler struct {
	service BookingServiceInterface
}

func NewTicketHandler(s BookingServiceInterface) *TicketHandler {
	return &TicketHandler{service: s}
}

type ReserveRequest struct {
	MovieID     int      `json:"movie_id" validate:"required,min=1" example:"42"`
	MovieTitle  string   `json:"movie_title" example:"インターステラー"`
	MoviePoster string   `json:"movie_poster" example:"/poster/42.jpg"`
	Date        string   `json:"date" validate:"required" example:"01/01/2030"`
	Time        string   `json:"time" validate:"required" example:"20:00"`
	SeatIDs     []string `json:"seat_ids" validate:"required,min=1" example:"C3,C4"`
	TotalAmount int64    `json:"total_amount" validate:"required,min=1" example:"100000"`
}

type TicketResponse struct {
	ID          string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	MovieID     int       `json:"movie_id" example:"42"`
	MovieTitle  string    `json:"movie_title" example:"インターステラー"`
	MoviePoster string    `json:"movie_poster" example:"/poster/42.jpg"`
	UserID      string    `json:"user_id" example:"user-123"`
	SeatIDs     []string  `json:"seat_ids" example:"C3,C4"`
	Date        string    `json:"date" example:"01/01/2030"`
	Time        string    `json:"time" example:"20:00"`
	TotalAmount int64     `json:"total_amount" example:"100000"`
	Status      string    `json:"status" example:"active"`
	Paid        bool      `json:"paid" example:"true"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTicketResponse(t *ticket.Ticket) TicketResponse {
	return TicketResponse{
		ID: t.ID, MovieID: t.MovieID, MovieTitle: t.MovieTitle, MoviePoster: t.MoviePoster,
		UserID: t.UserID, SeatIDs: t.SeatIDs, Date: t.Date, Time: t.Time,
		TotalAmount: t.TotalAmount, Status: string(t.Status), Paid: t.Paid, CreatedAt: t.CreatedAt,
	}
}

// Reserve godoc
// @Summary 座席を予約
// @Description 決済を伴わない座席予約でチケットを発行します
// @Tags tickets
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body ReserveRequest true "予約情報"
// @Success 201 {object} TicketResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string "座席が既に予約済み"
// @Router /bookings [post]
func (h *TicketHandler) Reserve(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req ReserveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	tk, err := h.service.Reserve(c.Request().Context(), application.ReserveInput{
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
		case isValidationError(err):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, toTicketResponse(tk))
}

// GetByID godoc
// @Summary チケットを取得
// @Description 指定IDのチケットを取得します
// @Tags tickets
// @Produce json
// @Param id path string true "チケットID"
// @Success 200 {object} TicketResponse
// @Failure 404 {object} map[string]string
// @Router /tickets/{id} [get]
func (h *TicketHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	tk, err := h.service.GetTicket(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ticket.ErrTicketNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toTicketResponse(tk))
}

// GetUserTickets godoc
// @Summary ユーザーのチケット一覧を取得
// @Description ログインユーザーのチケット一覧を取得します
// @Tags tickets
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} TicketResponse
// @Failure 401 {object} map[string]string
// @Router /tickets [get]
func (h *TicketHandler) GetUserTickets(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	tickets, err := h.service.GetUserTickets(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]TicketResponse, len(tickets))
	for i, tk := range tickets {
		resp[i] = toTicketResponse(tk)
	}
	return c.JSON(http.StatusOK, resp)
}
