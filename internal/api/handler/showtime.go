package handler

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/ticket"
)

type ShowtimeHandler struct {
	service AvailabilityServiceInterface
}

func NewShowtimeHandler(s AvailabilityServiceInterface) *ShowtimeHandler {
	return &ShowtimeHandler{service: s}
}

type SeatResponse struct {
	ID       string `json:"id" example:"C3"`
	IsBooked bool   `json:"is_booked"`
}

type BookedSeatsResponse struct {
	MovieID int      `json:"movie_id" example:"42"`
	Date    string   `json:"date" example:"01/01/2030"`
	Time    string   `json:"time" example:"20:00"`
	SeatIDs []string `json:"seat_ids" example:"C3,C4"`
}

// showtimeFromQuery はクエリパラメータから上映回キーを組み立てる
func showtimeFromQuery(c echo.Context) (ticket.Showtime, error) {
	movieID, err := strconv.Atoi(c.QueryParam("movie_id"))
	if err != nil {
		return ticket.Showtime{}, echo.NewHTTPError(http.StatusBadRequest, "movie_idは数値で指定してください")
	}
	st, err := ticket.NormalizeShowtime(movieID, c.QueryParam("date"), c.QueryParam("time"))
	if err != nil {
		return ticket.Showtime{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return st, nil
}

// GetSeatMap godoc
// @Summary 座席マップを取得
// @Description 上映回の座席マップを予約状況付きで取得します
// @Tags showtimes
// @Produce json
// @Param movie_id query int true "映画ID"
// @Param date query string true "上映日 (dd/mm/yyyy)"
// @Param time query string true "上映時刻 (HH:mm)"
// @Success 200 {array} SeatResponse
// @Failure 400 {object} map[string]string
// @Router /showtimes/seats [get]
func (h *ShowtimeHandler) GetSeatMap(c echo.Context) error {
	st, err := showtimeFromQuery(c)
	if err != nil {
		return err
	}
	seats, err := h.service.GetSeatMap(c.Request().Context(), st)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]SeatResponse, len(seats))
	for i, s := range seats {
		resp[i] = SeatResponse{ID: s.ID, IsBooked: s.IsBooked}
	}
	return c.JSON(http.StatusOK, resp)
}

// GetBookedSeats godoc
// @Summary 予約済み座席を取得
// @Description 上映回の予約済み座席ID一覧を取得します
// @Tags showtimes
// @Produce json
// @Param movie_id query int true "映画ID"
// @Param date query string true "上映日 (dd/mm/yyyy)"
// @Param time query string true "上映時刻 (HH:mm)"
// @Success 200 {object} BookedSeatsResponse
// @Failure 400 {object} map[string]string
// @Router /showtimes/booked [get]
func (h *ShowtimeHandler) GetBookedSeats(c echo.Context) error {
	st, err := showtimeFromQuery(c)
	if err != nil {
		return err
	}
	booked, err := h.service.GetBookedSeatIDs(c.Request().Context(), st)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	ids := make([]string, 0, len(booked))
	for id := range booked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return c.JSON(http.StatusOK, BookedSeatsResponse{
		MovieID: st.MovieID, Date: st.Date, Time: st.Time, SeatIDs: ids,
	})
}
