package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type LoyaltyHandler struct {
	service LoyaltyServiceInterface
}

func NewLoyaltyHandler(s LoyaltyServiceInterface) *LoyaltyHandler {
	return &LoyaltyHandler{service: s}
}

type LoyaltyResponse struct {
	UserID string `json:"user_id" example:"user-123"`
	Points int64  `json:"points" example:"520"`
	Tier   string `json:"tier" example:"Gold"`
}

// Get godoc
// @Summary ポイントと会員ランクを取得
// @Description ログインユーザーの累計ポイントと会員ランクを取得します
// @Tags loyalty
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Success 200 {object} LoyaltyResponse
// @Failure 401 {object} map[string]string
// @Router /loyalty [get]
func (h *LoyaltyHandler) Get(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	state, err := h.service.GetState(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, LoyaltyResponse{
		UserID: userID, Points: state.Points, Tier: string(state.Tier),
	})
}
