package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/wallet"
)

type WalletHandler struct {
	service WalletServiceInterface
}

func NewWalletHandler(s WalletServiceInterface) *WalletHandler {
	return &WalletHandler{service: s}
}

type TopUpRequest struct {
	Amount int64 `json:"amount" validate:"required,min=1" example:"100000"`
}

type WalletResponse struct {
	UserID  string `json:"user_id" example:"user-123"`
	Balance int64  `json:"balance" example:"200000"`
}

type WalletTransactionResponse struct {
	ID           string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Amount       int64     `json:"amount" example:"100000"`
	Type         string    `json:"type" example:"CREDIT"`
	Description  string    `json:"description" example:"ウォレットへの入金"`
	BalanceAfter int64     `json:"balance_after" example:"200000"`
	CreatedAt    time.Time `json:"created_at"`
}

type TopUpResponse struct {
	Wallet      WalletResponse            `json:"wallet"`
	Transaction WalletTransactionResponse `json:"transaction"`
}

func toWalletTransactionResponse(tr *wallet.Transaction) WalletTransactionResponse {
	return WalletTransactionResponse{
		ID: tr.ID, Amount: tr.Amount, Type: string(tr.Type),
		Description: tr.Description, BalanceAfter: tr.BalanceAfter, CreatedAt: tr.CreatedAt,
	}
}

// Get godoc
// @Summary ウォレット残高を取得
// @Description ログインユーザーのウォレット残高を取得します
// @Tags wallet
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Success 200 {object} WalletResponse
// @Failure 401 {object} map[string]string
// @Router /wallet [get]
func (h *WalletHandler) Get(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	w, err := h.service.GetWallet(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, WalletResponse{UserID: w.UserID, Balance: w.Balance})
}

// TopUp godoc
// @Summary ウォレットに入金
// @Description ウォレットに入金し、取引履歴を追記します
// @Tags wallet
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body TopUpRequest true "入金額"
// @Success 200 {object} TopUpResponse
// @Failure 400 {object} map[string]string "入金額が範囲外"
// @Failure 401 {object} map[string]string
// @Router /wallet/topup [post]
func (h *WalletHandler) TopUp(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req TopUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	w, tr, err := h.service.TopUp(c.Request().Context(), userID, req.Amount)
	if err != nil {
		if errors.Is(err, wallet.ErrTopUpTooSmall) || errors.Is(err, wallet.ErrTopUpTooLarge) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, TopUpResponse{
		Wallet:      WalletResponse{UserID: w.UserID, Balance: w.Balance},
		Transaction: toWalletTransactionResponse(tr),
	})
}

// ListTransactions godoc
// @Summary 取引履歴を取得
// @Description ウォレットの取引履歴を新しい順に取得します
// @Tags wallet
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} WalletTransactionResponse
// @Failure 401 {object} map[string]string
// @Router /wallet/transactions [get]
func (h *WalletHandler) ListTransactions(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	transactions, err := h.service.ListTransactions(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]WalletTransactionResponse, len(transactions))
	for i, tr := range transactions {
		resp[i] = toWalletTransactionResponse(tr)
	}
	return c.JSON(http.StatusOK, resp)
}
