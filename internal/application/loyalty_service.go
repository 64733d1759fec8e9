package application

import (
	"context"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/loyalty"
)

// LoyaltyService はロイヤルティ状態の参照を提供する
// 状態の更新は PaymentService のアトミックコミット内でのみ行われる
type LoyaltyService struct {
	loyaltyRepo loyalty.Repository
}

func NewLoyaltyService(lr loyalty.Repository) *LoyaltyService {
	return &LoyaltyService{loyaltyRepo: lr}
}

// GetState はユーザーのポイントと会員ランクを取得する
func (s *LoyaltyService) GetState(ctx context.Context, userID string) (*loyalty.State, error) {
	return s.loyaltyRepo.GetState(ctx, userID)
}
