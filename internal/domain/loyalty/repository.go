package loyalty

import (
	"context"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/transaction"
)

// Repository はユーザープロフィール上のロイヤルティ状態へのアクセスを抽象化する
type Repository interface {
	// GetState はユーザーのロイヤルティ状態を取得する
	// プロフィール未作成のユーザーには初期状態（0ポイント・Silver）を返す
	GetState(ctx context.Context, userID string) (*State, error)

	// UpdateState はポイントとランクを更新する（トランザクション必須）
	// チケット・ウォレットの書き込みと同一のアトミックコミットに含める
	UpdateState(ctx context.Context, tx transaction.Tx, userID string, state *State) error
}
