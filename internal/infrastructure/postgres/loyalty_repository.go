package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/loyalty"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/transaction"
)

// LoyaltyRepository はユーザープロフィール行の points / tier フィールドを管理する
type LoyaltyRepository struct{ db *sqlx.DB }

func NewLoyaltyRepository(db *sqlx.DB) *LoyaltyRepository { return &LoyaltyRepository{db: db} }

type loyaltyRow struct {
	Points int64  `db:"points"`
	Tier   string `db:"tier"`
}

// GetState はロイヤルティ状態を取得する
// プロフィール行がまだないユーザーは初期状態（0ポイント・Silver）
func (r *LoyaltyRepository) GetState(ctx context.Context, userID string) (*loyalty.State, error) {
	var row loyaltyRow
	query := `SELECT points, tier FROM user_profiles WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &loyalty.State{Points: 0, Tier: loyalty.TierSilver}, nil
		}
		return nil, fmt.Errorf("ロイヤルティ状態の取得に失敗: %w", err)
	}
	return &loyalty.State{Points: row.Points, Tier: loyalty.Tier(row.Tier)}, nil
}

// UpdateState はポイントとランクをアップサートする（トランザクション必須）
func (r *LoyaltyRepository) UpdateState(ctx context.Context, tx transaction.Tx, userID string, state *loyalty.State) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが不正です")
	}
	_, err := sqlxTx.ExecContext(ctx,
		`INSERT INTO user_profiles (user_id, points, tier) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET points = EXCLUDED.points, tier = EXCLUDED.tier, updated_at = NOW()`,
		userID, state.Points, string(state.Tier))
	if err != nil {
		return fmt.Errorf("ロイヤルティ状態の更新に失敗: %w", err)
	}
	return nil
}

var _ loyalty.Repository = (*LoyaltyRepository)(nil)
