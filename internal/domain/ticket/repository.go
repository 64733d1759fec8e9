package ticket

import (
	"context"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/transaction"
)

// Repository はチケットリポジトリのインターフェース
type Repository interface {
	// Create はチケットと座席行を作成する（トランザクション必須）
	// 同一上映回で座席が衝突した場合は ErrSeatAlreadyBooked を返し、呼び出し側がロールバックする
	Create(ctx context.Context, tx transaction.Tx, t *Ticket) error

	// MarkPaid は未決済のチケットを支払済みに更新する（トランザクション必須）
	// 既に支払済みの場合は ErrTicketAlreadyExists を返し、呼び出し側が再送として扱う
	MarkPaid(ctx context.Context, tx transaction.Tx, id string) error

	// GetByID はIDからチケットを取得する
	GetByID(ctx context.Context, id string) (*Ticket, error)

	// GetByUserID はユーザーIDからチケット一覧を取得する（作成日時の降順）
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Ticket, error)

	// GetBookedSeatIDs は上映回の予約済み座席ID集合を取得する
	// 取得に失敗した場合はエラーを返す（空集合への畳み込みはしない）
	GetBookedSeatIDs(ctx context.Context, st Showtime) (map[string]struct{}, error)
}
