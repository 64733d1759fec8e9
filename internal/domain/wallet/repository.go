package wallet

import (
	"context"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/transaction"
)

// Repository はウォレットリポジトリのインターフェース
// 残高更新と履歴追記は必ず同一トランザクション内で行う
type Repository interface {
	// GetByUserID はユーザーのウォレットを取得する（読み取り専用）
	GetByUserID(ctx context.Context, userID string) (*Wallet, error)

	// EnsureExists はウォレット行がなければ残高0で作成する（トランザクション必須）
	EnsureExists(ctx context.Context, tx transaction.Tx, userID string) error

	// GetForUpdate はウォレット行をロックして取得する（トランザクション必須）
	// 同一ユーザーの並行する出金を直列化するための読み取り
	GetForUpdate(ctx context.Context, tx transaction.Tx, userID string) (*Wallet, error)

	// UpdateBalance は残高を更新する（トランザクション必須）
	UpdateBalance(ctx context.Context, tx transaction.Tx, userID string, newBalance int64) error

	// AppendTransaction は取引履歴を追記する（トランザクション必須）
	AppendTransaction(ctx context.Context, tx transaction.Tx, entry *Transaction) error

	// ListTransactions は取引履歴を新しい順に取得する
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*Transaction, error)
}
