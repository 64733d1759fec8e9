package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/wallet"
)

type walletRow struct {
	UserID    string    `db:"user_id"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *walletRow) toEntity() *wallet.Wallet {
	return &wallet.Wallet{UserID: r.UserID, Balance: r.Balance, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

type walletTransactionRow struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	Amount       int64     `db:"amount"`
	Type         string    `db:"type"`
	Description  string    `db:"description"`
	BalanceAfter int64     `db:"balance_after"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r *walletTransactionRow) toEntity() *wallet.Transaction {
	return &wallet.Transaction{
		ID: r.ID, UserID: r.UserID, Amount: r.Amount,
		Type: wallet.TransactionType(r.Type), Description: r.Description,
		BalanceAfter: r.BalanceAfter, CreatedAt: r.CreatedAt,
	}
}

type WalletRepository struct{ db *sqlx.DB }

func NewWalletRepository(db *sqlx.DB) *WalletRepository { return &WalletRepository{db: db} }

func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*wallet.Wallet, error) {
	var row walletRow
	query := `SELECT user_id, balance, created_at, updated_at FROM wallets WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound
		}
		return nil, fmt.Errorf("ウォレット取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// GetForUpdate はウォレット行を SELECT ... FOR UPDATE でロックして取得する
// 同一ユーザーの並行する残高更新はこのロックで直列化される
func (r *WalletRepository) GetForUpdate(ctx context.Context, tx transaction.Tx, userID string) (*wallet.Wallet, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, errors.New("トランザクションが不正です")
	}
	var row walletRow
	query := `SELECT user_id, balance, created_at, updated_at FROM wallets WHERE user_id = $1 FOR UPDATE`
	if err := sqlxTx.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound
		}
		return nil, fmt.Errorf("ウォレットのロック取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// EnsureExists はウォレット行がなければ残高0で作成する（トランザクション必須）
// 入金フローで初回ユーザーのウォレットを用意するために使う
func (r *WalletRepository) EnsureExists(ctx context.Context, tx transaction.Tx, userID string) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが不正です")
	}
	_, err := sqlxTx.ExecContext(ctx,
		`INSERT INTO wallets (user_id, balance) VALUES ($1, 0) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("ウォレット作成に失敗: %w", err)
	}
	return nil
}

func (r *WalletRepository) UpdateBalance(ctx context.Context, tx transaction.Tx, userID string, newBalance int64) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが不正です")
	}
	result, err := sqlxTx.ExecContext(ctx,
		`UPDATE wallets SET balance = $1, updated_at = NOW() WHERE user_id = $2`, newBalance, userID)
	if err != nil {
		return fmt.Errorf("残高更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return wallet.ErrWalletNotFound
	}
	return nil
}

func (r *WalletRepository) AppendTransaction(ctx context.Context, tx transaction.Tx, entry *wallet.Transaction) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが不正です")
	}
	_, err := sqlxTx.ExecContext(ctx,
		`INSERT INTO wallet_transactions (id, user_id, amount, type, description, balance_after, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.UserID, entry.Amount, string(entry.Type), entry.Description, entry.BalanceAfter, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("取引履歴の追記に失敗: %w", err)
	}
	return nil
}

func (r *WalletRepository) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*wallet.Transaction, error) {
	var rows []walletTransactionRow
	query := `SELECT id, user_id, amount, type, description, balance_after, created_at FROM wallet_transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("取引履歴の取得に失敗: %w", err)
	}
	result := make([]*wallet.Transaction, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

var _ wallet.Repository = (*WalletRepository)(nil)
