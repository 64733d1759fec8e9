package wallet

import "time"

// TransactionType は取引の種別を表す
type TransactionType string

const (
	TypeCredit TransactionType = "CREDIT" // 入金
	TypeDebit  TransactionType = "DEBIT"  // 出金
)

// 入金額の許容範囲（VNĐ）
const (
	MinTopUpAmount = 10_000
	MaxTopUpAmount = 50_000_000
)

// Wallet はユーザーごとの残高を保持する
// 残高は非負の整数通貨単位で、取引履歴と常に整合する
type Wallet struct {
	UserID    string
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transaction は追記専用の取引履歴の1エントリ
// BalanceAfter はこのエントリ直後の残高のスナップショット（履歴から再計算しない）
type Transaction struct {
	ID           string
	UserID       string
	Amount       int64
	Type         TransactionType
	Description  string
	BalanceAfter int64
	CreatedAt    time.Time
}

// CanDebit は残高から指定額を引き落とせるかを返す
func (w *Wallet) CanDebit(amount int64) bool {
	return amount > 0 && w.Balance >= amount
}

// ValidateDebitAmount は出金額の事前検証を行う
func ValidateDebitAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateTopUpAmount は入金額の事前検証を行う
func ValidateTopUpAmount(amount int64) error {
	if amount < MinTopUpAmount {
		return ErrTopUpTooSmall
	}
	if amount > MaxTopUpAmount {
		return ErrTopUpTooLarge
	}
	return nil
}
