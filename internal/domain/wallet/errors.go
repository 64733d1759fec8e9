package wallet

import "errors"

// Wallet ドメインのエラー定義
var (
	ErrWalletNotFound    = errors.New("ウォレットが見つかりません")
	ErrInsufficientFunds = errors.New("残高が不足しています")
	ErrInvalidAmount     = errors.New("金額は1以上である必要があります")
	ErrTopUpTooSmall     = errors.New("入金額は10,000以上である必要があります")
	ErrTopUpTooLarge     = errors.New("入金額は50,000,000以下である必要があります")
)
