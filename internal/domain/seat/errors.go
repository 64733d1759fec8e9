package seat

import "errors"

// Seat ドメインのエラー定義
var (
	ErrSeatIDsRequired = errors.New("座席IDは必須です")
	ErrInvalidSeatID   = errors.New("存在しない座席IDです")
	ErrDuplicateSeatID = errors.New("座席IDが重複しています")
)
