package ticket

import "errors"

// Ticket ドメインのエラー定義
var (
	ErrTicketNotFound      = errors.New("チケットが見つかりません")
	ErrTicketAlreadyExists = errors.New("同一内容のチケットが既に存在します")
	ErrSeatAlreadyBooked   = errors.New("座席は既に予約されています")
	ErrMovieIDRequired     = errors.New("映画IDは必須です")
	ErrUserIDRequired      = errors.New("ユーザーIDは必須です")
	ErrInvalidDate         = errors.New("日付の形式が不正です")
	ErrInvalidTime         = errors.New("時刻の形式が不正です")
	ErrInvalidAmount       = errors.New("金額は1以上である必要があります")
)
