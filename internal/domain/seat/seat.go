package seat

import "fmt"

// 座席レイアウトは全上映回で共通の7行×8列（A1〜G8）
const (
	RowStart = 'A'
	RowEnd   = 'G'
	Columns  = 8
	Total    = int(RowEnd-RowStart+1) * Columns
)

// Seat は1つの座席の状態を表す
// IsBooked は同一上映回のチケットから導出される値、IsSelected はクライアント側の一時状態
type Seat struct {
	ID         string `json:"id"`
	IsBooked   bool   `json:"is_booked"`
	IsSelected bool   `json:"is_selected"`
}

// Generate は標準レイアウトの座席一覧を行優先順（A1..A8, B1..B8, ..., G1..G8）で生成する
func Generate() []Seat {
	seats := make([]Seat, 0, Total)
	for row := RowStart; row <= RowEnd; row++ {
		for col := 1; col <= Columns; col++ {
			seats = append(seats, Seat{ID: fmt.Sprintf("%c%d", row, col)})
		}
	}
	return seats
}

// IsValidID は座席IDが標準レイアウトに存在するかを返す
func IsValidID(id string) bool {
	if len(id) != 2 {
		return false
	}
	row := id[0]
	if row < RowStart || row > RowEnd {
		return false
	}
	col := id[1]
	return col >= '1' && col <= '0'+Columns
}

// ValidateIDs は予約対象の座席ID集合を検証する
// 空リスト・重複・レイアウト外のIDはストアへアクセスする前に拒否する
func ValidateIDs(ids []string) error {
	if len(ids) == 0 {
		return ErrSeatIDsRequired
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if !IsValidID(id) {
			return fmt.Errorf("%w: %s", ErrInvalidSeatID, id)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateSeatID, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
