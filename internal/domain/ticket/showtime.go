package ticket

import (
	"fmt"
	"strings"
	"time"
)

// 正規化後の表示フォーマット
const (
	DateLayout = "02/01/2006" // dd/mm/yyyy
	TimeLayout = "15:04"      // HH:mm
)

// Showtime は1回の上映（映画・日付・時刻の組）を識別するキー
// 永続化・照会は常に正規化済みの値で行う
type Showtime struct {
	MovieID int
	Date    string
	Time    string
}

// NormalizeShowtime は境界で1回だけ呼ばれ、日付・時刻の表記ゆれを正規化して検証する
// 日付の区切り文字（"-" や "."）は "/" に畳み込む
func NormalizeShowtime(movieID int, date, timeStr string) (Showtime, error) {
	if movieID <= 0 {
		return Showtime{}, ErrMovieIDRequired
	}

	normalized := strings.NewReplacer("-", "/", ".", "/").Replace(strings.TrimSpace(date))
	parsedDate, err := time.Parse(DateLayout, normalized)
	if err != nil {
		return Showtime{}, fmt.Errorf("%w: %s", ErrInvalidDate, date)
	}

	timeStr = strings.TrimSpace(timeStr)
	parsedTime, err := time.Parse(TimeLayout, timeStr)
	if err != nil {
		return Showtime{}, fmt.Errorf("%w: %s", ErrInvalidTime, timeStr)
	}

	return Showtime{
		MovieID: movieID,
		Date:    parsedDate.Format(DateLayout),
		Time:    parsedTime.Format(TimeLayout),
	}, nil
}

// Key は上映回を一意に表す文字列キーを返す（キャッシュキー等に使用）
func (s Showtime) Key() string {
	return fmt.Sprintf("%d:%s:%s", s.MovieID, s.Date, s.Time)
}
