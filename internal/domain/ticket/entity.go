package ticket

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/seat"
)

// Status はチケットの状態を表す
// 予約フローが生成するのは active のみで、以後このコアが遷移させることはない
type Status string

const (
	StatusActive    Status = "active"
	StatusUsed      Status = "used"
	StatusCancelled Status = "cancelled"
)

// Movie は表示用のメタデータのみを持つ不透明な映画情報
type Movie struct {
	ID         int
	Title      string
	PosterPath string
}

// Ticket はチケットエンティティを表す
// 作成後は不変
type Ticket struct {
	ID          string
	MovieID     int
	MovieTitle  string
	MoviePoster string
	UserID      string
	SeatIDs     []string
	Date        string
	Time        string
	TotalAmount int64
	Status      Status
	// Paid は決済コミットを経て発行されたことを示す
	// 予約のみのチケットは false のままで、決済時に支払済みへ更新される
	Paid      bool
	CreatedAt time.Time
}

// ticketNamespace は決定的チケットIDの生成に使う固定ネームスペース
var ticketNamespace = uuid.MustParse("7f1c6fdc-3c0a-4a6e-9d51-2b8f54f3a8c1")

// DeterministicID は予約リクエストの内容から決定的なチケットIDを導出する
// 同一リクエストの再試行が同じIDになるため、曖昧な失敗後のリトライで二重予約・二重課金が起きない
func DeterministicID(userID string, st Showtime, seatIDs []string) string {
	sorted := make([]string, len(seatIDs))
	copy(sorted, seatIDs)
	sort.Strings(sorted)
	payload := fmt.Sprintf("%s|%d|%s|%s|%s", userID, st.MovieID, st.Date, st.Time, strings.Join(sorted, ","))
	return uuid.NewSHA1(ticketNamespace, []byte(payload)).String()
}

// NewTicket は新しいチケットを作成する
func NewTicket(userID string, movie Movie, st Showtime, seatIDs []string, totalAmount int64) (*Ticket, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if err := seat.ValidateIDs(seatIDs); err != nil {
		return nil, err
	}
	if totalAmount <= 0 {
		return nil, ErrInvalidAmount
	}
	ids := make([]string, len(seatIDs))
	copy(ids, seatIDs)
	return &Ticket{
		ID:          DeterministicID(userID, st, seatIDs),
		MovieID:     movie.ID,
		MovieTitle:  movie.Title,
		MoviePoster: movie.PosterPath,
		UserID:      userID,
		SeatIDs:     ids,
		Date:        st.Date,
		Time:        st.Time,
		TotalAmount: totalAmount,
		Status:      StatusActive,
		CreatedAt:   time.Now(),
	}, nil
}

// Showtime はチケットが属する上映回キーを返す
func (t *Ticket) Showtime() Showtime {
	return Showtime{MovieID: t.MovieID, Date: t.Date, Time: t.Time}
}
