package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/ticket"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/transaction"
)

type ticketRow struct {
	ID          string    `db:"id"`
	MovieID     int       `db:"movie_id"`
	MovieTitle  string    `db:"movie_title"`
	MoviePoster string    `db:"movie_poster"`
	UserID      string    `db:"user_id"`
	ShowDate    string    `db:"show_date"`
	ShowTime    string    `db:"show_time"`
	TotalAmount int64     `db:"total_amount"`
	Status      string    `db:"status"`
	Paid        bool      `db:"paid"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *ticketRow) toEntity(seatIDs []string) *ticket.Ticket {
	return &ticket.Ticket{
		ID: r.ID, MovieID: r.MovieID, MovieTitle: r.MovieTitle, MoviePoster: r.MoviePoster,
		UserID: r.UserID, SeatIDs: seatIDs, Date: r.ShowDate, Time: r.ShowTime,
		TotalAmount: r.TotalAmount, Status: ticket.Status(r.Status), Paid: r.Paid, CreatedAt: r.CreatedAt,
	}
}

const ticketColumns = `id, movie_id, movie_title, movie_poster, user_id, show_date, show_time, total_amount, status, paid, created_at`

type TicketRepository struct{ db *sqlx.DB }

func NewTicketRepository(db *sqlx.DB) *TicketRepository { return &TicketRepository{db: db} }

// Create はチケット本体と座席行を同一トランザクション内で挿入する
// ticket_seats の (movie_id, show_date, show_time, seat_id) 一意制約が
// コミット時点での座席衝突検出を担う
func (r *TicketRepository) Create(ctx context.Context, tx transaction.Tx, t *ticket.Ticket) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが不正です")
	}

	query := `INSERT INTO tickets (` + ticketColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := sqlxTx.ExecContext(ctx, query,
		t.ID, t.MovieID, t.MovieTitle, t.MoviePoster, t.UserID,
		t.Date, t.Time, t.TotalAmount, string(t.Status), t.Paid, t.CreatedAt,
	); err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ticket.ErrTicketAlreadyExists
		}
		return fmt.Errorf("チケット作成に失敗: %w", err)
	}

	for _, seatID := range t.SeatIDs {
		if _, err := sqlxTx.ExecContext(ctx,
			`INSERT INTO ticket_seats (ticket_id, movie_id, show_date, show_time, seat_id) VALUES ($1, $2, $3, $4, $5)`,
			t.ID, t.MovieID, t.Date, t.Time, seatID,
		); err != nil {
			var pgErr *pq.Error
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("%w: %s", ticket.ErrSeatAlreadyBooked, seatID)
			}
			return fmt.Errorf("座席行の作成に失敗: %w", err)
		}
	}
	return nil
}

// MarkPaid は未決済のチケットを支払済みに更新する
// 条件付きUPDATEの更新行数が0の場合、並行する決済が既にコミット済みであることを意味する
func (r *TicketRepository) MarkPaid(ctx context.Context, tx transaction.Tx, id string) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが不正です")
	}

	res, err := sqlxTx.ExecContext(ctx, `UPDATE tickets SET paid = TRUE WHERE id = $1 AND paid = FALSE`, id)
	if err != nil {
		return fmt.Errorf("支払状態の更新に失敗: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("支払状態の更新に失敗: %w", err)
	}
	if affected == 0 {
		return ticket.ErrTicketAlreadyExists
	}
	return nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id string) (*ticket.Ticket, error) {
	var row ticketRow
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, fmt.Errorf("チケット取得に失敗: %w", err)
	}
	seatIDs, err := r.getSeatIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return row.toEntity(seatIDs), nil
}

func (r *TicketRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*ticket.Ticket, error) {
	var rows []ticketRow
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("チケット一覧取得に失敗: %w", err)
	}
	result := make([]*ticket.Ticket, len(rows))
	for i, row := range rows {
		seatIDs, err := r.getSeatIDs(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		result[i] = row.toEntity(seatIDs)
	}
	return result, nil
}

// GetBookedSeatIDs は上映回の予約済み座席を集合として返す
// 失敗時はエラーを返し、空集合には畳み込まない
func (r *TicketRepository) GetBookedSeatIDs(ctx context.Context, st ticket.Showtime) (map[string]struct{}, error) {
	var seatIDs []string
	query := `SELECT seat_id FROM ticket_seats WHERE movie_id = $1 AND show_date = $2 AND show_time = $3`
	if err := r.db.SelectContext(ctx, &seatIDs, query, st.MovieID, st.Date, st.Time); err != nil {
		return nil, fmt.Errorf("予約済み座席の取得に失敗: %w", err)
	}
	booked := make(map[string]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		booked[id] = struct{}{}
	}
	return booked, nil
}

func (r *TicketRepository) getSeatIDs(ctx context.Context, ticketID string) ([]string, error) {
	var seatIDs []string
	if err := r.db.SelectContext(ctx, &seatIDs,
		`SELECT seat_id FROM ticket_seats WHERE ticket_id = $1 ORDER BY seat_id`, ticketID); err != nil {
		return nil, fmt.Errorf("座席ID取得に失敗: %w", err)
	}
	return seatIDs, nil
}

var _ ticket.Repository = (*TicketRepository)(nil)
