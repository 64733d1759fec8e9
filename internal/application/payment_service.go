package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/loyalty"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/ticket"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/wallet"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/pkg/metrics"
)

// paymentState は決済試行の状態
type paymentState string

const (
	stateInitialized     paymentState = "initialized"
	stateValidatingFunds paymentState = "validating_funds"
	stateCheckingSeats   paymentState = "checking_seats"
	stateCommitting      paymentState = "committing"
	stateSucceeded       paymentState = "succeeded"
	stateFailed          paymentState = "failed"
)

const debitDescription = "映画チケットの購入"

// TierNotifier はランク変更通知の発行先
type TierNotifier interface {
	Notify(ev loyalty.TierChange)
}

// PaymentService は決済オーケストレーター
// チケット発行・残高更新・取引履歴追記・ロイヤルティ更新を単一のアトミックコミットで行い、
// 途中で失敗した場合は一切の書き込みを残さない
type PaymentService struct {
	txManager    transaction.Manager
	ticketRepo   ticket.Repository
	walletRepo   wallet.Repository
	loyaltyRepo  loyalty.Repository
	availability *AvailabilityService
	notifier     TierNotifier
	metrics      *metrics.Metrics
}

func NewPaymentService(
	tm transaction.Manager,
	tr ticket.Repository,
	wr wallet.Repository,
	lr loyalty.Repository,
	av *AvailabilityService,
	notifier TierNotifier,
	m *metrics.Metrics,
) *PaymentService {
	return &PaymentService{
		txManager: tm, ticketRepo: tr, walletRepo: wr, loyaltyRepo: lr,
		availability: av, notifier: notifier, metrics: m,
	}
}

type PayInput struct {
	UserID      string
	Movie       ticket.Movie
	Date        string
	Time        string
	SeatIDs     []string
	TotalAmount int64
}

type PayResult struct {
	Ticket       *ticket.Ticket
	NewBalance   int64
	EarnedPoints int64
	Points       int64
	Tier         loyalty.Tier
	TierChanged  bool
}

// Pay は決済を実行する
// 状態遷移: initialized → validating_funds → checking_seats → committing → succeeded | failed
// コミット前に失敗した場合、永続状態への副作用は一切ない。曖昧な失敗後の再試行は
// 決定的チケットIDにより冪等（同一内容なら再課金されない）
func (s *PaymentService) Pay(ctx context.Context, input PayInput) (*PayResult, error) {
	log := logger.With(zap.String("user_id", input.UserID), zap.Int("movie_id", input.Movie.ID))
	log.Debug("決済開始", zap.String("state", string(stateInitialized)))

	st, err := ticket.NormalizeShowtime(input.Movie.ID, input.Date, input.Time)
	if err != nil {
		return nil, s.fail(log, "validation_error", err)
	}

	tk, err := ticket.NewTicket(input.UserID, input.Movie, st, input.SeatIDs, input.TotalAmount)
	if err != nil {
		return nil, s.fail(log, "validation_error", err)
	}

	// 冪等性チェック: 同一内容のチケットが既に存在する場合、
	// 支払済みなら再課金せずにそれを返し、未決済の予約ならその予約への支払いとして扱う
	existing, err := s.ticketRepo.GetByID(ctx, tk.ID)
	if err != nil && !errors.Is(err, ticket.ErrTicketNotFound) {
		return nil, s.fail(log, "error", fmt.Errorf("冪等性チェックに失敗: %w", err))
	}
	var reserved *ticket.Ticket
	if existing != nil {
		if existing.Paid {
			log.Info("コミット済み決済の再送を検出", zap.String("ticket_id", tk.ID))
			result, replayErr := s.replayResult(ctx, existing)
			if replayErr != nil {
				return nil, s.fail(log, "error", replayErr)
			}
			return result, nil
		}
		// 座席は既に予約で確保されている。請求額は予約時に確定した金額を正とする
		reserved = existing
		input.TotalAmount = reserved.TotalAmount
	}

	// 資金の事前検証（副作用なしの早期リジェクト）
	log.Debug("状態遷移", zap.String("state", string(stateValidatingFunds)))
	w, err := s.walletRepo.GetByUserID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return nil, s.fail(log, "insufficient_funds", wallet.ErrInsufficientFunds)
		}
		return nil, s.fail(log, "error", err)
	}
	if !w.CanDebit(input.TotalAmount) {
		return nil, s.fail(log, "insufficient_funds", wallet.ErrInsufficientFunds)
	}

	// 座席の事前検証（最終判定はコミット時の一意制約）
	// 自分の予約への支払いでは座席は既にその予約が保持しているためスキップする
	log.Debug("状態遷移", zap.String("state", string(stateCheckingSeats)))
	if reserved == nil {
		booked, err := s.availability.GetBookedSeatIDs(ctx, st)
		if err != nil {
			return nil, s.fail(log, "error", err)
		}
		if conflict := conflictingSeats(input.SeatIDs, booked); len(conflict) > 0 {
			return nil, s.fail(log, "seat_conflict",
				fmt.Errorf("%w: %s", ticket.ErrSeatAlreadyBooked, strings.Join(conflict, ", ")))
		}
	}

	// アトミックコミット
	log.Debug("状態遷移", zap.String("state", string(stateCommitting)))
	commitStart := time.Now()
	result, err := s.commit(ctx, tk, input, reserved)
	if err != nil && errors.Is(err, ticket.ErrTicketAlreadyExists) {
		// 同一チケットIDが並行してコミットされていた。
		// 支払済みなら再送として返し、未決済の予約ならその予約への支払いとして1回だけ再試行する
		if committed, getErr := s.ticketRepo.GetByID(ctx, tk.ID); getErr == nil {
			if committed.Paid {
				log.Info("コミット済み決済の再送を検出", zap.String("ticket_id", tk.ID))
				if replay, replayErr := s.replayResult(ctx, committed); replayErr == nil {
					return replay, nil
				}
			} else if reserved == nil {
				input.TotalAmount = committed.TotalAmount
				result, err = s.commit(ctx, tk, input, committed)
			}
		}
	}
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrInsufficientFunds):
			return nil, s.fail(log, "insufficient_funds", err)
		case errors.Is(err, ticket.ErrSeatAlreadyBooked):
			return nil, s.fail(log, "seat_conflict", err)
		default:
			return nil, s.fail(log, "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.PaymentCommitDuration.Observe(time.Since(commitStart).Seconds())
	}

	// コミット確定後の後処理（正の状態には影響しない）
	s.availability.InvalidateCache(ctx, st)
	if result.TierChanged && s.notifier != nil {
		s.notifier.Notify(loyalty.TierChange{
			UserID:  input.UserID,
			OldTier: loyalty.TierFor(result.Points - result.EarnedPoints),
			NewTier: result.Tier,
			Points:  result.Points,
		})
		if s.metrics != nil {
			s.metrics.TierChangesTotal.WithLabelValues(string(result.Tier)).Inc()
		}
	}
	if s.metrics != nil {
		s.metrics.PaymentsTotal.WithLabelValues("succeeded").Inc()
		s.metrics.WalletOperationsTotal.WithLabelValues("debit", "success").Inc()
	}

	log.Info("決済完了",
		zap.String("state", string(stateSucceeded)),
		zap.String("ticket_id", result.Ticket.ID),
		zap.Int64("new_balance", result.NewBalance),
		zap.Int64("earned_points", result.EarnedPoints),
	)
	return result, nil
}

// commit はチケット・残高・取引履歴・ロイヤルティの4つの書き込みを
// 1つのDBトランザクションで行う。いずれかが失敗すれば全てロールバックされる
// reserved が非nilの場合は新規作成ではなく、その予約を支払済みに更新する
func (s *PaymentService) commit(ctx context.Context, tk *ticket.Ticket, input PayInput, reserved *ticket.Ticket) (*PayResult, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// ウォレット行のロックが同一ユーザーの並行する決済を直列化する
	w, err := s.walletRepo.GetForUpdate(ctx, tx, input.UserID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return nil, wallet.ErrInsufficientFunds
		}
		return nil, err
	}
	if !w.CanDebit(input.TotalAmount) {
		return nil, wallet.ErrInsufficientFunds
	}

	committed := tk
	if reserved == nil {
		tk.Paid = true
		if err := s.ticketRepo.Create(ctx, tx, tk); err != nil {
			return nil, err
		}
	} else {
		if err := s.ticketRepo.MarkPaid(ctx, tx, reserved.ID); err != nil {
			return nil, err
		}
		paid := *reserved
		paid.Paid = true
		committed = &paid
	}

	newBalance := w.Balance - input.TotalAmount
	if err := s.walletRepo.UpdateBalance(ctx, tx, input.UserID, newBalance); err != nil {
		return nil, err
	}

	entry := &wallet.Transaction{
		ID:           uuid.New().String(),
		UserID:       input.UserID,
		Amount:       input.TotalAmount,
		Type:         wallet.TypeDebit,
		Description:  debitDescription,
		BalanceAfter: newBalance,
		CreatedAt:    time.Now(),
	}
	if err := s.walletRepo.AppendTransaction(ctx, tx, entry); err != nil {
		return nil, err
	}

	state, err := s.loyaltyRepo.GetState(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	newPoints, newTier, tierChanged := loyalty.ApplyEarnedPoints(state.Points, input.TotalAmount)
	if err := s.loyaltyRepo.UpdateState(ctx, tx, input.UserID, &loyalty.State{Points: newPoints, Tier: newTier}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	return &PayResult{
		Ticket:       committed,
		NewBalance:   newBalance,
		EarnedPoints: loyalty.EarnedPoints(input.TotalAmount),
		Points:       newPoints,
		Tier:         newTier,
		TierChanged:  tierChanged,
	}, nil
}

// replayResult は支払済みチケットから再送用の結果を構築する
// 呼び出し側は existing.Paid を確認済みであること。未決済の予約をここに渡してはならない
func (s *PaymentService) replayResult(ctx context.Context, existing *ticket.Ticket) (*PayResult, error) {
	w, err := s.walletRepo.GetByUserID(ctx, existing.UserID)
	if err != nil && !errors.Is(err, wallet.ErrWalletNotFound) {
		return nil, err
	}
	var balance int64
	if w != nil {
		balance = w.Balance
	}

	state, err := s.loyaltyRepo.GetState(ctx, existing.UserID)
	if err != nil {
		return nil, err
	}

	return &PayResult{
		Ticket:       existing,
		NewBalance:   balance,
		EarnedPoints: loyalty.EarnedPoints(existing.TotalAmount),
		Points:       state.Points,
		Tier:         state.Tier,
		TierChanged:  false,
	}, nil
}

func (s *PaymentService) fail(log *zap.Logger, status string, err error) error {
	log.Debug("決済失敗", zap.String("state", string(stateFailed)), zap.String("reason", status), zap.Error(err))
	if s.metrics != nil {
		s.metrics.PaymentsTotal.WithLabelValues(status).Inc()
		if status == "insufficient_funds" {
			s.metrics.WalletOperationsTotal.WithLabelValues("debit", "failed").Inc()
		}
	}
	return err
}
