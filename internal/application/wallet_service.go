package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/wallet"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/pkg/metrics"
)

const topUpDescription = "ウォレットへの入金"

// WalletService はウォレットの参照と入金を提供する
// 出金（決済）は PaymentService のアトミックコミット内でのみ行われる
type WalletService struct {
	txManager  transaction.Manager
	walletRepo wallet.Repository
	metrics    *metrics.Metrics
}

func NewWalletService(tm transaction.Manager, wr wallet.Repository, m *metrics.Metrics) *WalletService {
	return &WalletService{txManager: tm, walletRepo: wr, metrics: m}
}

// GetWallet はユーザーのウォレットを取得する
// ウォレット未作成のユーザーには残高0のウォレットを返す（初回入金時に行が作られる）
func (s *WalletService) GetWallet(ctx context.Context, userID string) (*wallet.Wallet, error) {
	w, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return &wallet.Wallet{UserID: userID, Balance: 0}, nil
		}
		return nil, err
	}
	return w, nil
}

// TopUp はウォレットに入金し、CREDIT の取引履歴を追記する
func (s *WalletService) TopUp(ctx context.Context, userID string, amount int64) (*wallet.Wallet, *wallet.Transaction, error) {
	if userID == "" {
		return nil, nil, errors.New("ユーザーIDは必須です")
	}
	if err := wallet.ValidateTopUpAmount(amount); err != nil {
		s.recordCredit("failed")
		return nil, nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		s.recordCredit("failed")
		return nil, nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.walletRepo.EnsureExists(ctx, tx, userID); err != nil {
		s.recordCredit("failed")
		return nil, nil, err
	}
	w, err := s.walletRepo.GetForUpdate(ctx, tx, userID)
	if err != nil {
		s.recordCredit("failed")
		return nil, nil, err
	}

	newBalance := w.Balance + amount
	if err := s.walletRepo.UpdateBalance(ctx, tx, userID, newBalance); err != nil {
		s.recordCredit("failed")
		return nil, nil, err
	}

	entry := &wallet.Transaction{
		ID:           uuid.New().String(),
		UserID:       userID,
		Amount:       amount,
		Type:         wallet.TypeCredit,
		Description:  topUpDescription,
		BalanceAfter: newBalance,
		CreatedAt:    time.Now(),
	}
	if err := s.walletRepo.AppendTransaction(ctx, tx, entry); err != nil {
		s.recordCredit("failed")
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		s.recordCredit("failed")
		return nil, nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.recordCredit("success")
	w.Balance = newBalance
	return w, entry, nil
}

// ListTransactions は取引履歴を新しい順に取得する
func (s *WalletService) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*wallet.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.walletRepo.ListTransactions(ctx, userID, limit, offset)
}

func (s *WalletService) recordCredit(status string) {
	if s.metrics != nil {
		s.metrics.WalletOperationsTotal.WithLabelValues("credit", status).Inc()
	}
}
