package application

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/loyalty"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/ticket"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/wallet"
)

// === Mock implementations ===

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockTicketRepository implements ticket.Repository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) Create(ctx context.Context, tx transaction.Tx, t *ticket.Ticket) error {
	args := m.Called(ctx, tx, t)
	return args.Error(0)
}

func (m *MockTicketRepository) MarkPaid(ctx context.Context, tx transaction.Tx, id string) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id string) (*ticket.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*ticket.Ticket, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ticket.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetBookedSeatIDs(ctx context.Context, st ticket.Showtime) (map[string]struct{}, error) {
	args := m.Called(ctx, st)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

// MockWalletRepository implements wallet.Repository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID string) (*wallet.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) EnsureExists(ctx context.Context, tx transaction.Tx, userID string) error {
	args := m.Called(ctx, tx, userID)
	return args.Error(0)
}

func (m *MockWalletRepository) GetForUpdate(ctx context.Context, tx transaction.Tx, userID string) (*wallet.Wallet, error) {
	args := m.Called(ctx, tx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) UpdateBalance(ctx context.Context, tx transaction.Tx, userID string, newBalance int64) error {
	args := m.Called(ctx, tx, userID, newBalance)
	return args.Error(0)
}

func (m *MockWalletRepository) AppendTransaction(ctx context.Context, tx transaction.Tx, entry *wallet.Transaction) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockWalletRepository) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*wallet.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*wallet.Transaction), args.Error(1)
}

// MockLoyaltyRepository implements loyalty.Repository
type MockLoyaltyRepository struct {
	mock.Mock
}

func (m *MockLoyaltyRepository) GetState(ctx context.Context, userID string) (*loyalty.State, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.State), args.Error(1)
}

func (m *MockLoyaltyRepository) UpdateState(ctx context.Context, tx transaction.Tx, userID string, state *loyalty.State) error {
	args := m.Called(ctx, tx, userID, state)
	return args.Error(0)
}

// MockTierNotifier implements TierNotifier
type MockTierNotifier struct {
	mock.Mock
}

func (m *MockTierNotifier) Notify(ev loyalty.TierChange) {
	m.Called(ev)
}
