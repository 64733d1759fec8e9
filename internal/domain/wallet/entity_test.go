package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWallet_CanDebit(t *testing.T) {
	tests := []struct {
		name     string
		balance  int64
		amount   int64
		expected bool
	}{
		{"残高が十分", 200000, 100000, true},
		{"残高と同額", 100000, 100000, true},
		{"残高不足", 50000, 100000, false},
		{"金額0は不可", 100000, 0, false},
		{"負の金額は不可", 100000, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Wallet{UserID: "user-123", Balance: tt.balance}
			assert.Equal(t, tt.expected, w.CanDebit(tt.amount))
		})
	}
}

func TestValidateDebitAmount(t *testing.T) {
	assert.NoError(t, ValidateDebitAmount(1))
	assert.ErrorIs(t, ValidateDebitAmount(0), ErrInvalidAmount)
	assert.ErrorIs(t, ValidateDebitAmount(-100), ErrInvalidAmount)
}

func TestValidateTopUpAmount(t *testing.T) {
	t.Run("下限ちょうどは受理される", func(t *testing.T) {
		assert.NoError(t, ValidateTopUpAmount(MinTopUpAmount))
	})

	t.Run("上限ちょうどは受理される", func(t *testing.T) {
		assert.NoError(t, ValidateTopUpAmount(MaxTopUpAmount))
	})

	t.Run("下限未満は拒否される", func(t *testing.T) {
		assert.ErrorIs(t, ValidateTopUpAmount(9999), ErrTopUpTooSmall)
	})

	t.Run("上限超過は拒否される", func(t *testing.T) {
		assert.ErrorIs(t, ValidateTopUpAmount(MaxTopUpAmount+1), ErrTopUpTooLarge)
	})
}
