package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/townhall-labs/community-ledger/internal/storage/memory"
)

func TestReserve(t *testing.T) {
	b, err := NewBankReserve(memory.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.Balance())

	balance, err := b.Deposit(500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)

	balance, err = b.Payout(200)
	require.NoError(t, err)
	assert.Equal(t, int64(300), balance)

	_, err = b.Payout(301)
	assert.ErrorIs(t, err, ErrInsufficientReserve)
	assert.Equal(t, int64(300), b.Balance())

	balance, err = b.Absorb(50)
	require.NoError(t, err)
	assert.Equal(t, int64(350), balance)

	for _, amount := range []int64{0, -1} {
		_, err = b.Deposit(amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = b.Payout(amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = b.Absorb(amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
}
