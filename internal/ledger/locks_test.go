package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockTableBusy(t *testing.T) {
	table := NewLockTable(20 * time.Millisecond)

	release, err := table.Acquire("account:alice")
	require.NoError(t, err)

	_, err = table.Acquire("account:alice")
	assert.ErrorIs(t, err, ErrBusy)

	release()

	release, err = table.Acquire("account:alice")
	require.NoError(t, err)
	release()
}

func TestLockTableMultiKey(t *testing.T) {
	table := NewLockTable(20 * time.Millisecond)

	release, err := table.Acquire("bank", "account:alice")
	require.NoError(t, err)

	// A partial overlap must not leave the free key held after failing.
	_, err = table.Acquire("account:alice", "account:bob")
	assert.ErrorIs(t, err, ErrBusy)

	release()

	release, err = table.Acquire("account:bob", "account:alice")
	require.NoError(t, err)
	release()
}

func TestLockTableDuplicateKeys(t *testing.T) {
	table := NewLockTable(20 * time.Millisecond)

	release, err := table.Acquire("account:alice", "account:alice")
	require.NoError(t, err)
	release()
}
