package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/townhall-labs/community-ledger/internal/storage/memory"
)

func newRegistry(t *testing.T) *BusinessRegistry {
	t.Helper()
	r, err := NewBusinessRegistry(memory.New())
	require.NoError(t, err)
	return r
}

func TestCreateBusiness(t *testing.T) {
	r := newRegistry(t)

	require.NoError(t, r.Create("Corner Cafe", "alice"))

	biz, err := r.Get("corner cafe")
	require.NoError(t, err)
	assert.Equal(t, "alice", biz.Owner)
	assert.Equal(t, "Corner Cafe", biz.Name)
	assert.Empty(t, biz.Members)
	assert.Equal(t, int64(0), biz.Balance)
}

func TestCreateDuplicateCaseInsensitive(t *testing.T) {
	r := newRegistry(t)

	require.NoError(t, r.Create("Corner Cafe", "alice"))
	assert.ErrorIs(t, r.Create("CORNER CAFE", "bob"), ErrAlreadyExists)
	assert.ErrorIs(t, r.Create("  corner cafe  ", "bob"), ErrAlreadyExists)
}

func TestCreateEmptyName(t *testing.T) {
	r := newRegistry(t)
	assert.ErrorIs(t, r.Create("   ", "alice"), ErrInvalidName)
}

func TestMembership(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.Create("cafe", "alice"))

	assert.ErrorIs(t, r.AddMember("cafe", "bob", "carol"), ErrNotAuthorized)
	assert.ErrorIs(t, r.AddMember("bakery", "alice", "carol"), ErrNotFound)

	require.NoError(t, r.AddMember("cafe", "alice", "bob"))
	assert.ErrorIs(t, r.AddMember("cafe", "alice", "bob"), ErrAlreadyMember)

	// The owner is never added as a member; ownership already implies membership.
	assert.ErrorIs(t, r.AddMember("cafe", "alice", "alice"), ErrAlreadyMember)

	biz, err := r.Get("cafe")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, biz.Members)

	assert.True(t, r.IsAuthorized("cafe", "alice"))
	assert.True(t, r.IsAuthorized("cafe", "bob"))
	assert.False(t, r.IsAuthorized("cafe", "carol"))
	assert.False(t, r.IsAuthorized("bakery", "alice"))

	assert.ErrorIs(t, r.RemoveMember("cafe", "bob", "bob"), ErrNotAuthorized)
	assert.ErrorIs(t, r.RemoveMember("cafe", "alice", "carol"), ErrNotMember)
	require.NoError(t, r.RemoveMember("cafe", "alice", "bob"))
	assert.False(t, r.IsAuthorized("cafe", "bob"))
}

func TestBusinessCreditDebit(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.Create("cafe", "alice"))

	balance, err := r.Credit("cafe", 200)
	require.NoError(t, err)
	assert.Equal(t, int64(200), balance)

	balance, err = r.Debit("CAFE", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)

	_, err = r.Debit("cafe", 151)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = r.Credit("bakery", 10)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Credit("cafe", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestBusinessFreeze(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.Create("cafe", "alice"))
	_, err := r.Credit("cafe", 100)
	require.NoError(t, err)

	assert.ErrorIs(t, r.Freeze("bakery"), ErrNotFound)
	require.NoError(t, r.Freeze("Cafe"))
	require.NoError(t, r.Freeze("cafe"))

	_, err = r.Credit("cafe", 10)
	assert.ErrorIs(t, err, ErrBusinessFrozen)
	_, err = r.Debit("cafe", 10)
	assert.ErrorIs(t, err, ErrBusinessFrozen)

	balance, err := r.Balance("cafe")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	require.NoError(t, r.Unfreeze("cafe"))
	assert.ErrorIs(t, r.Unfreeze("cafe"), ErrNotFrozen)
}

func TestDeleteBusiness(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.Create("cafe", "alice"))

	assert.ErrorIs(t, r.Delete("bakery"), ErrNotFound)
	require.NoError(t, r.Delete("CAFE"))
	assert.False(t, r.Exists("cafe"))
}

func TestBusinessPrune(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.Create("cafe", "alice"))
	require.NoError(t, r.Create("bakery", "bob"))
	require.NoError(t, r.Create("florist", "carol"))
	_, err := r.Credit("cafe", 100)
	require.NoError(t, err)
	require.NoError(t, r.Freeze("florist"))

	removed, err := r.PruneZeroBalances()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.True(t, r.Exists("cafe"))
	assert.True(t, r.Exists("florist"))
	assert.False(t, r.Exists("bakery"))
}
