package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/townhall-labs/community-ledger/internal/models"
)

func TestFirstRunDefaults(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	balances, err := s.LoadBalances()
	require.NoError(t, err)
	assert.Empty(t, balances)

	reserve, err := s.LoadReserve()
	require.NoError(t, err)
	assert.Equal(t, int64(0), reserve)

	businesses, err := s.LoadBusinesses()
	require.NoError(t, err)
	assert.Empty(t, businesses)

	settings, err := s.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), settings)

	frozen, err := s.LoadFrozenAccounts()
	require.NoError(t, err)
	assert.Empty(t, frozen)

	frozen, err = s.LoadFrozenBusinesses()
	require.NoError(t, err)
	assert.Empty(t, frozen)
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	balances := map[string]int64{"alice": 120, "bob": 0}
	require.NoError(t, s.SaveBalances(balances))
	require.NoError(t, s.SaveReserve(5000))
	businesses := map[string]models.Business{
		"cafe": {Name: "Cafe", Owner: "alice", Members: []string{"bob"}, Balance: 300},
	}
	require.NoError(t, s.SaveBusinesses(businesses))
	settings := models.Settings{DepositEnabled: true, WithdrawEnabled: false, GamblingEnabled: true}
	require.NoError(t, s.SaveSettings(settings))
	require.NoError(t, s.SaveFrozenAccounts([]string{"mallory"}))
	require.NoError(t, s.SaveFrozenBusinesses([]string{"cafe"}))

	// A fresh store over the same directory sees everything.
	reopened, err := New(dir)
	require.NoError(t, err)

	gotBalances, err := reopened.LoadBalances()
	require.NoError(t, err)
	assert.Equal(t, balances, gotBalances)

	reserve, err := reopened.LoadReserve()
	require.NoError(t, err)
	assert.Equal(t, int64(5000), reserve)

	gotBusinesses, err := reopened.LoadBusinesses()
	require.NoError(t, err)
	assert.Equal(t, businesses, gotBusinesses)

	gotSettings, err := reopened.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, settings, gotSettings)

	frozenAccounts, err := reopened.LoadFrozenAccounts()
	require.NoError(t, err)
	assert.Equal(t, []string{"mallory"}, frozenAccounts)

	frozenBusinesses, err := reopened.LoadFrozenBusinesses()
	require.NoError(t, err)
	assert.Equal(t, []string{"cafe"}, frozenBusinesses)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.SaveBalances(map[string]int64{"alice": 1}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "balances.json", entries[0].Name())
}

func TestCorruptFileSurfacesError(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "balances.json"), []byte("{not json"), 0o644))

	_, err = s.LoadBalances()
	assert.Error(t, err)
}
