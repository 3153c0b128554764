package ledger

import (
	"fmt"
	"sync"

	"github.com/townhall-labs/community-ledger/internal/interfaces"
	"github.com/townhall-labs/community-ledger/internal/models"
)

// Settings gates the deposit, withdraw and gambling features. Flags default to
// enabled and flip only through staff toggles.
type Settings struct {
	mu    sync.Mutex
	store interfaces.Store
	flags models.Settings
}

func NewSettings(store interfaces.Store) (*Settings, error) {
	flags, err := store.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return &Settings{store: store, flags: flags}, nil
}

// Enabled reports the flag's state; unknown flags read as disabled.
func (s *Settings) Enabled(flag string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch flag {
	case models.FlagDeposit:
		return s.flags.DepositEnabled
	case models.FlagWithdraw:
		return s.flags.WithdrawEnabled
	case models.FlagGambling:
		return s.flags.GamblingEnabled
	}
	return false
}

// Toggle flips the flag, persists, and returns the new value.
func (s *Settings) Toggle(flag string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.flags
	var enabled bool
	switch flag {
	case models.FlagDeposit:
		s.flags.DepositEnabled = !s.flags.DepositEnabled
		enabled = s.flags.DepositEnabled
	case models.FlagWithdraw:
		s.flags.WithdrawEnabled = !s.flags.WithdrawEnabled
		enabled = s.flags.WithdrawEnabled
	case models.FlagGambling:
		s.flags.GamblingEnabled = !s.flags.GamblingEnabled
		enabled = s.flags.GamblingEnabled
	default:
		return false, ErrNotFound
	}

	if err := s.store.SaveSettings(s.flags); err != nil {
		s.flags = prev
		return false, fmt.Errorf("%w: saving settings: %v", ErrPersistence, err)
	}
	return enabled, nil
}

func (s *Settings) Snapshot() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags
}
