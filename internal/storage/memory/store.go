package memory

import (
	"slices"
	"sync"

	"github.com/townhall-labs/community-ledger/internal/interfaces"
	"github.com/townhall-labs/community-ledger/internal/models"
)

// Store keeps every container in memory. It backs tests and local runs. Each
// method copies on the way in and out so callers never alias internal state.
type Store struct {
	mu               sync.Mutex
	balances         map[string]int64
	reserve          int64
	businesses       map[string]models.Business
	settings         models.Settings
	frozenAccounts   []string
	frozenBusinesses []string
}

func New() *Store {
	return &Store{
		balances:   make(map[string]int64),
		businesses: make(map[string]models.Business),
		settings:   models.DefaultSettings(),
	}
}

func (s *Store) LoadBalances() (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyBalances(s.balances), nil
}

func (s *Store) SaveBalances(balances map[string]int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances = copyBalances(balances)
	return nil
}

func (s *Store) LoadReserve() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reserve, nil
}

func (s *Store) SaveReserve(balance int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reserve = balance
	return nil
}

func (s *Store) LoadBusinesses() (map[string]models.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyBusinesses(s.businesses), nil
}

func (s *Store) SaveBusinesses(businesses map[string]models.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.businesses = copyBusinesses(businesses)
	return nil
}

func (s *Store) LoadSettings() (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, nil
}

func (s *Store) SaveSettings(settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return nil
}

func (s *Store) LoadFrozenAccounts() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.frozenAccounts), nil
}

func (s *Store) SaveFrozenAccounts(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozenAccounts = slices.Clone(ids)
	return nil
}

func (s *Store) LoadFrozenBusinesses() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.frozenBusinesses), nil
}

func (s *Store) SaveFrozenBusinesses(names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozenBusinesses = slices.Clone(names)
	return nil
}

func copyBalances(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyBusinesses(in map[string]models.Business) map[string]models.Business {
	out := make(map[string]models.Business, len(in))
	for k, b := range in {
		b.Members = slices.Clone(b.Members)
		out[k] = b
	}
	return out
}

// Compile-time check: Store implements the persistence interface.
var _ interfaces.Store = (*Store)(nil)
