package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/townhall-labs/community-ledger/internal/interfaces"
	"github.com/townhall-labs/community-ledger/internal/models"
)

const (
	balancesFile         = "balances.json"
	reserveFile          = "bank_balance.json"
	businessesFile       = "businesses.json"
	settingsFile         = "settings.json"
	frozenAccountsFile   = "frozen_accounts.json"
	frozenBusinessesFile = "frozen_businesses.json"
)

// Store persists each container as a JSON file under dir. Saves write a temp file
// and rename it into place, so a crash mid-write never truncates a container.
// Missing files read as the container's first-run default.
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) LoadBalances() (map[string]int64, error) {
	balances := make(map[string]int64)
	if _, err := s.load(balancesFile, &balances); err != nil {
		return nil, err
	}
	return balances, nil
}

func (s *Store) SaveBalances(balances map[string]int64) error {
	return s.save(balancesFile, balances)
}

type reserveRecord struct {
	Balance int64 `json:"balance"`
}

func (s *Store) LoadReserve() (int64, error) {
	var rec reserveRecord
	if _, err := s.load(reserveFile, &rec); err != nil {
		return 0, err
	}
	return rec.Balance, nil
}

func (s *Store) SaveReserve(balance int64) error {
	return s.save(reserveFile, reserveRecord{Balance: balance})
}

func (s *Store) LoadBusinesses() (map[string]models.Business, error) {
	businesses := make(map[string]models.Business)
	if _, err := s.load(businessesFile, &businesses); err != nil {
		return nil, err
	}
	return businesses, nil
}

func (s *Store) SaveBusinesses(businesses map[string]models.Business) error {
	return s.save(businessesFile, businesses)
}

func (s *Store) LoadSettings() (models.Settings, error) {
	settings := models.DefaultSettings()
	if _, err := s.load(settingsFile, &settings); err != nil {
		return models.Settings{}, err
	}
	return settings, nil
}

func (s *Store) SaveSettings(settings models.Settings) error {
	return s.save(settingsFile, settings)
}

func (s *Store) LoadFrozenAccounts() ([]string, error) {
	var ids []string
	if _, err := s.load(frozenAccountsFile, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) SaveFrozenAccounts(ids []string) error {
	return s.save(frozenAccountsFile, ids)
}

func (s *Store) LoadFrozenBusinesses() ([]string, error) {
	var names []string
	if _, err := s.load(frozenBusinessesFile, &names); err != nil {
		return nil, err
	}
	return names, nil
}

func (s *Store) SaveFrozenBusinesses(names []string) error {
	return s.save(frozenBusinessesFile, names)
}

// load decodes the named file into v, reporting whether the file existed.
func (s *Store) load(name string, v any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", name, err)
	}
	return true, nil
}

func (s *Store) save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("committing %s: %w", name, err)
	}
	return nil
}

var _ interfaces.Store = (*Store)(nil)
