package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/townhall-labs/community-ledger/internal/interfaces"
	"github.com/townhall-labs/community-ledger/internal/models"
)

// One row per logical container, whole contents as JSONB. The upsert replaces the
// container in a single statement, which keeps saves atomic.
const (
	containerBalances         = "balances"
	containerReserve          = "bank_reserve"
	containerBusinesses       = "businesses"
	containerSettings         = "settings"
	containerFrozenAccounts   = "frozen_accounts"
	containerFrozenBusinesses = "frozen_businesses"
)

type Store struct {
	db *sql.DB
}

// Open connects, pings, and ensures the containers table exists.
func Open(url string) (*Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	s := New(db)
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) migrate() error {
	const query = `CREATE TABLE IF NOT EXISTS containers (
		name TEXT PRIMARY KEY,
		data JSONB NOT NULL
	)`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating containers table: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) LoadBalances() (map[string]int64, error) {
	balances := make(map[string]int64)
	if _, err := s.load(containerBalances, &balances); err != nil {
		return nil, err
	}
	return balances, nil
}

func (s *Store) SaveBalances(balances map[string]int64) error {
	return s.save(containerBalances, balances)
}

type reserveRecord struct {
	Balance int64 `json:"balance"`
}

func (s *Store) LoadReserve() (int64, error) {
	var rec reserveRecord
	if _, err := s.load(containerReserve, &rec); err != nil {
		return 0, err
	}
	return rec.Balance, nil
}

func (s *Store) SaveReserve(balance int64) error {
	return s.save(containerReserve, reserveRecord{Balance: balance})
}

func (s *Store) LoadBusinesses() (map[string]models.Business, error) {
	businesses := make(map[string]models.Business)
	if _, err := s.load(containerBusinesses, &businesses); err != nil {
		return nil, err
	}
	return businesses, nil
}

func (s *Store) SaveBusinesses(businesses map[string]models.Business) error {
	return s.save(containerBusinesses, businesses)
}

func (s *Store) LoadSettings() (models.Settings, error) {
	settings := models.DefaultSettings()
	if _, err := s.load(containerSettings, &settings); err != nil {
		return models.Settings{}, err
	}
	return settings, nil
}

func (s *Store) SaveSettings(settings models.Settings) error {
	return s.save(containerSettings, settings)
}

func (s *Store) LoadFrozenAccounts() ([]string, error) {
	var ids []string
	if _, err := s.load(containerFrozenAccounts, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) SaveFrozenAccounts(ids []string) error {
	return s.save(containerFrozenAccounts, ids)
}

func (s *Store) LoadFrozenBusinesses() ([]string, error) {
	var names []string
	if _, err := s.load(containerFrozenBusinesses, &names); err != nil {
		return nil, err
	}
	return names, nil
}

func (s *Store) SaveFrozenBusinesses(names []string) error {
	return s.save(containerFrozenBusinesses, names)
}

// load decodes the named container into v, reporting whether the row existed.
func (s *Store) load(name string, v any) (bool, error) {
	const query = `SELECT data FROM containers WHERE name = $1`

	var data []byte
	err := s.db.QueryRow(query, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading container %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding container %s: %w", name, err)
	}
	return true, nil
}

func (s *Store) save(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding container %s: %w", name, err)
	}

	const query = `INSERT INTO containers (name, data) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data`
	if _, err := s.db.Exec(query, name, data); err != nil {
		return fmt.Errorf("saving container %s: %w", name, err)
	}
	return nil
}

var _ interfaces.Store = (*Store)(nil)
