package interfaces

import "github.com/townhall-labs/community-ledger/internal/models"

// Store persists whole containers atomically. A successful Save means the container
// is durable; a failed Save must leave the previously saved contents readable, since
// the ledgers roll back their in-memory state and surface the error.
type Store interface {
	LoadBalances() (map[string]int64, error)
	SaveBalances(balances map[string]int64) error

	LoadReserve() (int64, error)
	SaveReserve(balance int64) error

	LoadBusinesses() (map[string]models.Business, error)
	SaveBusinesses(businesses map[string]models.Business) error

	LoadSettings() (models.Settings, error)
	SaveSettings(settings models.Settings) error

	LoadFrozenAccounts() ([]string, error)
	SaveFrozenAccounts(ids []string) error

	LoadFrozenBusinesses() ([]string, error)
	SaveFrozenBusinesses(names []string) error
}
