package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/townhall-labs/community-ledger/internal/interfaces"
	"github.com/townhall-labs/community-ledger/pkg/logger"
)

// AccountLedger owns every personal balance and the frozen-account set. Each
// read-modify-write runs under one mutex and is persisted before the call returns;
// if the save fails the in-memory mutation is rolled back.
type AccountLedger struct {
	mu       sync.Mutex
	store    interfaces.Store
	balances map[string]int64
	frozen   map[string]struct{}
}

func NewAccountLedger(store interfaces.Store) (*AccountLedger, error) {
	balances, err := store.LoadBalances()
	if err != nil {
		return nil, fmt.Errorf("loading balances: %w", err)
	}
	if balances == nil {
		balances = make(map[string]int64)
	}

	ids, err := store.LoadFrozenAccounts()
	if err != nil {
		return nil, fmt.Errorf("loading frozen accounts: %w", err)
	}
	frozen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		frozen[id] = struct{}{}
	}

	return &AccountLedger{store: store, balances: balances, frozen: frozen}, nil
}

// Balance returns 0 for accounts that have never been touched. It never fails and
// is not blocked by a freeze.
func (l *AccountLedger) Balance(account string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

func (l *AccountLedger) Credit(account string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return l.apply(account, amount)
}

func (l *AccountLedger) Debit(account string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return l.apply(account, -amount)
}

func (l *AccountLedger) apply(account string, delta int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, frozen := l.frozen[account]; frozen {
		return 0, ErrAccountFrozen
	}

	prev, existed := l.balances[account]
	next := prev + delta
	if next < 0 {
		return 0, ErrInsufficientFunds
	}

	l.balances[account] = next
	if err := l.store.SaveBalances(l.balances); err != nil {
		if existed {
			l.balances[account] = prev
		} else {
			delete(l.balances, account)
		}
		logger.Log.Error("rolled back balance mutation",
			logger.String("account", account), logger.Error(err))
		return 0, fmt.Errorf("%w: saving balances: %v", ErrPersistence, err)
	}
	return next, nil
}

func (l *AccountLedger) IsFrozen(account string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.frozen[account]
	return ok
}

// Freeze is idempotent.
func (l *AccountLedger) Freeze(account string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.frozen[account]; ok {
		return nil
	}
	l.frozen[account] = struct{}{}
	if err := l.saveFrozen(); err != nil {
		delete(l.frozen, account)
		return err
	}
	return nil
}

func (l *AccountLedger) Unfreeze(account string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.frozen[account]; !ok {
		return ErrNotFrozen
	}
	delete(l.frozen, account)
	if err := l.saveFrozen(); err != nil {
		l.frozen[account] = struct{}{}
		return err
	}
	return nil
}

func (l *AccountLedger) saveFrozen() error {
	ids := make([]string, 0, len(l.frozen))
	for id := range l.frozen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if err := l.store.SaveFrozenAccounts(ids); err != nil {
		return fmt.Errorf("%w: saving frozen accounts: %v", ErrPersistence, err)
	}
	return nil
}

func (l *AccountLedger) Frozen() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]string, 0, len(l.frozen))
	for id := range l.frozen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Accounts returns a snapshot of every known balance.
func (l *AccountLedger) Accounts() map[string]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]int64, len(l.balances))
	for id, bal := range l.balances {
		out[id] = bal
	}
	return out
}

// PruneZeroBalances drops accounts whose balance is exactly 0 at call time. Frozen
// accounts keep their entry so the freeze survives the cleanup.
func (l *AccountLedger) PruneZeroBalances() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := make(map[string]int64)
	for id, bal := range l.balances {
		if bal != 0 {
			continue
		}
		if _, frozen := l.frozen[id]; frozen {
			continue
		}
		removed[id] = bal
		delete(l.balances, id)
	}
	if len(removed) == 0 {
		return 0, nil
	}

	if err := l.store.SaveBalances(l.balances); err != nil {
		for id, bal := range removed {
			l.balances[id] = bal
		}
		return 0, fmt.Errorf("%w: saving balances: %v", ErrPersistence, err)
	}
	return len(removed), nil
}
