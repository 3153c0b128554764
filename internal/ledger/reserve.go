package ledger

import (
	"fmt"
	"sync"

	"github.com/townhall-labs/community-ledger/internal/interfaces"
)

// BankReserve is the single pooled balance that funds wager wins and absorbs wager
// losses. It starts at 0 on first run and is only ever mutated by wager settlement
// and staff deposits.
type BankReserve struct {
	mu      sync.Mutex
	store   interfaces.Store
	balance int64
}

func NewBankReserve(store interfaces.Store) (*BankReserve, error) {
	balance, err := store.LoadReserve()
	if err != nil {
		return nil, fmt.Errorf("loading bank reserve: %w", err)
	}
	return &BankReserve{store: store, balance: balance}, nil
}

func (b *BankReserve) Balance() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance
}

func (b *BankReserve) Deposit(amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return b.apply(amount)
}

// Payout funds a wager win. The reserve must cover the full amount.
func (b *BankReserve) Payout(amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if amount > b.balance {
		return 0, ErrInsufficientReserve
	}
	return b.applyLocked(-amount)
}

// Absorb takes in a lost wager.
func (b *BankReserve) Absorb(amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return b.apply(amount)
}

func (b *BankReserve) apply(delta int64) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.applyLocked(delta)
}

func (b *BankReserve) applyLocked(delta int64) (int64, error) {
	prev := b.balance
	b.balance += delta
	if err := b.store.SaveReserve(b.balance); err != nil {
		b.balance = prev
		return 0, fmt.Errorf("%w: saving bank reserve: %v", ErrPersistence, err)
	}
	return b.balance, nil
}
