package engine

import (
	"math/rand"
	"time"

	"github.com/townhall-labs/community-ledger/internal/interfaces"
	"github.com/townhall-labs/community-ledger/internal/ledger"
	"github.com/townhall-labs/community-ledger/internal/models"
	"github.com/townhall-labs/community-ledger/pkg/logger"
)

// A draw strictly above the threshold wins, giving a 40% win probability.
const wagerWinThreshold = 0.6

// Lock key for the bank reserve. It sorts with the entity keys, so multi-entity
// operations always acquire in one global order.
const bankLockKey = "bank"

const notificationTimeFormat = "2006-01-02 15:04 UTC"

// Engine orchestrates every operation that crosses entity boundaries: transfers,
// wagers against the reserve, and the staff approve/reject workflow. It owns no
// balances itself; it coordinates the ledgers under per-entity locks and
// compensates the first half of a two-entity mutation when the second half fails.
//
// Staff status is an input: role resolution belongs to the platform layer, and the
// engine trusts the isStaff flag it is handed.
type Engine struct {
	accounts   *ledger.AccountLedger
	businesses *ledger.BusinessRegistry
	reserve    *ledger.BankReserve
	settings   *ledger.Settings
	locks      *ledger.LockTable
	publisher  interfaces.EventPublisher
	draw       func() float64
	now        func() time.Time
}

type Option func(*Engine)

// WithDraw replaces the wager random source. Tests pin the draw to land on either
// side of the win threshold.
func WithDraw(draw func() float64) Option {
	return func(e *Engine) { e.draw = draw }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(
	accounts *ledger.AccountLedger,
	businesses *ledger.BusinessRegistry,
	reserve *ledger.BankReserve,
	settings *ledger.Settings,
	locks *ledger.LockTable,
	publisher interfaces.EventPublisher,
	opts ...Option,
) *Engine {
	e := &Engine{
		accounts:   accounts,
		businesses: businesses,
		reserve:    reserve,
		settings:   settings,
		locks:      locks,
		publisher:  publisher,
		draw:       rand.Float64,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GetBalance reads either entity kind. Personal balances never fail; business
// balances fail NotFound.
func (e *Engine) GetBalance(ref models.Ref) (int64, error) {
	if ref.Kind == models.RefBusiness {
		return e.businesses.Balance(ref.Key)
	}
	return e.accounts.Balance(ref.Key), nil
}

func (e *Engine) IsAuthorized(name, account string) bool {
	return e.businesses.IsAuthorized(name, account)
}

func (e *Engine) ListAccounts() map[string]int64 {
	return e.accounts.Accounts()
}

func (e *Engine) ListBusinesses() map[string]models.Business {
	return e.businesses.Businesses()
}

func (e *Engine) GetBusiness(name string) (models.Business, error) {
	return e.businesses.Get(name)
}

func (e *Engine) ListFrozen(kind models.RefKind) []string {
	if kind == models.RefBusiness {
		return e.businesses.Frozen()
	}
	return e.accounts.Frozen()
}

func (e *Engine) ReserveBalance() int64 {
	return e.reserve.Balance()
}

func (e *Engine) Settings() models.Settings {
	return e.settings.Snapshot()
}

// Credit applies a direct credit to either entity kind under its entity lock.
func (e *Engine) Credit(ref models.Ref, amount int64) (int64, error) {
	release, err := e.locks.Acquire(ref.LockKey())
	if err != nil {
		return 0, err
	}
	defer release()
	return e.credit(ref, amount)
}

func (e *Engine) Debit(ref models.Ref, amount int64) (int64, error) {
	release, err := e.locks.Acquire(ref.LockKey())
	if err != nil {
		return 0, err
	}
	defer release()
	return e.debit(ref, amount)
}

func (e *Engine) credit(ref models.Ref, amount int64) (int64, error) {
	if ref.Kind == models.RefBusiness {
		return e.businesses.Credit(ref.Key, amount)
	}
	return e.accounts.Credit(ref.Key, amount)
}

func (e *Engine) debit(ref models.Ref, amount int64) (int64, error) {
	if ref.Kind == models.RefBusiness {
		return e.businesses.Debit(ref.Key, amount)
	}
	return e.accounts.Debit(ref.Key, amount)
}

// Transfer moves funds between two entities. A business source requires the
// initiator to be authorized; a personal source must be the initiator's own
// account; any existing business may receive. The debit and credit hit
// independently persisted containers, so a failed credit is compensated by
// re-crediting the source before the error surfaces.
func (e *Engine) Transfer(initiator string, amount int64, from, to models.Ref) error {
	if amount <= 0 {
		return ledger.ErrInvalidAmount
	}
	switch from.Kind {
	case models.RefBusiness:
		if !e.businesses.IsAuthorized(from.Key, initiator) {
			return ledger.ErrNotAuthorized
		}
	default:
		if from.Key != initiator {
			return ledger.ErrNotAuthorized
		}
	}
	if to.Kind == models.RefBusiness && !e.businesses.Exists(to.Key) {
		return ledger.ErrNotFound
	}

	release, err := e.locks.Acquire(from.LockKey(), to.LockKey())
	if err != nil {
		return err
	}
	defer release()

	if _, err := e.debit(from, amount); err != nil {
		return err
	}
	if _, err := e.credit(to, amount); err != nil {
		if _, rbErr := e.credit(from, amount); rbErr != nil {
			logger.Log.Error("transfer compensation failed",
				logger.String("from", from.String()),
				logger.Int64("amount", amount),
				logger.Error(rbErr))
		}
		return err
	}
	return nil
}

// Wager plays the player's stake against the bank reserve. A win pays the stake
// from the reserve; a loss hands the stake to the reserve. Each outcome mutates
// two entities, so the second failure compensates the first, mirroring Transfer.
func (e *Engine) Wager(player string, amount int64) (models.WagerResult, error) {
	if !e.settings.Enabled(models.FlagGambling) {
		return models.WagerResult{}, ledger.ErrFeatureDisabled
	}
	if amount <= 0 {
		return models.WagerResult{}, ledger.ErrInvalidAmount
	}

	playerRef := models.PersonalRef(player)
	release, err := e.locks.Acquire(playerRef.LockKey(), bankLockKey)
	if err != nil {
		return models.WagerResult{}, err
	}
	defer release()

	if e.accounts.Balance(player) < amount {
		return models.WagerResult{}, ledger.ErrInsufficientFunds
	}

	if e.draw() > wagerWinThreshold {
		if e.reserve.Balance() < amount {
			return models.WagerResult{}, ledger.ErrInsufficientReserve
		}
		newBalance, err := e.accounts.Credit(player, amount)
		if err != nil {
			return models.WagerResult{}, err
		}
		if _, err := e.reserve.Payout(amount); err != nil {
			if _, rbErr := e.accounts.Debit(player, amount); rbErr != nil {
				logger.Log.Error("wager win compensation failed",
					logger.String("player", player), logger.Error(rbErr))
			}
			return models.WagerResult{}, err
		}
		return models.WagerResult{Won: true, Amount: amount, NewBalance: newBalance}, nil
	}

	newBalance, err := e.accounts.Debit(player, amount)
	if err != nil {
		return models.WagerResult{}, err
	}
	if _, err := e.reserve.Absorb(amount); err != nil {
		if _, rbErr := e.accounts.Credit(player, amount); rbErr != nil {
			logger.Log.Error("wager loss compensation failed",
				logger.String("player", player), logger.Error(rbErr))
		}
		return models.WagerResult{}, err
	}
	return models.WagerResult{Won: false, Amount: amount, NewBalance: newBalance}, nil
}

// DepositToReserve adds staff funds to the bank.
func (e *Engine) DepositToReserve(isStaff bool, amount int64) (int64, error) {
	if !isStaff {
		return 0, ledger.ErrNotAuthorized
	}
	release, err := e.locks.Acquire(bankLockKey)
	if err != nil {
		return 0, err
	}
	defer release()
	return e.reserve.Deposit(amount)
}

func (e *Engine) CreateBusiness(name, owner string) error {
	return e.businesses.Create(name, owner)
}

func (e *Engine) AddMember(name, owner, member string) error {
	return e.businesses.AddMember(name, owner, member)
}

func (e *Engine) RemoveMember(name, owner, member string) error {
	return e.businesses.RemoveMember(name, owner, member)
}

func (e *Engine) DeleteBusiness(isStaff bool, name string) error {
	if !isStaff {
		return ledger.ErrNotAuthorized
	}
	ref := models.BusinessRef(name)
	release, err := e.locks.Acquire(ref.LockKey())
	if err != nil {
		return err
	}
	defer release()
	return e.businesses.Delete(name)
}

func (e *Engine) Freeze(isStaff bool, ref models.Ref) error {
	if !isStaff {
		return ledger.ErrNotAuthorized
	}
	release, err := e.locks.Acquire(ref.LockKey())
	if err != nil {
		return err
	}
	defer release()
	if ref.Kind == models.RefBusiness {
		return e.businesses.Freeze(ref.Key)
	}
	return e.accounts.Freeze(ref.Key)
}

func (e *Engine) Unfreeze(isStaff bool, ref models.Ref) error {
	if !isStaff {
		return ledger.ErrNotAuthorized
	}
	release, err := e.locks.Acquire(ref.LockKey())
	if err != nil {
		return err
	}
	defer release()
	if ref.Kind == models.RefBusiness {
		return e.businesses.Unfreeze(ref.Key)
	}
	return e.accounts.Unfreeze(ref.Key)
}

// Prune removes zero-balance entries of the given kind and returns how many went.
func (e *Engine) Prune(kind models.RefKind) (int, error) {
	if kind == models.RefBusiness {
		return e.businesses.PruneZeroBalances()
	}
	return e.accounts.PruneZeroBalances()
}

func (e *Engine) ToggleSetting(isStaff bool, flag string) (bool, error) {
	if !isStaff {
		return false, ledger.ErrNotAuthorized
	}
	return e.settings.Toggle(flag)
}
