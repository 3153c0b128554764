package ledger

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/townhall-labs/community-ledger/internal/interfaces"
	"github.com/townhall-labs/community-ledger/internal/models"
	"github.com/townhall-labs/community-ledger/pkg/logger"
)

// BusinessRegistry owns business records: lifecycle, membership, balances and the
// frozen-business set. Keys are case-normalized names; normalization happens here
// on every entry point so callers cannot bypass it.
type BusinessRegistry struct {
	mu         sync.Mutex
	store      interfaces.Store
	businesses map[string]models.Business
	frozen     map[string]struct{}
}

func NewBusinessRegistry(store interfaces.Store) (*BusinessRegistry, error) {
	businesses, err := store.LoadBusinesses()
	if err != nil {
		return nil, fmt.Errorf("loading businesses: %w", err)
	}
	if businesses == nil {
		businesses = make(map[string]models.Business)
	}

	names, err := store.LoadFrozenBusinesses()
	if err != nil {
		return nil, fmt.Errorf("loading frozen businesses: %w", err)
	}
	frozen := make(map[string]struct{}, len(names))
	for _, name := range names {
		frozen[name] = struct{}{}
	}

	return &BusinessRegistry{store: store, businesses: businesses, frozen: frozen}, nil
}

// Create opens a new business account. The creator becomes the immutable owner.
func (r *BusinessRegistry) Create(name, owner string) error {
	key := models.NormalizeName(name)
	if key == "" {
		return ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.businesses[key]; ok {
		return ErrAlreadyExists
	}
	r.businesses[key] = models.Business{
		Name:    strings.TrimSpace(name),
		Owner:   owner,
		Members: []string{},
	}
	if err := r.save(); err != nil {
		delete(r.businesses, key)
		return err
	}
	return nil
}

// Delete removes a business outright, regardless of balance. The frozen set is
// left untouched: freeze markers are staff-managed metadata and are cleared only
// by an explicit unfreeze.
func (r *BusinessRegistry) Delete(name string) error {
	key := models.NormalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.businesses[key]
	if !ok {
		return ErrNotFound
	}
	delete(r.businesses, key)
	if err := r.save(); err != nil {
		r.businesses[key] = prev
		return err
	}
	return nil
}

func (r *BusinessRegistry) Get(name string) (models.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.businesses[models.NormalizeName(name)]
	if !ok {
		return models.Business{}, ErrNotFound
	}
	b.Members = append([]string(nil), b.Members...)
	return b, nil
}

func (r *BusinessRegistry) Exists(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.businesses[models.NormalizeName(name)]
	return ok
}

func (r *BusinessRegistry) Balance(name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.businesses[models.NormalizeName(name)]
	if !ok {
		return 0, ErrNotFound
	}
	return b.Balance, nil
}

// IsAuthorized reports whether account is the owner or a member. Unknown
// businesses are never authorized.
func (r *BusinessRegistry) IsAuthorized(name, account string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.businesses[models.NormalizeName(name)]
	return ok && b.Authorized(account)
}

// AddMember grants member operating rights. Only the owner may call it; adding the
// owner itself fails AlreadyMember since ownership already implies membership.
func (r *BusinessRegistry) AddMember(name, owner, member string) error {
	key := models.NormalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.businesses[key]
	if !ok {
		return ErrNotFound
	}
	if b.Owner != owner {
		return ErrNotAuthorized
	}
	if member == b.Owner || b.IsMember(member) {
		return ErrAlreadyMember
	}

	prev := b.Members
	b.Members = append(append([]string(nil), b.Members...), member)
	r.businesses[key] = b
	if err := r.save(); err != nil {
		b.Members = prev
		r.businesses[key] = b
		return err
	}
	return nil
}

func (r *BusinessRegistry) RemoveMember(name, owner, member string) error {
	key := models.NormalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.businesses[key]
	if !ok {
		return ErrNotFound
	}
	if b.Owner != owner {
		return ErrNotAuthorized
	}
	if !b.IsMember(member) {
		return ErrNotMember
	}

	prev := b.Members
	members := make([]string, 0, len(b.Members)-1)
	for _, m := range b.Members {
		if m != member {
			members = append(members, m)
		}
	}
	b.Members = members
	r.businesses[key] = b
	if err := r.save(); err != nil {
		b.Members = prev
		r.businesses[key] = b
		return err
	}
	return nil
}

func (r *BusinessRegistry) Credit(name string, amount int64) (int64, error) {
	return r.apply(name, amount, false)
}

func (r *BusinessRegistry) Debit(name string, amount int64) (int64, error) {
	return r.apply(name, amount, true)
}

func (r *BusinessRegistry) apply(name string, amount int64, debit bool) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	key := models.NormalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.businesses[key]
	if !ok {
		return 0, ErrNotFound
	}
	if _, frozen := r.frozen[key]; frozen {
		return 0, ErrBusinessFrozen
	}

	prev := b.Balance
	if debit {
		if b.Balance < amount {
			return 0, ErrInsufficientFunds
		}
		b.Balance -= amount
	} else {
		b.Balance += amount
	}
	r.businesses[key] = b
	if err := r.save(); err != nil {
		b.Balance = prev
		r.businesses[key] = b
		logger.Log.Error("rolled back business balance mutation",
			logger.String("business", key), logger.Error(err))
		return 0, err
	}
	return b.Balance, nil
}

func (r *BusinessRegistry) IsFrozen(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.frozen[models.NormalizeName(name)]
	return ok
}

// Freeze requires the business to exist; it is idempotent once it does.
func (r *BusinessRegistry) Freeze(name string) error {
	key := models.NormalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.businesses[key]; !ok {
		return ErrNotFound
	}
	if _, ok := r.frozen[key]; ok {
		return nil
	}
	r.frozen[key] = struct{}{}
	if err := r.saveFrozen(); err != nil {
		delete(r.frozen, key)
		return err
	}
	return nil
}

// Unfreeze does not require the business to still exist, so a marker left behind
// by a deletion can always be cleared.
func (r *BusinessRegistry) Unfreeze(name string) error {
	key := models.NormalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.frozen[key]; !ok {
		return ErrNotFrozen
	}
	delete(r.frozen, key)
	if err := r.saveFrozen(); err != nil {
		r.frozen[key] = struct{}{}
		return err
	}
	return nil
}

func (r *BusinessRegistry) Frozen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.frozen))
	for name := range r.frozen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Businesses returns a snapshot keyed by normalized name.
func (r *BusinessRegistry) Businesses() map[string]models.Business {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]models.Business, len(r.businesses))
	for key, b := range r.businesses {
		b.Members = append([]string(nil), b.Members...)
		out[key] = b
	}
	return out
}

// PruneZeroBalances removes businesses whose balance is 0 at removal time, skipping
// frozen ones. The balance is read from the live record here, never from a cached
// listing.
func (r *BusinessRegistry) PruneZeroBalances() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := make(map[string]models.Business)
	for key, b := range r.businesses {
		if b.Balance != 0 {
			continue
		}
		if _, frozen := r.frozen[key]; frozen {
			continue
		}
		removed[key] = b
		delete(r.businesses, key)
	}
	if len(removed) == 0 {
		return 0, nil
	}

	if err := r.save(); err != nil {
		for key, b := range removed {
			r.businesses[key] = b
		}
		return 0, err
	}
	return len(removed), nil
}

func (r *BusinessRegistry) save() error {
	if err := r.store.SaveBusinesses(r.businesses); err != nil {
		return fmt.Errorf("%w: saving businesses: %v", ErrPersistence, err)
	}
	return nil
}

func (r *BusinessRegistry) saveFrozen() error {
	names := make([]string, 0, len(r.frozen))
	for name := range r.frozen {
		names = append(names, name)
	}
	sort.Strings(names)
	if err := r.store.SaveFrozenBusinesses(names); err != nil {
		return fmt.Errorf("%w: saving frozen businesses: %v", ErrPersistence, err)
	}
	return nil
}
