package ledger

import "errors"

// Every operation in the core returns one of these sentinels (possibly wrapped with
// context). The command layer maps each to a user-visible message; nothing here is
// fatal to the process.
var (
	ErrInvalidAmount       = errors.New("amount must be a positive whole number")
	ErrInvalidName         = errors.New("name cannot be empty")
	ErrInvalidRequest      = errors.New("action must be deposit or withdraw")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInsufficientReserve = errors.New("bank reserve cannot cover the payout")
	ErrAccountFrozen       = errors.New("account is frozen")
	ErrBusinessFrozen      = errors.New("business is frozen")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrAlreadyExists       = errors.New("already exists")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyMember       = errors.New("already a member")
	ErrNotMember           = errors.New("not a member")
	ErrNotFrozen           = errors.New("not frozen")
	ErrFeatureDisabled     = errors.New("feature is currently disabled")
	ErrProofRequired       = errors.New("proof attachment required")
	ErrPersistence         = errors.New("persistence failure")
	ErrBusy                = errors.New("timed out waiting for an entity lock")
)
