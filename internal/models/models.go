package models

import "time"

// Business is a pooled account with one owner and a set of members allowed to
// operate it. The owner never appears in Members; ownership implies membership.
type Business struct {
	Name    string   `json:"name"`
	Owner   string   `json:"owner"`
	Members []string `json:"members"`
	Balance int64    `json:"balance"`
}

// IsMember reports whether account is in the members set. The owner is not a member.
func (b Business) IsMember(account string) bool {
	for _, m := range b.Members {
		if m == account {
			return true
		}
	}
	return false
}

// Authorized reports whether account may operate the business.
func (b Business) Authorized(account string) bool {
	return account == b.Owner || b.IsMember(account)
}

// Settings holds the staff-toggled feature flags.
type Settings struct {
	DepositEnabled  bool `json:"deposit_enabled"`
	WithdrawEnabled bool `json:"withdraw_enabled"`
	GamblingEnabled bool `json:"gambling_enabled"`
}

// DefaultSettings is the first-run state: everything enabled.
func DefaultSettings() Settings {
	return Settings{DepositEnabled: true, WithdrawEnabled: true, GamblingEnabled: true}
}

// Flag names accepted by the settings toggle.
const (
	FlagDeposit  = "deposit"
	FlagWithdraw = "withdraw"
	FlagGambling = "gambling"
)

// RequestKind distinguishes deposit and withdrawal requests.
type RequestKind string

const (
	RequestDeposit  RequestKind = "deposit"
	RequestWithdraw RequestKind = "withdraw"
)

func (k RequestKind) Valid() bool {
	return k == RequestDeposit || k == RequestWithdraw
}

// PendingRequest is the in-flight payload handed to the messaging layer when a
// member asks for a deposit or withdrawal. Requests are not persisted or tracked;
// staff approval supplies the same parameters back independently.
type PendingRequest struct {
	ID        string      `json:"id"`
	Requester string      `json:"requester"`
	Target    Ref         `json:"target"`
	Amount    int64       `json:"amount"`
	Kind      RequestKind `json:"kind"`
	ProofURL  string      `json:"proof_url,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Notification is a DM payload produced by approve/reject for the messaging layer
// to deliver. The engine never sends it.
type Notification struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	ProofURL  string    `json:"proof_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// WagerResult reports a settled wager.
type WagerResult struct {
	Won        bool  `json:"won"`
	Amount     int64 `json:"amount"`
	NewBalance int64 `json:"new_balance"`
}
