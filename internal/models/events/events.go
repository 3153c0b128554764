package events

import (
	"time"

	"github.com/townhall-labs/community-ledger/internal/models"
)

// Topics the engine publishes to. The messaging layer subscribes and renders the
// payloads into staff-channel posts and member DMs.
const (
	TopicRequests      = "ledger.requests"
	TopicNotifications = "ledger.notifications"
)

// RequestSubmitted is emitted when a member files a deposit or withdrawal request.
type RequestSubmitted struct {
	Request    models.PendingRequest `json:"request"`
	OccurredAt time.Time             `json:"occurred_at"`
}
