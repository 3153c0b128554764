package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/townhall-labs/community-ledger/internal/ledger"
	"github.com/townhall-labs/community-ledger/internal/models"
	"github.com/townhall-labs/community-ledger/internal/models/events"
	"github.com/townhall-labs/community-ledger/pkg/logger"
)

// RequestDeposit validates a deposit request and forwards it to the messaging
// layer. No balance moves until staff approval.
func (e *Engine) RequestDeposit(requester string, amount int64, target models.Ref, proofURL string) (models.PendingRequest, error) {
	if !e.settings.Enabled(models.FlagDeposit) {
		return models.PendingRequest{}, ledger.ErrFeatureDisabled
	}
	return e.submitRequest(requester, amount, target, models.RequestDeposit, proofURL, false)
}

// RequestWithdraw additionally pre-checks the target's funds so staff are never
// asked to approve an impossible withdrawal. Approval re-checks regardless, since
// balances can move while the request is in flight.
func (e *Engine) RequestWithdraw(requester string, amount int64, target models.Ref) (models.PendingRequest, error) {
	if !e.settings.Enabled(models.FlagWithdraw) {
		return models.PendingRequest{}, ledger.ErrFeatureDisabled
	}
	return e.submitRequest(requester, amount, target, models.RequestWithdraw, "", true)
}

func (e *Engine) submitRequest(requester string, amount int64, target models.Ref, kind models.RequestKind, proofURL string, checkFunds bool) (models.PendingRequest, error) {
	if amount <= 0 {
		return models.PendingRequest{}, ledger.ErrInvalidAmount
	}

	switch target.Kind {
	case models.RefBusiness:
		if !e.businesses.Exists(target.Key) {
			return models.PendingRequest{}, ledger.ErrNotFound
		}
		if !e.businesses.IsAuthorized(target.Key, requester) {
			return models.PendingRequest{}, ledger.ErrNotAuthorized
		}
	default:
		if target.Key != requester {
			return models.PendingRequest{}, ledger.ErrNotAuthorized
		}
	}

	if checkFunds {
		balance, err := e.GetBalance(target)
		if err != nil {
			return models.PendingRequest{}, err
		}
		if balance < amount {
			return models.PendingRequest{}, ledger.ErrInsufficientFunds
		}
	}

	req := models.PendingRequest{
		ID:        uuid.NewString(),
		Requester: requester,
		Target:    target,
		Amount:    amount,
		Kind:      kind,
		ProofURL:  proofURL,
		CreatedAt: e.now().UTC(),
	}
	event := events.RequestSubmitted{Request: req, OccurredAt: req.CreatedAt}
	if err := e.publisher.Publish(events.TopicRequests, event); err != nil {
		return models.PendingRequest{}, fmt.Errorf("forwarding %s request: %w", kind, err)
	}
	return req, nil
}

// Approve settles a pending deposit or withdrawal. Requests are not tracked, so
// the parameters come from the staff caller; sufficiency is checked here, at
// approval time, whatever the requester saw earlier. The returned notification is
// the messaging layer's to deliver.
func (e *Engine) Approve(isStaff bool, member string, kind models.RequestKind, amount int64, target models.Ref, proofURL string) (models.Notification, error) {
	if !isStaff {
		return models.Notification{}, ledger.ErrNotAuthorized
	}
	if !kind.Valid() {
		return models.Notification{}, ledger.ErrInvalidRequest
	}
	if amount <= 0 {
		return models.Notification{}, ledger.ErrInvalidAmount
	}
	if kind == models.RequestWithdraw && proofURL == "" {
		return models.Notification{}, ledger.ErrProofRequired
	}

	release, err := e.locks.Acquire(target.LockKey())
	if err != nil {
		return models.Notification{}, err
	}
	if kind == models.RequestDeposit {
		_, err = e.credit(target, amount)
	} else {
		_, err = e.debit(target, amount)
	}
	// Release before the broker round-trip so a slow publish never starves the
	// entity lock.
	release()
	if err != nil {
		return models.Notification{}, err
	}

	note := e.approvalNotification(member, kind, amount, target, proofURL)
	e.publishNotification(note)
	return note, nil
}

// Reject is a pure state transition: nothing moves, only a notification comes back.
func (e *Engine) Reject(isStaff bool, member string, kind models.RequestKind, target models.Ref) (models.Notification, error) {
	if !isStaff {
		return models.Notification{}, ledger.ErrNotAuthorized
	}
	if !kind.Valid() {
		return models.Notification{}, ledger.ErrInvalidRequest
	}

	recipient := member
	if target.Kind == models.RefBusiness {
		if biz, err := e.businesses.Get(target.Key); err == nil {
			recipient = biz.Owner
		}
	}
	note := models.Notification{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Subject:   fmt.Sprintf("%s request rejected", kind),
		Body:      fmt.Sprintf("The %s request for %s on '%s' was rejected.", kind, member, target),
		CreatedAt: e.now().UTC(),
	}
	e.publishNotification(note)
	return note, nil
}

// publishNotification hands a decision DM to the messaging layer. The decision
// itself already settled, so a broker failure is logged rather than surfaced.
func (e *Engine) publishNotification(note models.Notification) {
	if err := e.publisher.Publish(events.TopicNotifications, note); err != nil {
		logger.Log.Error("error publishing notification",
			logger.String("recipient", note.Recipient), logger.Error(err))
	}
}

func (e *Engine) approvalNotification(member string, kind models.RequestKind, amount int64, target models.Ref, proofURL string) models.Notification {
	ts := e.now().UTC()
	n := models.Notification{ID: uuid.NewString(), CreatedAt: ts}

	if target.Kind == models.RefBusiness {
		if biz, err := e.businesses.Get(target.Key); err == nil {
			n.Recipient = biz.Owner
		}
		n.Subject = fmt.Sprintf("Business '%s' %s approved", target.Key, kind)
		n.Body = fmt.Sprintf("- Who: %s\n- Amount: $%d\n- When: %s",
			member, amount, ts.Format(notificationTimeFormat))
		if kind == models.RequestWithdraw {
			n.ProofURL = proofURL
		}
		return n
	}

	n.Recipient = member
	n.Subject = fmt.Sprintf("%s approved", kind)
	n.Body = fmt.Sprintf("Your %s of $%d has been approved on %s.",
		kind, amount, ts.Format(notificationTimeFormat))
	return n
}
