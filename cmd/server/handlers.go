package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/townhall-labs/community-ledger/internal/engine"
	"github.com/townhall-labs/community-ledger/internal/ledger"
	"github.com/townhall-labs/community-ledger/internal/models"
	"github.com/townhall-labs/community-ledger/pkg/logger"
)

// api is the thin command adapter over the engine. Role resolution belongs to the
// chat platform; here a shared token marks the caller as staff, and the engine is
// told the result.
type api struct {
	engine     *engine.Engine
	staffToken string
}

func (a *api) router() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", a.health)
	r.Get("/balance", a.balance)
	r.Get("/accounts", a.listAccounts)
	r.Get("/businesses", a.listBusinesses)
	r.Get("/businesses/{name}", a.business)
	r.Get("/frozen", a.listFrozen)
	r.Get("/reserve", a.reserveBalance)
	r.Get("/settings", a.settings)

	r.Post("/transfers", a.transfer)
	r.Post("/wagers", a.wager)
	r.Post("/requests/deposit", a.requestDeposit)
	r.Post("/requests/withdraw", a.requestWithdraw)
	r.Post("/businesses", a.createBusiness)
	r.Post("/businesses/{name}/members", a.addMember)
	r.Delete("/businesses/{name}/members/{member}", a.removeMember)

	r.Post("/approvals", a.approve)
	r.Post("/rejections", a.reject)
	r.Delete("/businesses/{name}", a.deleteBusiness)
	r.Post("/freeze", a.freeze)
	r.Post("/unfreeze", a.unfreeze)
	r.Post("/prune", a.prune)
	r.Post("/settings/{flag}/toggle", a.toggleSetting)
	r.Post("/reserve/deposits", a.depositToReserve)
	r.Post("/credits", a.credit)
	r.Post("/debits", a.debit)

	return r
}

func (a *api) isStaff(r *http.Request) bool {
	return a.staffToken != "" && r.Header.Get("X-Staff-Token") == a.staffToken
}

func (a *api) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) balance(w http.ResponseWriter, r *http.Request) {
	ref, err := models.ParseRef(r.URL.Query().Get("ref"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	balance, err := a.engine.GetBalance(ref)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ref": ref, "balance": balance})
}

func (a *api) listAccounts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.ListAccounts())
}

func (a *api) listBusinesses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.ListBusinesses())
}

func (a *api) business(w http.ResponseWriter, r *http.Request) {
	biz, err := a.engine.GetBusiness(chi.URLParam(r, "name"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, biz)
}

func (a *api) listFrozen(w http.ResponseWriter, r *http.Request) {
	kind := models.RefKind(r.URL.Query().Get("kind"))
	if kind != models.RefPersonal && kind != models.RefBusiness {
		writeError(w, http.StatusBadRequest, errors.New("kind must be personal or business"))
		return
	}
	writeJSON(w, http.StatusOK, a.engine.ListFrozen(kind))
}

func (a *api) reserveBalance(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"balance": a.engine.ReserveBalance()})
}

func (a *api) settings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.Settings())
}

func (a *api) transfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Initiator string          `json:"initiator"`
		Amount    decimal.Decimal `json:"amount"`
		From      models.Ref      `json:"from"`
		To        models.Ref      `json:"to"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := amountValue(req.Amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := a.engine.Transfer(req.Initiator, amount, req.From, req.To); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

func (a *api) wager(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player string          `json:"player"`
		Amount decimal.Decimal `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := amountValue(req.Amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	result, err := a.engine.Wager(req.Player, amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *api) requestDeposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Requester string          `json:"requester"`
		Amount    decimal.Decimal `json:"amount"`
		Target    models.Ref      `json:"target"`
		ProofURL  string          `json:"proof_url"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := amountValue(req.Amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	pending, err := a.engine.RequestDeposit(req.Requester, amount, req.Target, req.ProofURL)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, pending)
}

func (a *api) requestWithdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Requester string          `json:"requester"`
		Amount    decimal.Decimal `json:"amount"`
		Target    models.Ref      `json:"target"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := amountValue(req.Amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	pending, err := a.engine.RequestWithdraw(req.Requester, amount, req.Target)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, pending)
}

func (a *api) createBusiness(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Owner string `json:"owner"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := a.engine.CreateBusiness(req.Name, req.Owner); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": models.NormalizeName(req.Name)})
}

func (a *api) addMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner  string `json:"owner"`
		Member string `json:"member"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := a.engine.AddMember(chi.URLParam(r, "name"), req.Owner, req.Member); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

func (a *api) removeMember(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	member := chi.URLParam(r, "member")
	owner := r.URL.Query().Get("owner")
	if err := a.engine.RemoveMember(name, owner, member); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (a *api) approve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Member   string             `json:"member"`
		Kind     models.RequestKind `json:"kind"`
		Amount   decimal.Decimal    `json:"amount"`
		Target   models.Ref         `json:"target"`
		ProofURL string             `json:"proof_url"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := amountValue(req.Amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	note, err := a.engine.Approve(a.isStaff(r), req.Member, req.Kind, amount, req.Target, req.ProofURL)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (a *api) reject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Member string             `json:"member"`
		Kind   models.RequestKind `json:"kind"`
		Target models.Ref         `json:"target"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	note, err := a.engine.Reject(a.isStaff(r), req.Member, req.Kind, req.Target)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (a *api) deleteBusiness(w http.ResponseWriter, r *http.Request) {
	if err := a.engine.DeleteBusiness(a.isStaff(r), chi.URLParam(r, "name")); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *api) freeze(w http.ResponseWriter, r *http.Request) {
	a.setFrozen(w, r, true)
}

func (a *api) unfreeze(w http.ResponseWriter, r *http.Request) {
	a.setFrozen(w, r, false)
}

func (a *api) setFrozen(w http.ResponseWriter, r *http.Request, frozen bool) {
	var req struct {
		Target models.Ref `json:"target"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	var err error
	if frozen {
		err = a.engine.Freeze(a.isStaff(r), req.Target)
	} else {
		err = a.engine.Unfreeze(a.isStaff(r), req.Target)
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"target": req.Target, "frozen": frozen})
}

func (a *api) prune(w http.ResponseWriter, r *http.Request) {
	if !a.isStaff(r) {
		writeEngineError(w, ledger.ErrNotAuthorized)
		return
	}
	var req struct {
		Kind models.RefKind `json:"kind"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	removed, err := a.engine.Prune(req.Kind)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (a *api) toggleSetting(w http.ResponseWriter, r *http.Request) {
	flag := chi.URLParam(r, "flag")
	enabled, err := a.engine.ToggleSetting(a.isStaff(r), flag)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"flag": flag, "enabled": enabled})
}

func (a *api) depositToReserve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := amountValue(req.Amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	balance, err := a.engine.DepositToReserve(a.isStaff(r), amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (a *api) credit(w http.ResponseWriter, r *http.Request) {
	a.adjust(w, r, true)
}

func (a *api) debit(w http.ResponseWriter, r *http.Request) {
	a.adjust(w, r, false)
}

// adjust is the staff-only direct balance adjustment.
func (a *api) adjust(w http.ResponseWriter, r *http.Request, credit bool) {
	if !a.isStaff(r) {
		writeEngineError(w, ledger.ErrNotAuthorized)
		return
	}
	var req struct {
		Target models.Ref      `json:"target"`
		Amount decimal.Decimal `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := amountValue(req.Amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	var balance int64
	if credit {
		balance, err = a.engine.Credit(req.Target, amount)
	} else {
		balance, err = a.engine.Debit(req.Target, amount)
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

// amountValue converts an API amount to whole units. Fractional values are
// rejected the same way non-positive ones are.
func amountValue(d decimal.Decimal) (int64, error) {
	if !d.IsInteger() || !d.BigInt().IsInt64() {
		return 0, ledger.ErrInvalidAmount
	}
	return d.BigInt().Int64(), nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("error encoding response", logger.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeEngineError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidName),
		errors.Is(err, ledger.ErrInvalidRequest),
		errors.Is(err, ledger.ErrProofRequired):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientReserve):
		return http.StatusPaymentRequired
	case errors.Is(err, ledger.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrAlreadyExists),
		errors.Is(err, ledger.ErrAlreadyMember),
		errors.Is(err, ledger.ErrNotMember),
		errors.Is(err, ledger.ErrNotFrozen):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrAccountFrozen),
		errors.Is(err, ledger.ErrBusinessFrozen):
		return http.StatusLocked
	case errors.Is(err, ledger.ErrFeatureDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, ledger.ErrBusy):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
