package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/guilhalves/spotlight/internal/auth"
	"github.com/guilhalves/spotlight/internal/repos/transactions"
	"github.com/guilhalves/spotlight/internal/services/ledger"
)

// LedgerHandlers wraps a LedgerService and exposes HTTP handlers.
type LedgerHandlers struct {
	svc *ledger.LedgerService
}

func NewLedgerHandlers(svc *ledger.LedgerService) *LedgerHandlers {
	return &LedgerHandlers{svc: svc}
}

type transactionRequest struct {
	CommentID int64  `json:"comment_id"`
	Coins     int64  `json:"coins"`
	Type      string `json:"type"`
}

// CreateTransactionHandler handles POST /transactions. Type "out" debits
// coins against a comment, type "in" credits a top-up.
func (h *LedgerHandlers) CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	var req transactionRequest

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(&req)
	if err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "empty body")
			return
		}

		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Coins <= 0 {
		writeError(w, http.StatusBadRequest, "coins must be positive")
		return
	}

	coins := decimal.NewFromInt(req.Coins)

	var id int64

	switch req.Type {
	case "out":
		if req.CommentID <= 0 {
			writeError(w, http.StatusBadRequest, "comment_id required for debits")
			return
		}

		id, err = h.svc.Debit(r.Context(), p, req.CommentID, coins)
	case "in":
		id, err = h.svc.Credit(r.Context(), p, coins)
	default:
		writeError(w, http.StatusBadRequest, "type must be in or out")
		return
	}

	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			writeError(w, http.StatusPaymentRequired, "insufficient balance")
			return
		}

		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// ConfirmTransactionHandler handles POST /transactions/confirm/{id}.
func (h *LedgerHandlers) ConfirmTransactionHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	id, err := parseIDFromPath(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id in path")
		return
	}

	err = h.svc.Confirm(r.Context(), p, id)
	if err != nil {
		switch {
		case errors.Is(err, transactions.ErrTransactionNotFound):
			writeError(w, http.StatusNotFound, "transaction not found")
		case errors.Is(err, ledger.ErrForbidden):
			writeError(w, http.StatusForbidden, "not allowed")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeleteTransactionHandler handles DELETE /transactions/{id}.
func (h *LedgerHandlers) DeleteTransactionHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	id, err := parseIDFromPath(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id in path")
		return
	}

	err = h.svc.Delete(r.Context(), p, id)
	if err != nil {
		switch {
		case errors.Is(err, transactions.ErrTransactionNotFound):
			writeError(w, http.StatusNotFound, "transaction not found")
		case errors.Is(err, ledger.ErrForbidden):
			writeError(w, http.StatusForbidden, "not allowed")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetBalanceHandler handles GET /balance. It reports the client-visible
// balance: the stored sum discounted by the tax the user would pay to
// spend it.
func (h *LedgerHandlers) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	balance, err := h.svc.ClientBalance(r.Context(), p.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":      p.ID,
		"userBalance": balance.InexactFloat64(),
	})
}
