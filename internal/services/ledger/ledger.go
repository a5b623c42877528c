// Package ledger owns coin transactions and balance arithmetic.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guilhalves/spotlight/internal/auth"
	"github.com/guilhalves/spotlight/internal/infra/pgutils"
	"github.com/guilhalves/spotlight/internal/metrics"
	"github.com/guilhalves/spotlight/internal/repos/transactions"
	pgtransactions "github.com/guilhalves/spotlight/internal/repos/transactions/postgres"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrForbidden           = errors.New("operation not allowed on this transaction")
)

type Config struct {
	// TaxRate is the system tax applied to every debit, snapshotted onto
	// the transaction row so later rate changes never retroact.
	TaxRate decimal.Decimal

	// GraceWindow is how long an unconfirmed debit keeps counting against
	// the balance.
	GraceWindow time.Duration
}

type LedgerService struct {
	db   *sql.DB
	txns transactions.Transactions
	cfg  Config
}

func New(db *sql.DB, cfg Config) *LedgerService {
	return &LedgerService{
		db:   db,
		txns: pgtransactions.New(db),
		cfg:  cfg,
	}
}

// Debit spends coins on behalf of p for the given comment. It runs in a
// single DB transaction under a per-user advisory lock:
//
// 1) Lock the user's balance aggregate.
// 2) Check balance >= coins * (1 + tax).
// 3) Insert the primary debit and its system tax child together.
//
// The lock makes two concurrent debits from the same user serialize, so both
// cannot pass the balance check against the same funds.
func (s *LedgerService) Debit(ctx context.Context, p auth.Principal, commentID int64, coins decimal.Decimal) (int64, error) {
	if !coins.IsPositive() {
		return 0, fmt.Errorf("debit of %s coins: %w", coins, ErrForbidden)
	}

	required := coins.Mul(decimal.NewFromInt(1).Add(s.cfg.TaxRate))

	var primaryID int64

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		err := pgutils.AdvisoryLock(tx, p.ID)
		if err != nil {
			return fmt.Errorf("lock user balance: %w", err)
		}

		balance, err := s.txns.BalanceInTx(tx, p.ID, s.cfg.GraceWindow)
		if err != nil {
			return fmt.Errorf("check balance: %w", err)
		}

		if balance.LessThan(required) {
			return ErrInsufficientBalance
		}

		primaryID, err = s.txns.InsertDebitPair(tx, transactions.DebitPair{
			UserID:    p.ID,
			CommentID: commentID,
			Coins:     coins,
			TaxRate:   s.cfg.TaxRate,
			TaxCoins:  coins.Mul(s.cfg.TaxRate).Round(2),
		})
		if err != nil {
			return fmt.Errorf("insert debit pair: %w", err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			metrics.LedgerDebits.WithLabelValues("insufficient").Inc()
		} else {
			metrics.LedgerDebits.WithLabelValues("error").Inc()
		}

		return 0, fmt.Errorf("debit: %w", err)
	}

	metrics.LedgerDebits.WithLabelValues("ok").Inc()

	return primaryID, nil
}

// Confirm flips the named transaction and its system children to confirmed.
// Only the owner may confirm, and only primary out-transactions qualify.
func (s *LedgerService) Confirm(ctx context.Context, p auth.Principal, id int64) error {
	t, err := s.txns.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	if t.DeletedAt != nil {
		return transactions.ErrTransactionNotFound
	}

	if t.UserID != p.ID || t.SystemTransaction || t.Type == transactions.TypeIn {
		return ErrForbidden
	}

	affected, err := s.txns.Confirm(ctx, id)
	if err != nil {
		return fmt.Errorf("confirm: %w", err)
	}

	if affected == 0 {
		return transactions.ErrTransactionNotFound
	}

	return nil
}

// Delete soft-deletes the named transaction and its system children. It is
// the ledger half of saga compensation and therefore only touches
// unconfirmed debits owned by the caller. Deleting an already deleted
// transaction is a no-op so retried compensations stay safe.
func (s *LedgerService) Delete(ctx context.Context, p auth.Principal, id int64) error {
	t, err := s.txns.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	if t.DeletedAt != nil {
		return nil
	}

	if t.UserID != p.ID || t.SystemTransaction || t.Confirmed {
		return ErrForbidden
	}

	err = s.txns.SoftDeletePair(ctx, id)
	if err != nil {
		return fmt.Errorf("delete pair: %w", err)
	}

	return nil
}

// Credit records a top-up for p; credits are confirmed at creation and carry
// no tax child.
func (s *LedgerService) Credit(ctx context.Context, p auth.Principal, coins decimal.Decimal) (int64, error) {
	if !coins.IsPositive() {
		return 0, fmt.Errorf("credit of %s coins: %w", coins, ErrForbidden)
	}

	id, err := s.txns.InsertCredit(ctx, p.ID, coins)
	if err != nil {
		return 0, fmt.Errorf("credit: %w", err)
	}

	return id, nil
}

// RawBalance is the stored sum: confirmed rows plus in-grace unconfirmed ones.
func (s *LedgerService) RawBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	balance, err := s.txns.Balance(ctx, userID, s.cfg.GraceWindow)
	if err != nil {
		return decimal.Zero, fmt.Errorf("raw balance: %w", err)
	}

	return balance, nil
}

// ClientBalance is what users see: the raw balance discounted by the system
// tax they would pay to spend it.
func (s *LedgerService) ClientBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	raw, err := s.RawBalance(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	return raw.Mul(decimal.NewFromInt(1).Sub(s.cfg.TaxRate)), nil
}
