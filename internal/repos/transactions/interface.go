package transactions

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrTransactionNotFound = errors.New("transaction not found")

type Type string

const (
	TypeIn  Type = "in"
	TypeOut Type = "out"
)

// Transaction mirrors a row of the transactions table. Coins are signed:
// negative for debits, positive for credits.
type Transaction struct {
	ID                int64
	UserID            int64
	CommentID         *int64
	ParentID          *int64
	Coins             decimal.Decimal
	Type              Type
	SystemTransaction bool
	Tax               decimal.Decimal
	Confirmed         bool
	CreatedAt         time.Time
	DeletedAt         *time.Time
}

// DebitPair describes a user debit plus its system tax side-entry.
// Amounts are positive here; the repository stores them negated.
type DebitPair struct {
	UserID    int64
	CommentID int64
	Coins     decimal.Decimal // amount the user spends
	TaxRate   decimal.Decimal // rate snapshot stored on the primary row
	TaxCoins  decimal.Decimal // amount of the system side-entry
}

type Transactions interface {
	// InsertDebitPair writes the primary debit and its system child inside
	// the given transaction; both commit together or neither does.
	InsertDebitPair(tx *sql.Tx, pair DebitPair) (int64, error)

	// InsertCredit writes a confirmed positive transaction (top-up).
	InsertCredit(ctx context.Context, userID int64, coins decimal.Decimal) (int64, error)

	Get(ctx context.Context, id int64) (*Transaction, error)

	// Confirm flips the named transaction and every child whose parent it is
	// in one atomic update. Returns the number of rows touched.
	Confirm(ctx context.Context, id int64) (int64, error)

	// SoftDeletePair marks the named transaction and its children deleted.
	SoftDeletePair(ctx context.Context, id int64) error

	// Balance sums coins that are confirmed or still inside the grace
	// window. The window is evaluated against the database clock, not the
	// caller's, so skewed application clocks cannot widen it.
	Balance(ctx context.Context, userID int64, grace time.Duration) (decimal.Decimal, error)

	// BalanceInTx is Balance evaluated inside an open transaction, for use
	// under the per-user debit lock.
	BalanceInTx(tx *sql.Tx, userID int64, grace time.Duration) (decimal.Decimal, error)

	// SweepExpired soft-deletes unconfirmed debits that fell out of the
	// grace window and returns how many rows it reaped.
	SweepExpired(ctx context.Context, grace time.Duration) (int64, error)
}
