package transactions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// The balance counts confirmed rows plus unconfirmed ones still inside the
// grace window, so an in-flight debit keeps reducing the balance while its
// confirm round trip is outstanding. now() is the database clock on purpose.
const balanceQuery = `
	SELECT COALESCE(SUM(coins), 0)
	FROM transactions
	WHERE user_id = $1
	  AND deleted_at IS NULL
	  AND (confirmed OR created_at >= now() - make_interval(secs => $2))
`

func (r *transactionsRepo) Balance(ctx context.Context, userID int64, grace time.Duration) (decimal.Decimal, error) {
	var sum decimal.Decimal

	err := r.db.QueryRowContext(ctx, balanceQuery, userID, grace.Seconds()).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum balance: %w", err)
	}

	return sum, nil
}

func (r *transactionsRepo) BalanceInTx(tx *sql.Tx, userID int64, grace time.Duration) (decimal.Decimal, error) {
	var sum decimal.Decimal

	err := tx.QueryRow(balanceQuery, userID, grace.Seconds()).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum balance in tx: %w", err)
	}

	return sum, nil
}
