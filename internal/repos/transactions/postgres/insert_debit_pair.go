package transactions

import (
	"database/sql"
	"fmt"

	"github.com/guilhalves/spotlight/internal/repos/transactions"
)

func (r *transactionsRepo) InsertDebitPair(tx *sql.Tx, pair transactions.DebitPair) (int64, error) {
	var primaryID int64

	err := tx.QueryRow(`
		INSERT INTO transactions (user_id, comment_id, coins, type, tax)
		VALUES ($1, $2, $3, 'out', $4)
		RETURNING id
	`, pair.UserID, pair.CommentID, pair.Coins.Neg(), pair.TaxRate).Scan(&primaryID)
	if err != nil {
		return 0, fmt.Errorf("insert debit: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO transactions (user_id, comment_id, transaction_id, coins, type, tax, system_transaction)
		VALUES ($1, $2, $3, $4, 'out', 0, TRUE)
	`, pair.UserID, pair.CommentID, primaryID, pair.TaxCoins.Neg())
	if err != nil {
		return 0, fmt.Errorf("insert system transaction: %w", err)
	}

	return primaryID, nil
}
