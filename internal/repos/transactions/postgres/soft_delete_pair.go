package transactions

import (
	"context"
	"fmt"

	"github.com/guilhalves/spotlight/internal/repos/transactions"
)

func (r *transactionsRepo) SoftDeletePair(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET deleted_at = now(), updated_at = now()
		WHERE (id = $1 OR transaction_id = $1)
		  AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("soft delete pair: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return transactions.ErrTransactionNotFound
	}

	return nil
}
