package transactions

import (
	"context"
	"fmt"
)

// Confirm flips the row with the given id together with every row whose
// parent is that id, in a single UPDATE. Re-confirming is a no-op that still
// matches the rows, which keeps the call idempotent.
func (r *transactionsRepo) Confirm(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET confirmed = TRUE, updated_at = now()
		WHERE (id = $1 OR transaction_id = $1)
		  AND deleted_at IS NULL
	`, id)
	if err != nil {
		return 0, fmt.Errorf("confirm transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return affected, nil
}
