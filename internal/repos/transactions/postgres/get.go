package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/guilhalves/spotlight/internal/repos/transactions"
)

func (r *transactionsRepo) Get(ctx context.Context, id int64) (*transactions.Transaction, error) {
	var t transactions.Transaction

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, comment_id, transaction_id, coins, type,
		       system_transaction, tax, confirmed, created_at, deleted_at
		FROM transactions
		WHERE id = $1
	`, id).Scan(
		&t.ID, &t.UserID, &t.CommentID, &t.ParentID, &t.Coins, &t.Type,
		&t.SystemTransaction, &t.Tax, &t.Confirmed, &t.CreatedAt, &t.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transactions.ErrTransactionNotFound
		}

		return nil, fmt.Errorf("get transaction: %w", err)
	}

	return &t, nil
}
