package transactions

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Credits carry no tax and are confirmed at creation.
func (r *transactionsRepo) InsertCredit(ctx context.Context, userID int64, coins decimal.Decimal) (int64, error) {
	var id int64

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO transactions (user_id, coins, type, tax, confirmed)
		VALUES ($1, $2, 'in', 0, TRUE)
		RETURNING id
	`, userID, coins).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert credit: %w", err)
	}

	return id, nil
}
