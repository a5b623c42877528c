package transactions

import (
	"context"
	"fmt"
	"time"
)

// SweepExpired reaps unconfirmed debits that fell out of the grace window.
// They already stopped counting toward any balance; marking them deleted
// records that they were abandoned rather than leaving them in limbo.
func (r *transactionsRepo) SweepExpired(ctx context.Context, grace time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET deleted_at = now(), updated_at = now()
		WHERE type = 'out'
		  AND NOT confirmed
		  AND deleted_at IS NULL
		  AND created_at < now() - make_interval(secs => $1)
	`, grace.Seconds())
	if err != nil {
		return 0, fmt.Errorf("sweep expired: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return affected, nil
}
