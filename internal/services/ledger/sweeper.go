package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/guilhalves/spotlight/internal/metrics"
)

// RunSweeper periodically reaps unconfirmed debits that outlived the grace
// window. Such rows exist when a saga died between debit and confirm: they
// already stopped counting toward balances, the sweep just retires them and
// leaves an audit trail for reconciliation.
//
// Blocks until ctx is canceled.
func (s *LedgerService) RunSweeper(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := s.txns.SweepExpired(ctx, s.cfg.GraceWindow)
			if err != nil {
				slog.Error("sweep of expired debits failed", "error", err)
				continue
			}

			if swept > 0 {
				metrics.SweptTransactions.Add(float64(swept))
				slog.Warn("reaped abandoned unconfirmed debits",
					"count", swept,
					"grace_window", s.cfg.GraceWindow.String(),
				)
			}
		}
	}
}
