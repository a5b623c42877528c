package transactions

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guilhalves/spotlight/internal/infra/pgtestutil"
	"github.com/guilhalves/spotlight/internal/repos/transactions"
)

const grace = 10 * time.Minute

func insertPair(t *testing.T, db *sql.DB, pair transactions.DebitPair) int64 {
	t.Helper()

	repo := New(db)

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}

	id, err := repo.InsertDebitPair(tx, pair)
	if err != nil {
		_ = tx.Rollback()
		t.Fatalf("insert debit pair: %v", err)
	}

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	return id
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTransactions_InsertDebitPair(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)

	primaryID := insertPair(t, db, transactions.DebitPair{
		UserID:    1,
		CommentID: 7,
		Coins:     d("50"),
		TaxRate:   d("0.05"),
		TaxCoins:  d("2.5"),
	})

	primary, err := repo.Get(context.Background(), primaryID)
	if err != nil {
		t.Fatalf("get primary: %v", err)
	}

	if !primary.Coins.Equal(d("-50")) {
		t.Fatalf("primary coins: want -50, got %s", primary.Coins)
	}
	if !primary.Tax.Equal(d("0.05")) {
		t.Fatalf("primary tax snapshot: want 0.05, got %s", primary.Tax)
	}
	if primary.SystemTransaction || primary.Confirmed {
		t.Fatalf("primary must be a non-system unconfirmed debit: %+v", primary)
	}
	if primary.CommentID == nil || *primary.CommentID != 7 {
		t.Fatalf("primary comment_id: want 7, got %v", primary.CommentID)
	}

	var (
		childCoins  decimal.Decimal
		childSystem bool
		childTax    decimal.Decimal
	)

	err = db.QueryRow(`
		SELECT coins, system_transaction, tax
		FROM transactions
		WHERE transaction_id = $1
	`, primaryID).Scan(&childCoins, &childSystem, &childTax)
	if err != nil {
		t.Fatalf("load system child: %v", err)
	}

	if !childCoins.Equal(d("-2.5")) {
		t.Fatalf("child coins: want -2.5, got %s", childCoins)
	}
	if !childSystem {
		t.Fatal("child must be a system transaction")
	}
	if !childTax.IsZero() {
		t.Fatalf("child tax: want 0, got %s", childTax)
	}
}

func TestTransactions_ConfirmCascadesToChildren(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)

	primaryID := insertPair(t, db, transactions.DebitPair{
		UserID: 1, CommentID: 7, Coins: d("50"), TaxRate: d("0.05"), TaxCoins: d("2.5"),
	})

	affected, err := repo.Confirm(context.Background(), primaryID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if affected != 2 {
		t.Fatalf("confirm affected: want 2, got %d", affected)
	}

	var unconfirmed int
	err = db.QueryRow(`SELECT count(*) FROM transactions WHERE NOT confirmed`).Scan(&unconfirmed)
	if err != nil {
		t.Fatalf("count unconfirmed: %v", err)
	}
	if unconfirmed != 0 {
		t.Fatalf("want all rows confirmed, %d still unconfirmed", unconfirmed)
	}

	// Re-confirming is idempotent: same rows match again.
	affected, err = repo.Confirm(context.Background(), primaryID)
	if err != nil {
		t.Fatalf("re-confirm: %v", err)
	}
	if affected != 2 {
		t.Fatalf("re-confirm affected: want 2, got %d", affected)
	}
}

func TestTransactions_Balance(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	ctx := context.Background()

	_, err := repo.InsertCredit(ctx, 1, d("500"))
	if err != nil {
		t.Fatalf("insert credit: %v", err)
	}

	primaryID := insertPair(t, db, transactions.DebitPair{
		UserID: 1, CommentID: 7, Coins: d("50"), TaxRate: d("0.05"), TaxCoins: d("2.5"),
	})

	// Unconfirmed but fresh: both debit rows count.
	balance, err := repo.Balance(ctx, 1, grace)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(d("447.5")) {
		t.Fatalf("balance with in-grace debit: want 447.5, got %s", balance)
	}

	// Push the pair out of the grace window; unconfirmed rows stop counting.
	_, err = db.Exec(`
		UPDATE transactions
		SET created_at = now() - interval '1 hour'
		WHERE id = $1 OR transaction_id = $1
	`, primaryID)
	if err != nil {
		t.Fatalf("backdate pair: %v", err)
	}

	balance, err = repo.Balance(ctx, 1, grace)
	if err != nil {
		t.Fatalf("balance after lapse: %v", err)
	}
	if !balance.Equal(d("500")) {
		t.Fatalf("balance after lapse: want 500, got %s", balance)
	}

	// Confirming brings them back regardless of age.
	_, err = repo.Confirm(ctx, primaryID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	balance, err = repo.Balance(ctx, 1, grace)
	if err != nil {
		t.Fatalf("balance after confirm: %v", err)
	}
	if !balance.Equal(d("447.5")) {
		t.Fatalf("balance after confirm: want 447.5, got %s", balance)
	}

	// Other users are unaffected.
	other, err := repo.Balance(ctx, 2, grace)
	if err != nil {
		t.Fatalf("balance other user: %v", err)
	}
	if !other.IsZero() {
		t.Fatalf("other user balance: want 0, got %s", other)
	}
}

func TestTransactions_SoftDeletePair(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	ctx := context.Background()

	_, err := repo.InsertCredit(ctx, 1, d("100"))
	if err != nil {
		t.Fatalf("insert credit: %v", err)
	}

	primaryID := insertPair(t, db, transactions.DebitPair{
		UserID: 1, CommentID: 7, Coins: d("50"), TaxRate: d("0.05"), TaxCoins: d("2.5"),
	})

	err = repo.SoftDeletePair(ctx, primaryID)
	if err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	// Deleted rows drop out of the balance immediately.
	balance, err := repo.Balance(ctx, 1, grace)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(d("100")) {
		t.Fatalf("balance after delete: want 100, got %s", balance)
	}

	// Rows stay in the table for audit.
	var total int
	err = db.QueryRow(`SELECT count(*) FROM transactions WHERE deleted_at IS NOT NULL`).Scan(&total)
	if err != nil {
		t.Fatalf("count deleted: %v", err)
	}
	if total != 2 {
		t.Fatalf("want 2 soft-deleted rows, got %d", total)
	}

	// Deleting again finds nothing.
	err = repo.SoftDeletePair(ctx, primaryID)
	if !errors.Is(err, transactions.ErrTransactionNotFound) {
		t.Fatalf("second delete: want ErrTransactionNotFound, got %v", err)
	}
}

func TestTransactions_SweepExpired(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	ctx := context.Background()

	staleID := insertPair(t, db, transactions.DebitPair{
		UserID: 1, CommentID: 7, Coins: d("50"), TaxRate: d("0.05"), TaxCoins: d("2.5"),
	})
	_ = insertPair(t, db, transactions.DebitPair{
		UserID: 1, CommentID: 8, Coins: d("10"), TaxRate: d("0.05"), TaxCoins: d("0.5"),
	})

	confirmedID := insertPair(t, db, transactions.DebitPair{
		UserID: 2, CommentID: 9, Coins: d("20"), TaxRate: d("0.05"), TaxCoins: d("1"),
	})
	_, err := repo.Confirm(ctx, confirmedID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// Stale pair and the confirmed pair are both old; only the
	// unconfirmed one is sweepable.
	_, err = db.Exec(`
		UPDATE transactions
		SET created_at = now() - interval '1 hour'
		WHERE id IN ($1, $2) OR transaction_id IN ($1, $2)
	`, staleID, confirmedID)
	if err != nil {
		t.Fatalf("backdate: %v", err)
	}

	swept, err := repo.SweepExpired(ctx, grace)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept != 2 {
		t.Fatalf("swept rows: want 2, got %d", swept)
	}

	stale, err := repo.Get(ctx, staleID)
	if err != nil {
		t.Fatalf("get stale: %v", err)
	}
	if stale.DeletedAt == nil {
		t.Fatal("stale pair must be soft-deleted by the sweep")
	}

	confirmed, err := repo.Get(ctx, confirmedID)
	if err != nil {
		t.Fatalf("get confirmed: %v", err)
	}
	if confirmed.DeletedAt != nil {
		t.Fatal("confirmed pair must survive the sweep")
	}
}

func TestTransactions_GetNotFound(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)

	_, err := repo.Get(context.Background(), 424242)
	if !errors.Is(err, transactions.ErrTransactionNotFound) {
		t.Fatalf("want ErrTransactionNotFound, got %v", err)
	}
}
