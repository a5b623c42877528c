package comments

import (
	"context"
	"fmt"

	"github.com/guilhalves/spotlight/internal/repos/comments"
)

func (r *commentsRepo) HardDelete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM comments
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("hard delete comment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return comments.ErrCommentNotFound
	}

	return nil
}
