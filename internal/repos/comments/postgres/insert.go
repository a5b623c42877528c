package comments

import (
	"context"
	"fmt"

	"github.com/guilhalves/spotlight/internal/infra/pgutils"
	"github.com/guilhalves/spotlight/internal/repos/comments"
	"github.com/guilhalves/spotlight/internal/repos/posts"
)

func (r *commentsRepo) Insert(ctx context.Context, c comments.Comment) (*comments.Comment, error) {
	inserted := c

	// highlight_up and created_at come from the same statement clock, so the
	// "+ coins minutes" invariant holds exactly.
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO comments (user_id, post_id, title, content, coins, highlight_up)
		VALUES ($1, $2, $3, $4, $5,
			CASE WHEN $5::bigint > 0 THEN now() + make_interval(mins => $5::int) END)
		RETURNING id, created_at, highlight_up
	`, c.UserID, c.PostID, c.Title, c.Content, c.Coins).
		Scan(&inserted.ID, &inserted.CreatedAt, &inserted.HighlightUp)
	if err != nil {
		// The post may have been deleted between the orchestrator's lookup
		// and this insert; the FK violation is the authoritative answer.
		if pgutils.IsForeignKeyViolation(err) {
			return nil, posts.ErrPostNotFound
		}

		return nil, fmt.Errorf("insert comment: %w", err)
	}

	return &inserted, nil
}
