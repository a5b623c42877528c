package comments

import (
	"context"
	"fmt"

	"github.com/guilhalves/spotlight/internal/repos/comments"
)

// ListByPost sorts with an explicit composite key: comments whose highlight
// is still active rank by the coins paid, everything else ranks as zero and
// falls back to recency.
func (r *commentsRepo) ListByPost(ctx context.Context, postID int64) ([]comments.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, post_id, title, content, coins, highlight_up, created_at
		FROM comments
		WHERE post_id = $1
		  AND deleted_at IS NULL
		ORDER BY
			CASE WHEN highlight_up > now() THEN coins ELSE 0 END DESC,
			created_at DESC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var result []comments.Comment

	for rows.Next() {
		var c comments.Comment

		err = rows.Scan(&c.ID, &c.UserID, &c.PostID, &c.Title, &c.Content,
			&c.Coins, &c.HighlightUp, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}

		result = append(result, c)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return result, nil
}
