package comments

import (
	"context"
	"errors"
	"time"
)

var ErrCommentNotFound = errors.New("comment not found")

// Comment is a stored comment. HighlightUp is set exactly when Coins > 0 and
// marks the moment the paid highlight expires (created_at + coins minutes).
type Comment struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	PostID      int64      `json:"post_id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Coins       int64      `json:"coins"`
	HighlightUp *time.Time `json:"highlight_up"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Comments interface {
	// Insert persists the comment, computing highlight_up from coins on the
	// database clock so it stays consistent with created_at. Returns
	// posts.ErrPostNotFound when the post vanished since it was looked up.
	Insert(ctx context.Context, c Comment) (*Comment, error)

	// HardDelete removes the row entirely; used by saga compensation.
	HardDelete(ctx context.Context, id int64) error

	// ListByPost returns live comments for a post, currently highlighted
	// ones first (by paid coins), then by recency.
	ListByPost(ctx context.Context, postID int64) ([]Comment, error)
}
