package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/guilhalves/spotlight/internal/repos/posts"
)

var _ posts.Posts = (*postsRepo)(nil)

type postsRepo struct{ db *sql.DB }

func New(db *sql.DB) *postsRepo {
	return &postsRepo{db: db}
}

func (r *postsRepo) Get(ctx context.Context, id int64) (*posts.Post, error) {
	var p posts.Post

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, content, type, created_at
		FROM posts
		WHERE id = $1
	`, id).Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &p.Type, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, posts.ErrPostNotFound
		}

		return nil, fmt.Errorf("get post: %w", err)
	}

	return &p, nil
}
