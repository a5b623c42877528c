package comments

import (
	"database/sql"

	"github.com/guilhalves/spotlight/internal/repos/comments"
)

var _ comments.Comments = (*commentsRepo)(nil)

type commentsRepo struct{ db *sql.DB }

func New(db *sql.DB) *commentsRepo {
	return &commentsRepo{db: db}
}
