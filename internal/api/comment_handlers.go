package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/guilhalves/spotlight/internal/auth"
	"github.com/guilhalves/spotlight/internal/clients"
	commentsrepo "github.com/guilhalves/spotlight/internal/repos/comments"
	postsrepo "github.com/guilhalves/spotlight/internal/repos/posts"
	"github.com/guilhalves/spotlight/internal/services/comments"
)

// CommentHandlers wraps a CommentService and exposes HTTP handlers.
type CommentHandlers struct {
	svc *comments.CommentService
}

func NewCommentHandlers(svc *comments.CommentService) *CommentHandlers {
	return &CommentHandlers{svc: svc}
}

type createCommentRequest struct {
	PostID  int64  `json:"post_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Coins   int64  `json:"coins"`
}

type commentResponse struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	PostID      int64      `json:"post_id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Coins       int64      `json:"coins"`
	Highlighted bool       `json:"highlighted"`
	HighlightUp *time.Time `json:"highlight_up,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toCommentResponse(c commentsrepo.Comment) commentResponse {
	return commentResponse{
		ID:          c.ID,
		UserID:      c.UserID,
		PostID:      c.PostID,
		Title:       c.Title,
		Content:     c.Content,
		Coins:       c.Coins,
		Highlighted: c.HighlightUp != nil && c.HighlightUp.After(time.Now()),
		HighlightUp: c.HighlightUp,
		CreatedAt:   c.CreatedAt,
	}
}

// CreateCommentHandler handles POST /comments, running the full creation
// saga.
func (h *CommentHandlers) CreateCommentHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	var req createCommentRequest

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(&req)
	if err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "empty body")
			return
		}

		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.PostID <= 0 {
		writeError(w, http.StatusBadRequest, "post_id required")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content required")
		return
	}
	if req.Coins < 0 {
		writeError(w, http.StatusBadRequest, "coins must not be negative")
		return
	}

	created, err := h.svc.Create(r.Context(), p, comments.CreateRequest{
		PostID:  req.PostID,
		Title:   req.Title,
		Content: req.Content,
		Coins:   req.Coins,
	})
	if err != nil {
		switch {
		case errors.Is(err, comments.ErrTooManyComments):
			writeError(w, http.StatusForbidden, "too many comments, slow down")
		case errors.Is(err, comments.ErrNotAllowed):
			writeError(w, http.StatusForbidden, "commenting on this post requires a subscription or coins")
		case errors.Is(err, clients.ErrInsufficientBalance):
			writeError(w, http.StatusPaymentRequired, "insufficient balance")
		case errors.Is(err, postsrepo.ErrPostNotFound):
			writeError(w, http.StatusNotFound, "post not found")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}

		return
	}

	writeJSON(w, http.StatusCreated, toCommentResponse(*created))
}

// ListCommentsHandler handles GET /comments/post/{postID}.
func (h *CommentHandlers) ListCommentsHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := parseIDFromPath(r, "postID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid postID in path")
		return
	}

	list, err := h.svc.ListByPost(r.Context(), postID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"comments": lo.Map(list, func(c commentsrepo.Comment, _ int) commentResponse {
			return toCommentResponse(c)
		}),
	})
}
