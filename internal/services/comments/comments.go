// Package comments orchestrates highlighted-comment creation across the
// comment store, the ledger, the users service and the notification gateway.
//
// The create flow is a compensating saga: once a step has committed on a
// remote resource, any later failure unwinds every committed step in reverse
// order before the error is returned. There is no retry queue; a
// compensation that itself fails is reported as a consistency anomaly for
// manual reconciliation.
package comments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guilhalves/spotlight/internal/auth"
	"github.com/guilhalves/spotlight/internal/clients"
	"github.com/guilhalves/spotlight/internal/metrics"
	commentsrepo "github.com/guilhalves/spotlight/internal/repos/comments"
	postsrepo "github.com/guilhalves/spotlight/internal/repos/posts"
	"github.com/guilhalves/spotlight/internal/saga"
)

var (
	ErrTooManyComments = errors.New("too many comments in the current window")
	ErrNotAllowed      = errors.New("user may not comment on this post")
)

// RateLimiter is the per-user comment cap consulted before and fed after
// the saga.
type RateLimiter interface {
	TooMany(userID int64) (bool, error)
	RecordComment(userID, postID, commentID int64, at time.Time) error
}

// ConsistencyAnomalyError reports a saga whose compensation partially
// failed: some committed artifacts survived and need manual cleanup.
type ConsistencyAnomalyError struct {
	FailedStep string
	Cause      error
	Anomalies  []saga.Anomaly
}

func (e *ConsistencyAnomalyError) Error() string {
	return fmt.Sprintf("comment saga failed at %s and %d compensation(s) also failed: %v",
		e.FailedStep, len(e.Anomalies), e.Cause)
}

func (e *ConsistencyAnomalyError) Unwrap() error {
	return e.Cause
}

type CreateRequest struct {
	PostID  int64
	Title   string
	Content string
	Coins   int64
}

type CommentService struct {
	comments      commentsrepo.Comments
	posts         postsrepo.Posts
	ledger        clients.Ledger
	users         clients.Users
	notifications clients.Notifications
	limiter       RateLimiter
}

func New(
	comments commentsrepo.Comments,
	posts postsrepo.Posts,
	ledger clients.Ledger,
	users clients.Users,
	notifications clients.Notifications,
	limiter RateLimiter,
) *CommentService {
	return &CommentService{
		comments:      comments,
		posts:         posts,
		ledger:        ledger,
		users:         users,
		notifications: notifications,
		limiter:       limiter,
	}
}

// Create runs the comment-creation saga:
//
//	rate check -> permission check -> balance check -> persist comment ->
//	debit ledger -> notify post author -> confirm ledger -> record marker
//
// Failures before the comment is persisted return with no side effects.
// Failures after unwind whatever already committed.
func (s *CommentService) Create(ctx context.Context, p auth.Principal, req CreateRequest) (*commentsrepo.Comment, error) {
	// RATE_CHECK
	tooMany, err := s.limiter.TooMany(p.ID)
	if err != nil {
		return nil, fmt.Errorf("rate check: %w", err)
	}

	if tooMany {
		return nil, ErrTooManyComments
	}

	post, err := s.posts.Get(ctx, req.PostID)
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}

	// PERMISSION_CHECK
	allowed, err := s.canComment(ctx, p, post.UserID, req.Coins)
	if err != nil {
		return nil, fmt.Errorf("permission check: %w", err)
	}

	if !allowed {
		return nil, ErrNotAllowed
	}

	// BALANCE_CHECK
	if req.Coins > 0 {
		balance, err := s.ledger.Balance(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("balance check: %w", err)
		}

		if balance.LessThan(decimal.NewFromInt(req.Coins)) {
			return nil, clients.ErrInsufficientBalance
		}
	}

	var log saga.Log

	// COMMENT_PERSISTED
	created, err := s.comments.Insert(ctx, commentsrepo.Comment{
		UserID:  p.ID,
		PostID:  req.PostID,
		Title:   req.Title,
		Content: req.Content,
		Coins:   req.Coins,
	})
	if err != nil {
		return nil, fmt.Errorf("persist comment: %w", err)
	}

	log.Push("comment", func(ctx context.Context) error {
		return s.comments.HardDelete(ctx, created.ID)
	})

	// LEDGER_DEBITED
	var transactionID int64

	if req.Coins > 0 {
		transactionID, err = s.ledger.Debit(ctx, p, created.ID, req.Coins)
		if err != nil {
			return nil, s.fail(ctx, "ledger_debit", &log, err)
		}

		log.Push("debit", func(ctx context.Context) error {
			return s.ledger.Delete(ctx, p, transactionID)
		})
	}

	// NOTIFIED
	author, err := s.users.GetUser(ctx, p, post.UserID)
	if err != nil {
		return nil, s.fail(ctx, "notify", &log, err)
	}

	notificationID, err := s.notifications.Create(ctx, p, clients.Notification{
		To:         post.UserID,
		MailTo:     author.Email,
		Content:    fmt.Sprintf("%s commented on your post %q", p.Name, post.Title),
		Identifier: created.ID,
	})
	if err != nil {
		return nil, s.fail(ctx, "notify", &log, err)
	}

	log.Push("notification", func(ctx context.Context) error {
		return s.notifications.Delete(ctx, p, notificationID)
	})

	// LEDGER_CONFIRMED
	if req.Coins > 0 {
		// Once confirm is issued the debit may no longer be deleted safely:
		// either it confirmed, or it stays unconfirmed and lapses past the
		// grace window on its own.
		log.Discard("debit")

		err = s.ledger.Confirm(ctx, p, transactionID)
		if err != nil {
			return nil, s.fail(ctx, "ledger_confirm", &log, err)
		}
	}

	// DONE: only fully committed comments count against the rate limit.
	err = s.limiter.RecordComment(p.ID, post.ID, created.ID, created.CreatedAt)
	if err != nil {
		slog.Warn("failed to record rate-limit marker", "user_id", p.ID, "comment_id", created.ID, "error", err)
	}

	metrics.CommentsCreated.WithLabelValues(fmt.Sprintf("%t", req.Coins > 0)).Inc()

	return created, nil
}

// canComment applies the permission ladder: paid highlights always pass,
// subscribers always pass, and only as a last resort the post author's
// subscription is looked up remotely (the expensive call is deferred to the
// rarest branch).
func (s *CommentService) canComment(ctx context.Context, p auth.Principal, postAuthorID, coins int64) (bool, error) {
	if coins > 0 {
		return true, nil
	}

	if p.Subscriber {
		return true, nil
	}

	isSubscriber, err := s.users.IsSubscriber(ctx, p, postAuthorID)
	if err != nil {
		// Fail closed: an unreachable oracle never means "not a subscriber".
		return false, fmt.Errorf("subscription lookup: %w", err)
	}

	return isSubscriber, nil
}

// fail unwinds the saga after the named step failed. Compensation results
// are accounted and any anomaly is logged for manual reconciliation before
// being surfaced to the caller.
func (s *CommentService) fail(ctx context.Context, step string, log *saga.Log, cause error) error {
	metrics.SagaFailures.WithLabelValues(step).Inc()
	metrics.SagaCompensations.Add(float64(log.Len()))

	anomalies := log.Unwind(ctx)
	if len(anomalies) == 0 {
		return fmt.Errorf("comment saga failed at %s: %w", step, cause)
	}

	for _, a := range anomalies {
		metrics.ConsistencyAnomalies.Inc()
		slog.Error("saga compensation failed, manual reconciliation required",
			"failed_step", step,
			"compensation", a.Step,
			"error", a.Err,
		)
	}

	return &ConsistencyAnomalyError{FailedStep: step, Cause: cause, Anomalies: anomalies}
}

// ListByPost returns a post's live comments, active highlights first.
func (s *CommentService) ListByPost(ctx context.Context, postID int64) ([]commentsrepo.Comment, error) {
	list, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	return list, nil
}
