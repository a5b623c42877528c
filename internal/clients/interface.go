// Package clients defines the contracts the saga orchestrator has with its
// remote collaborators, plus the error taxonomy their adapters map remote
// failures onto. Concrete resty-based implementations live in the
// subpackages; tests substitute fakes.
package clients

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/guilhalves/spotlight/internal/auth"
)

var (
	// ErrRemoteUnavailable covers transport failures, timeouts and
	// unexpected statuses from a collaborator. After a committed step it
	// triggers compensation; it is never silently downgraded to a domain
	// answer such as "not a subscriber".
	ErrRemoteUnavailable = errors.New("remote service unavailable")

	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
)

// Ledger is the transactions service seen from the orchestrator.
type Ledger interface {
	Balance(ctx context.Context, p auth.Principal) (decimal.Decimal, error)
	Debit(ctx context.Context, p auth.Principal, commentID, coins int64) (int64, error)
	Confirm(ctx context.Context, p auth.Principal, transactionID int64) error
	Delete(ctx context.Context, p auth.Principal, transactionID int64) error
}

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Users is the subscription oracle.
type Users interface {
	IsSubscriber(ctx context.Context, p auth.Principal, userID int64) (bool, error)
	GetUser(ctx context.Context, p auth.Principal, userID int64) (*User, error)
}

type Notification struct {
	To         int64  `json:"to"`
	MailTo     string `json:"mail_to"`
	Content    string `json:"content"`
	Identifier int64  `json:"identifier,omitempty"`
}

// Notifications is the notification gateway.
type Notifications interface {
	Create(ctx context.Context, p auth.Principal, n Notification) (int64, error)
	Delete(ctx context.Context, p auth.Principal, id int64) error
}
