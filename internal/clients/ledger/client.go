// Package ledger is the HTTP adapter for the transactions service.
package ledger

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"resty.dev/v3"

	"github.com/guilhalves/spotlight/internal/auth"
	"github.com/guilhalves/spotlight/internal/clients"
)

var _ clients.Ledger = (*Client)(nil)

type Client struct {
	http   *resty.Client
	issuer *auth.Issuer
}

func NewClient(baseURL string, issuer *auth.Issuer, timeout time.Duration) *Client {
	return &Client{
		http:   resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		issuer: issuer,
	}
}

func (c *Client) Close() error {
	return c.http.Close()
}

func (c *Client) r(ctx context.Context, p auth.Principal) (*resty.Request, error) {
	token, err := c.issuer.Sign(p)
	if err != nil {
		return nil, fmt.Errorf("sign outbound token: %w", err)
	}

	return c.http.R().WithContext(ctx).SetAuthToken(token), nil
}

type idResponse struct {
	ID int64 `json:"id"`
}

type balanceResponse struct {
	UserBalance float64 `json:"userBalance"`
}

type debitRequest struct {
	CommentID int64  `json:"comment_id"`
	Coins     int64  `json:"coins"`
	Type      string `json:"type"`
}

// Balance returns the client-visible balance the ledger reports for p.
func (c *Client) Balance(ctx context.Context, p auth.Principal) (decimal.Decimal, error) {
	req, err := c.r(ctx, p)
	if err != nil {
		return decimal.Zero, err
	}

	res, err := req.SetResult(&balanceResponse{}).Get("/balance")
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: get balance: %v", clients.ErrRemoteUnavailable, err)
	}

	if res.StatusCode() != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: get balance: status %d", clients.ErrRemoteUnavailable, res.StatusCode())
	}

	return decimal.NewFromFloat(res.Result().(*balanceResponse).UserBalance), nil
}

// Debit asks the ledger to spend coins for the given comment and returns the
// primary transaction id.
func (c *Client) Debit(ctx context.Context, p auth.Principal, commentID, coins int64) (int64, error) {
	req, err := c.r(ctx, p)
	if err != nil {
		return 0, err
	}

	res, err := req.
		SetBody(debitRequest{CommentID: commentID, Coins: coins, Type: "out"}).
		SetResult(&idResponse{}).
		Post("/transactions")
	if err != nil {
		return 0, fmt.Errorf("%w: debit: %v", clients.ErrRemoteUnavailable, err)
	}

	switch res.StatusCode() {
	case http.StatusCreated:
		// A 201 whose body did not decode leaves the id at 0; treating it
		// as success would make the saga confirm or delete transaction 0.
		id := res.Result().(*idResponse).ID
		if id == 0 {
			return 0, fmt.Errorf("%w: debit: ledger returned id 0", clients.ErrRemoteUnavailable)
		}

		return id, nil
	case http.StatusPaymentRequired:
		return 0, clients.ErrInsufficientBalance
	default:
		return 0, fmt.Errorf("%w: debit: status %d", clients.ErrRemoteUnavailable, res.StatusCode())
	}
}

// Confirm flips the debit (and its tax child) to confirmed.
func (c *Client) Confirm(ctx context.Context, p auth.Principal, transactionID int64) error {
	req, err := c.r(ctx, p)
	if err != nil {
		return err
	}

	res, err := req.Post(fmt.Sprintf("/transactions/confirm/%d", transactionID))
	if err != nil {
		return fmt.Errorf("%w: confirm: %v", clients.ErrRemoteUnavailable, err)
	}

	switch res.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusForbidden:
		return clients.ErrForbidden
	case http.StatusNotFound:
		return clients.ErrNotFound
	default:
		return fmt.Errorf("%w: confirm: status %d", clients.ErrRemoteUnavailable, res.StatusCode())
	}
}

// Delete soft-deletes an unconfirmed debit pair during compensation.
func (c *Client) Delete(ctx context.Context, p auth.Principal, transactionID int64) error {
	req, err := c.r(ctx, p)
	if err != nil {
		return err
	}

	res, err := req.Delete(fmt.Sprintf("/transactions/%d", transactionID))
	if err != nil {
		return fmt.Errorf("%w: delete transaction: %v", clients.ErrRemoteUnavailable, err)
	}

	switch res.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusForbidden:
		return clients.ErrForbidden
	case http.StatusNotFound:
		return clients.ErrNotFound
	default:
		return fmt.Errorf("%w: delete transaction: status %d", clients.ErrRemoteUnavailable, res.StatusCode())
	}
}
