// Package notifications is the HTTP adapter for the notification gateway.
package notifications

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"resty.dev/v3"

	"github.com/guilhalves/spotlight/internal/auth"
	"github.com/guilhalves/spotlight/internal/clients"
)

var _ clients.Notifications = (*Client)(nil)

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

// Create stores a notification for the receiver and returns its id. The
// gateway signals failure with a zero id; that is an error here, because the
// caller must compensate on it.
func (c *Client) Create(ctx context.Context, p auth.Principal, n clients.Notification) (int64, error) {
	req, err := c.r(ctx, p)
	if err != nil {
		return 0, err
	}

	res, err := req.SetBody(n).SetResult(&idResponse{}).Post("/notifications")
	if err != nil {
		return 0, fmt.Errorf("%w: create notification: %v", clients.ErrRemoteUnavailable, err)
	}

	if res.StatusCode() != http.StatusCreated {
		return 0, fmt.Errorf("%w: create notification: status %d", clients.ErrRemoteUnavailable, res.StatusCode())
	}

	id := res.Result().(*idResponse).ID
	if id == 0 {
		return 0, fmt.Errorf("%w: create notification: gateway returned id 0", clients.ErrRemoteUnavailable)
	}

	return id, nil
}

// Delete removes a previously created notification during compensation.
func (c *Client) Delete(ctx context.Context, p auth.Principal, id int64) error {
	req, err := c.r(ctx, p)
	if err != nil {
		return err
	}

	res, err := req.Delete(fmt.Sprintf("/notifications/%d", id))
	if err != nil {
		return fmt.Errorf("%w: delete notification: %v", clients.ErrRemoteUnavailable, err)
	}

	if res.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: delete notification: status %d", clients.ErrRemoteUnavailable, res.StatusCode())
	}

	return nil
}
