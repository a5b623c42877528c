// Package users is the HTTP adapter for the users service, consumed as the
// subscription oracle.
package users

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"resty.dev/v3"

	"github.com/guilhalves/spotlight/internal/auth"
	"github.com/guilhalves/spotlight/internal/clients"
)

var _ clients.Users = (*Client)(nil)

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

type subscriberResponse struct {
	Subscriber bool `json:"subscriber"`
}

// IsSubscriber answers whether userID has a subscription. Transport errors
// surface as errors, never as "not a subscriber": permission decisions built
// on this answer must fail closed.
func (c *Client) IsSubscriber(ctx context.Context, p auth.Principal, userID int64) (bool, error) {
	req, err := c.r(ctx, p)
	if err != nil {
		return false, err
	}

	res, err := req.SetResult(&subscriberResponse{}).Get(fmt.Sprintf("/subscriber/%d", userID))
	if err != nil {
		return false, fmt.Errorf("%w: is subscriber: %v", clients.ErrRemoteUnavailable, err)
	}

	switch res.StatusCode() {
	case http.StatusOK:
		return res.Result().(*subscriberResponse).Subscriber, nil
	case http.StatusNotFound:
		return false, clients.ErrNotFound
	default:
		return false, fmt.Errorf("%w: is subscriber: status %d", clients.ErrRemoteUnavailable, res.StatusCode())
	}
}

// GetUser fetches the profile needed to address a notification.
func (c *Client) GetUser(ctx context.Context, p auth.Principal, userID int64) (*clients.User, error) {
	req, err := c.r(ctx, p)
	if err != nil {
		return nil, err
	}

	res, err := req.SetResult(&clients.User{}).Get(fmt.Sprintf("/users/%d", userID))
	if err != nil {
		return nil, fmt.Errorf("%w: get user: %v", clients.ErrRemoteUnavailable, err)
	}

	switch res.StatusCode() {
	case http.StatusOK:
		return res.Result().(*clients.User), nil
	case http.StatusNotFound:
		return nil, clients.ErrNotFound
	default:
		return nil, fmt.Errorf("%w: get user: status %d", clients.ErrRemoteUnavailable, res.StatusCode())
	}
}
