// Package authx wraps the external identity provider's admin API. Identities
// live in the provider, not in our datastore; this client only creates,
// verifies, and deletes them.
package authx

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Identity is the provider-side authentication record for an email address.
type Identity struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

// Provider is the surface the registration workflow needs from the identity
// service.
type Provider interface {
	CreateIdentity(ctx context.Context, email, password string, metadata map[string]string) (*Identity, error)
	GenerateVerificationLink(ctx context.Context, email, password string) (string, error)
	DeleteIdentity(ctx context.Context, id string) error
}

// Client talks to a GoTrue-style admin API using a service-role key.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL, serviceKey string) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(serviceKey)

	return &Client{http: http}
}

type createUserRequest struct {
	Email        string            `json:"email"`
	Password     string            `json:"password"`
	EmailConfirm bool              `json:"email_confirm"`
	UserMetadata map[string]string `json:"user_metadata,omitempty"`
}

type userResponse struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	EmailConfirmedAt string `json:"email_confirmed_at"`
}

type errorResponse struct {
	Message string `json:"msg"`
	Error   string `json:"error"`
}

func (e *errorResponse) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// CreateIdentity registers a new identity with email confirmation pending.
func (c *Client) CreateIdentity(ctx context.Context, email, password string, metadata map[string]string) (*Identity, error) {
	var out userResponse
	var apiErr errorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(createUserRequest{
			Email:        email,
			Password:     password,
			EmailConfirm: false,
			UserMetadata: metadata,
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/admin/users")
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("create identity: provider returned %d: %s", resp.StatusCode(), apiErr.text())
	}

	return &Identity{
		ID:             out.ID,
		Email:          out.Email,
		EmailConfirmed: out.EmailConfirmedAt != "",
	}, nil
}

type generateLinkRequest struct {
	Type     string `json:"type"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type generateLinkResponse struct {
	ActionLink string `json:"action_link"`
}

// GenerateVerificationLink asks the provider for a signup-confirmation link
// that can be mailed to the user.
func (c *Client) GenerateVerificationLink(ctx context.Context, email, password string) (string, error) {
	var out generateLinkResponse
	var apiErr errorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(generateLinkRequest{Type: "signup", Email: email, Password: password}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/admin/generate_link")
	if err != nil {
		return "", fmt.Errorf("generate verification link: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("generate verification link: provider returned %d: %s", resp.StatusCode(), apiErr.text())
	}

	return out.ActionLink, nil
}

// DeleteIdentity removes a provider identity. Used only when compensating a
// failed registration that created the identity in the same request.
func (c *Client) DeleteIdentity(ctx context.Context, id string) error {
	var apiErr errorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetError(&apiErr).
		Delete("/admin/users/" + id)
	if err != nil {
		return fmt.Errorf("delete identity %s: %w", id, err)
	}
	if resp.IsError() {
		return fmt.Errorf("delete identity %s: provider returned %d: %s", id, resp.StatusCode(), apiErr.text())
	}
	return nil
}
