package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
	"github.com/louisbranch/boardkit/internal/platform/session"
)

type loginRequest struct {
	APIKey string `json:"api_key"`
	UserID string `json:"user_id"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login exchanges an API key for a bearer token and stores the resulting
// session in the client's holder.
func (c *Client) Login(ctx context.Context, apiKey, userID string) (session.Session, error) {
	apiKey = strings.TrimSpace(apiKey)
	userID = strings.TrimSpace(userID)
	if apiKey == "" {
		return session.Session{}, apperrors.Validation("api_key", "api key is required")
	}
	if userID == "" {
		return session.Session{}, apperrors.Validation("user_id", "user id is required")
	}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", nil, loginRequest{APIKey: apiKey, UserID: userID}, &resp, false); err != nil {
		return session.Session{}, err
	}
	if resp.Token == "" {
		return session.Session{}, apperrors.E(apperrors.KindUnauthorized, "backend returned an empty token")
	}
	s := session.Session{UserID: resp.UserID, Token: resp.Token, ExpiresAt: resp.ExpiresAt}
	c.sessions.Set(s)
	return s, nil
}

// Logout forgets the current session.
func (c *Client) Logout() {
	c.sessions.Clear()
}

// Credentials describe how a process obtains its session.
type Credentials struct {
	Token  string
	APIKey string
	UserID string
}

// Authenticate seeds the session: a token already in hand wins, otherwise
// the API key is exchanged through Login.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) error {
	if token := strings.TrimSpace(creds.Token); token != "" {
		c.sessions.Set(session.Session{UserID: strings.TrimSpace(creds.UserID), Token: token})
		return nil
	}
	if strings.TrimSpace(creds.APIKey) == "" {
		return apperrors.E(apperrors.KindUnauthorized, "no session token or api key configured")
	}
	_, err := c.Login(ctx, creds.APIKey, creds.UserID)
	return err
}
