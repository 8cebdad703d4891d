package backend

import (
	"context"
	"net/http"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	UserType string `json:"user_type"`
}

// LoginResponse: конверт {success, user, redirect_path}
type LoginResponse struct {
	Success      bool           `json:"success"`
	User         map[string]any `json:"user"`
	RedirectPath string         `json:"redirect_path"`
	Token        string         `json:"token,omitempty"`
	Message      string         `json:"message,omitempty"`
}

// AuthToken: токен либо на верхнем уровне, либо внутри user
func (r *LoginResponse) AuthToken() string {
	if r.Token != "" {
		return r.Token
	}
	for _, k := range []string{"token", "auth_token", "access_token"} {
		if s, ok := r.User[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Login: POST {base}/auth/login/. success=false считается бизнес-отказом.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u := c.URL("auth/login", "")
	raw, err := c.do(ctx, http.MethodPost, u, req)
	if err != nil {
		return nil, err
	}
	var resp LoginResponse
	if err := decodeJSON(raw, &resp); err != nil {
		return nil, &Error{Kind: KindMalformed, Method: http.MethodPost, URL: u, Err: err}
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "Invalid credentials"
		}
		return nil, &Error{Kind: KindRejected, Method: http.MethodPost, URL: u, Status: http.StatusOK, Message: msg}
	}
	return &resp, nil
}
