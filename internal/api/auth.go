package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/geocoder89/marketlink/internal/validate"
)

var errIncompleteSession = errors.New("response did not include a session")

// SignupAck acknowledges a registration; no session exists yet.
type SignupAck struct {
	Message string `json:"message"`
	Email   string `json:"-"`
}

// Signup registers an account. The backend emails a one-time code; the
// session is only created by VerifyCode.
func (c *Client) Signup(ctx context.Context, req user.SignupRequest) (SignupAck, error) {
	if err := validate.Struct(req); err != nil {
		return SignupAck{}, err
	}

	var ack SignupAck
	err := c.do(ctx, call{
		op:       "signup",
		method:   http.MethodPost,
		path:     "/auth/signup",
		body:     req,
		fallback: "Signup failed",
	}, &ack)
	if err != nil {
		return SignupAck{}, err
	}

	ack.Email = req.Email
	return ack, nil
}

// VerifyCode submits the emailed one-time code. On success the returned
// session is persisted; this is the only automatic login after signup.
func (c *Client) VerifyCode(ctx context.Context, email, code string) (*user.AuthResponse, error) {
	req := user.VerifyCodeRequest{Email: email, Code: code, OTP: code}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	var res user.AuthResponse
	err := c.do(ctx, call{
		op:       "verify_code",
		method:   http.MethodPost,
		path:     "/auth/verify-otp",
		body:     req,
		fallback: "Invalid OTP",
	}, &res)
	if err != nil {
		return nil, err
	}

	if err := c.establish(ctx, "verify_code", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*user.AuthResponse, error) {
	req := user.LoginRequest{Email: email, Password: password}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	var res user.AuthResponse
	err := c.do(ctx, call{
		op:       "login",
		method:   http.MethodPost,
		path:     "/auth/login",
		body:     req,
		fallback: "Login failed",
	}, &res)
	if err != nil {
		return nil, err
	}

	if err := c.establish(ctx, "login", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Logout clears the local session. It makes no server call.
func (c *Client) Logout(ctx context.Context) error {
	if c.session == nil {
		return nil
	}
	return c.session.Clear(ctx)
}

// CurrentUser reads the cached session user; nil when logged out.
func (c *Client) CurrentUser(ctx context.Context) (*user.User, error) {
	if c.session == nil {
		return nil, nil
	}
	return c.session.CurrentUser(ctx)
}

func (c *Client) establish(ctx context.Context, op string, res *user.AuthResponse) error {
	if res.Token == "" || res.User.ID == "" {
		return fmt.Errorf("%s: %w", op, errIncompleteSession)
	}
	if c.session == nil {
		return nil
	}
	if err := c.session.Save(ctx, res.Token, &res.User); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
