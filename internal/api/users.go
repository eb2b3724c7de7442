package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/geocoder89/marketlink/internal/validate"
)

func (c *Client) ListUsers(ctx context.Context) ([]user.User, error) {
	var users []user.User
	err := c.do(ctx, call{
		op:       "list_users",
		method:   http.MethodGet,
		path:     "/users",
		fallback: "Failed to load users",
	}, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns nil, nil when the user does not exist.
func (c *Client) GetUser(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	err := c.do(ctx, call{
		op:       "get_user",
		method:   http.MethodGet,
		path:     "/users/" + url.PathEscape(id),
		fallback: "Failed to load user",
	}, &u)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile applies a partial update. When id is the session user's id
// the cached snapshot is replaced with the server's answer; other ids (the
// administrative case) leave the session untouched.
func (c *Client) UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (*user.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	var updated user.User
	err := c.do(ctx, call{
		op:       "update_profile",
		method:   http.MethodPut,
		path:     "/users/" + url.PathEscape(id),
		body:     req,
		bearer:   true,
		fallback: "Failed to update profile",
	}, &updated)
	if err != nil {
		return nil, err
	}

	if c.session != nil {
		current, err := c.session.CurrentUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("update_profile: %w", err)
		}
		if current != nil && current.ID == id {
			if err := c.session.RefreshUser(ctx, &updated); err != nil {
				return nil, fmt.Errorf("update_profile: %w", err)
			}
		}
	}

	return &updated, nil
}

// RateSeller appends a review server-side and returns the updated seller.
// A rating outside 1..5 (including 0, "no star selected") never reaches the network.
func (c *Client) RateSeller(ctx context.Context, sellerID string, req user.RateRequest) (*user.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	var seller user.User
	err := c.do(ctx, call{
		op:       "rate_seller",
		method:   http.MethodPost,
		path:     "/users/" + url.PathEscape(sellerID) + "/rate",
		body:     req,
		bearer:   true,
		fallback: "Failed to rate seller",
	}, &seller)
	if err != nil {
		return nil, err
	}
	return &seller, nil
}
