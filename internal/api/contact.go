package api

import (
	"context"
	"net/http"

	"github.com/geocoder89/marketlink/internal/validate"
)

const NewsletterMessage = "Newsletter Subscription"

type ContactRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message,omitempty" validate:"omitempty,max=2000"`
}

type ContactAck struct {
	Message string `json:"message"`
}

func (c *Client) SubmitContactMessage(ctx context.Context, req ContactRequest) (ContactAck, error) {
	if err := validate.Struct(req); err != nil {
		return ContactAck{}, err
	}

	var ack ContactAck
	err := c.do(ctx, call{
		op:       "submit_contact",
		method:   http.MethodPost,
		path:     "/contact",
		body:     req,
		fallback: "Failed to send message",
	}, &ack)
	if err != nil {
		return ContactAck{}, err
	}
	return ack, nil
}
