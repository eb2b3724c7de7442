// Package pages holds the static About and Help content and the
// contact/newsletter form.
package pages

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/geocoder89/marketlink/internal/api"
	"github.com/geocoder89/marketlink/internal/validate"
)

var ErrBusy = errors.New("a message is already being sent")

type Section struct {
	Title string
	Body  string
}

func About(brand string) []Section {
	return []Section{
		{
			Title: "About " + brand,
			Body: brand + " is a marketplace connecting local buyers and sellers. Sellers list what they " +
				"have, buyers browse by category, and the two finish the deal directly on WhatsApp.",
		},
		{
			Title: "Our mission",
			Body:  "Make it simple and safe to buy and sell locally, without middlemen or listing fees.",
		},
		{
			Title: "How it works",
			Body: "Create an account, verify your email with the code we send you, and start browsing. " +
				"Sellers get a storefront with ratings from the buyers they have traded with.",
		},
	}
}

// Question is one entry in the help centre.
type Question struct {
	Q string
	A string
}

func Help(brand string) []Question {
	return []Question{
		{"How do I create an account?", "Choose Sign up, fill in your details and enter the 6-digit code sent to your email."},
		{"How do I sell on " + brand + "?", "Sign up as a seller, then open your dashboard and add a product with photos and a price."},
		{"How do I contact a seller?", "Open a product and use Chat on WhatsApp. The seller must have added a WhatsApp number."},
		{"How do ratings work?", "Logged-in users can rate a seller from 1 to 5 stars and leave a comment."},
		{"Is payment handled by " + brand + "?", "No. Buyers and sellers agree on payment and delivery between themselves."},
		{"I forgot my password", "Password reset is not available yet. Contact us and we will help."},
	}
}

type Gateway interface {
	SubmitContactMessage(ctx context.Context, req api.ContactRequest) (api.ContactAck, error)
}

type ContactSnapshot struct {
	Sending     bool
	Sent        bool
	Notice      string
	Error       string
	FieldErrors map[string]string
}

// ContactForm backs both the contact page and the newsletter box.
type ContactForm struct {
	ctx context.Context
	gw  Gateway

	mu      sync.Mutex
	sending bool
	sent    bool
	notice  string
	errMsg  string
	fields  map[string]string
}

func NewContactForm(ctx context.Context, gw Gateway) *ContactForm {
	return &ContactForm{ctx: ctx, gw: gw}
}

// Subscribe signs email up for the newsletter.
func (f *ContactForm) Subscribe(email string) error {
	return f.Send(email, api.NewsletterMessage)
}

func (f *ContactForm) Send(email, message string) error {
	req := api.ContactRequest{Email: strings.TrimSpace(email), Message: strings.TrimSpace(message)}

	f.mu.Lock()
	if f.sending {
		f.mu.Unlock()
		return ErrBusy
	}
	f.errMsg, f.notice, f.fields, f.sent = "", "", nil, false

	if err := validate.Struct(req); err != nil {
		if fields, ok := validate.AsErrors(err); ok {
			f.fields = fields.ByField()
		}
		f.mu.Unlock()
		return err
	}
	f.sending = true
	f.mu.Unlock()

	ack, err := f.gw.SubmitContactMessage(f.ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ctx.Err() != nil {
		return f.ctx.Err()
	}
	f.sending = false

	if err != nil {
		f.errMsg = err.Error()
		return err
	}
	f.sent = true
	f.notice = ack.Message
	if f.notice == "" {
		f.notice = "Thanks, we will be in touch"
	}
	return nil
}

func (f *ContactForm) Snapshot() ContactSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	var fields map[string]string
	if len(f.fields) > 0 {
		fields = make(map[string]string, len(f.fields))
		for k, msg := range f.fields {
			fields[k] = msg
		}
	}
	return ContactSnapshot{
		Sending:     f.sending,
		Sent:        f.sent,
		Notice:      f.notice,
		Error:       f.errMsg,
		FieldErrors: fields,
	}
}
