// Package detail shows one product with its seller, the seller's reviews,
// and the WhatsApp hand-off link.
package detail

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"unicode"

	"github.com/geocoder89/marketlink/internal/domain/product"
	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/geocoder89/marketlink/internal/validate"
)

var (
	ErrNoContactHandle = errors.New("seller has no whatsapp handle")
	ErrNotLoggedIn     = errors.New("rating requires a session")
	ErrNoRating        = errors.New("no rating selected")
	ErrBusy            = errors.New("a request is already in progress")
)

var messages = map[error]string{
	ErrNoContactHandle: "This seller has not added a WhatsApp number yet.",
	ErrNotLoggedIn:     "You must be logged in to rate.",
	ErrNoRating:        "Select a rating.",
}

// Message is the text to show for err.
func Message(err error) string {
	for sentinel, msg := range messages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	if fields, ok := validate.AsErrors(err); ok && len(fields) > 0 {
		return fields[0].Field + " " + fields[0].Message
	}
	return err.Error()
}

type Gateway interface {
	CurrentUser(ctx context.Context) (*user.User, error)
	GetUser(ctx context.Context, id string) (*user.User, error)
	RateSeller(ctx context.Context, sellerID string, req user.RateRequest) (*user.User, error)
}

// WhatsAppLink builds the wa.me deep link with the product greeting.
// Non-digits in the handle are dropped.
func WhatsAppLink(handle, title, brand string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, handle)
	if digits == "" {
		return "", ErrNoContactHandle
	}

	greeting := fmt.Sprintf("Hello, I'm interested in your product \"%s\" listed on %s.", title, brand)
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(greeting), nil
}

type Snapshot struct {
	Product  product.Product
	Seller   *user.User
	Viewer   *user.User
	IsOwner  bool
	Loading  bool
	Rating   bool
	Error    string
	RateErr  string
	RateDone bool
}

type View struct {
	ctx   context.Context
	gw    Gateway
	brand string

	mu       sync.Mutex
	product  product.Product
	seller   *user.User
	viewer   *user.User
	loading  bool
	rating   bool
	errMsg   string
	rateErr  string
	rateDone bool
}

func New(ctx context.Context, gw Gateway, p product.Product, brand string) *View {
	v := &View{ctx: ctx, gw: gw, brand: brand, product: p}
	if p.Seller.User != nil {
		cp := *p.Seller.User
		v.seller = &cp
	}
	return v
}

// Load reads the viewer from the session and fetches the seller.
func (v *View) Load() error {
	v.mu.Lock()
	v.loading = true
	v.errMsg = ""
	sellerID := v.product.SellerID
	v.mu.Unlock()

	viewer, err := v.gw.CurrentUser(v.ctx)
	var seller *user.User
	if err == nil && sellerID != "" {
		seller, err = v.gw.GetUser(v.ctx, sellerID)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.ctx.Err() != nil {
		return v.ctx.Err()
	}
	v.loading = false
	v.viewer = viewer

	if err != nil {
		v.errMsg = err.Error()
		return err
	}
	if seller != nil {
		v.seller = seller
	}
	return nil
}

// ContactLink is the hand-off link to the seller. ErrNoContactHandle is a
// normal outcome; show its message.
func (v *View) ContactLink() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	handle := ""
	if v.seller != nil {
		handle = v.seller.WhatsApp()
	}
	return WhatsAppLink(handle, v.product.Title, v.brand)
}

// Rate submits a 1..5 rating for the seller. Rating 0 means no star was
// picked and is refused without a request.
func (v *View) Rate(rating int, comment string) error {
	v.mu.Lock()
	if v.rating {
		v.mu.Unlock()
		return ErrBusy
	}
	v.rateErr = ""
	v.rateDone = false

	if v.viewer == nil {
		v.rateErr = Message(ErrNotLoggedIn)
		v.mu.Unlock()
		return ErrNotLoggedIn
	}
	if rating == 0 {
		v.rateErr = Message(ErrNoRating)
		v.mu.Unlock()
		return ErrNoRating
	}

	req := user.RateRequest{
		RaterID:   v.viewer.ID,
		RaterName: v.viewer.Name,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
	}
	if err := validate.Struct(req); err != nil {
		v.rateErr = Message(err)
		v.mu.Unlock()
		return err
	}

	sellerID := v.product.SellerID
	v.rating = true
	v.mu.Unlock()

	updated, err := v.gw.RateSeller(v.ctx, sellerID, req)

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.ctx.Err() != nil {
		return v.ctx.Err()
	}
	v.rating = false

	if err != nil {
		v.rateErr = err.Error()
		return err
	}
	v.seller = updated
	v.rateDone = true
	return nil
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := Snapshot{
		Product:  v.product,
		Loading:  v.loading,
		Rating:   v.rating,
		Error:    v.errMsg,
		RateErr:  v.rateErr,
		RateDone: v.rateDone,
	}
	if v.seller != nil {
		cp := *v.seller
		s.Seller = &cp
	}
	if v.viewer != nil {
		cp := *v.viewer
		s.Viewer = &cp
		s.IsOwner = v.product.OwnedBy(v.viewer.ID)
	}
	return s
}
