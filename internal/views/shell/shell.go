// Package shell is the navigation shell: it owns the session context, picks
// the active view and ends the previous view's lifetime on every navigation.
package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/geocoder89/marketlink/internal/domain/product"
	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/geocoder89/marketlink/internal/session"
	"github.com/geocoder89/marketlink/internal/views/dashboard"
	"github.com/geocoder89/marketlink/internal/views/detail"
	"github.com/geocoder89/marketlink/internal/views/feed"
	"github.com/geocoder89/marketlink/internal/views/pages"
	"github.com/geocoder89/marketlink/internal/views/wizard"
)

type Page string

const (
	PageHome      Page = "home"
	PageLogin     Page = "login"
	PageSignup    Page = "signup"
	PageDashboard Page = "dashboard"
	PageProduct   Page = "product-detail"
	PageAbout     Page = "about"
	PageHelp      Page = "help"
)

var Pages = []Page{PageHome, PageLogin, PageSignup, PageDashboard, PageProduct, PageAbout, PageHelp}

var (
	ErrUnknownPage  = errors.New("unknown page")
	ErrNeedsProduct = errors.New("product page needs a product; use OpenProduct")
	ErrClosed       = errors.New("shell closed")
)

// Gateway is everything the views need from the API client.
type Gateway interface {
	wizard.Gateway
	feed.Gateway
	detail.Gateway
	dashboard.Gateway
	pages.Gateway
	Logout(ctx context.Context) error
}

type Options struct {
	Brand     string
	Directory *feed.Directory
}

type Shell struct {
	root        context.Context
	sess        *session.Session
	gw          Gateway
	opt         Options
	unsubscribe func()

	mu      sync.Mutex
	closed  bool
	page    Page
	user    *user.User
	viewCtx context.Context
	cancel  context.CancelFunc
	view    any
}

// New reads the current user from sess, subscribes to its changes and opens
// the home page.
func New(ctx context.Context, sess *session.Session, gw Gateway, opt Options) (*Shell, error) {
	if opt.Brand == "" {
		opt.Brand = "9jalinks"
	}

	u, err := sess.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	s := &Shell{root: ctx, sess: sess, gw: gw, opt: opt, user: u}
	s.unsubscribe = sess.Subscribe(s.onSession)

	s.mu.Lock()
	s.navigateLocked(PageHome, nil)
	s.mu.Unlock()

	return s, nil
}

// onSession keeps the shell's user in step with the session. Losing the
// session while on the dashboard sends the user home.
func (s *Shell) onSession(u *user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.user = u
	if u == nil && s.page == PageDashboard {
		s.navigateLocked(PageHome, nil)
	}
}

func (s *Shell) Navigate(page Page) error {
	if page == PageProduct {
		return ErrNeedsProduct
	}
	known := false
	for _, p := range Pages {
		known = known || p == page
	}
	if !known {
		return ErrUnknownPage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.navigateLocked(page, nil)
	return nil
}

// OpenProduct shows the detail page for p.
func (s *Shell) OpenProduct(p product.Product) (*detail.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	s.navigateLocked(PageProduct, &p)
	return s.view.(*detail.View), nil
}

// navigateLocked cancels the current view and builds the next one.
// Dashboard without a session falls back to home.
func (s *Shell) navigateLocked(page Page, p *product.Product) {
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(s.root)
	s.viewCtx, s.cancel = ctx, cancel

	if page == PageDashboard && s.user == nil {
		page = PageHome
	}
	s.page = page

	switch page {
	case PageHome:
		s.view = feed.New(ctx, s.gw, s.opt.Directory)
	case PageLogin:
		s.view = wizard.New(ctx, s.gw, wizard.StateLogin, wizard.Options{OnDone: s.onAuthDone})
	case PageSignup:
		s.view = wizard.New(ctx, s.gw, wizard.StateSignup, wizard.Options{OnDone: s.onAuthDone})
	case PageDashboard:
		s.view = dashboard.New(ctx, s.gw, *s.user)
	case PageProduct:
		s.view = detail.New(ctx, s.gw, *p, s.opt.Brand)
	case PageAbout, PageHelp:
		s.view = pages.NewContactForm(ctx, s.gw)
	}
}

func (s *Shell) onAuthDone(_ user.User, next string) {
	_ = s.Navigate(Page(next))
}

// Logout clears the session and goes home.
func (s *Shell) Logout(ctx context.Context) error {
	if err := s.gw.Logout(ctx); err != nil {
		return err
	}
	return s.Navigate(PageHome)
}

func (s *Shell) Page() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// User is the shell's copy of the session user, or nil.
func (s *Shell) User() *user.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}
	cp := *s.user
	return &cp
}

func (s *Shell) Brand() string { return s.opt.Brand }

func (s *Shell) Feed() *feed.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, _ := s.view.(*feed.View)
	return v
}

func (s *Shell) Wizard() *wizard.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, _ := s.view.(*wizard.View)
	return v
}

func (s *Shell) Dashboard() *dashboard.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, _ := s.view.(*dashboard.View)
	return v
}

func (s *Shell) Detail() *detail.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, _ := s.view.(*detail.View)
	return v
}

// Contact is the footer newsletter/contact form on the static pages.
func (s *Shell) Contact() *pages.ContactForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, _ := s.view.(*pages.ContactForm)
	return v
}

// Close ends the active view and stops following the session.
func (s *Shell) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.unsubscribe()
}
