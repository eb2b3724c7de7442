package shell

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/marketlink/internal/api"
	"github.com/geocoder89/marketlink/internal/config"
	"github.com/geocoder89/marketlink/internal/domain/product"
	"github.com/geocoder89/marketlink/internal/domain/user"
	apphttp "github.com/geocoder89/marketlink/internal/http"
	"github.com/geocoder89/marketlink/internal/notifications"
	"github.com/geocoder89/marketlink/internal/session"
	"github.com/geocoder89/marketlink/internal/views/dashboard"
	"github.com/geocoder89/marketlink/internal/views/feed"
	"github.com/gin-gonic/gin"
)

const fixedCode = "482913"

func newShell(t *testing.T) (*Shell, *session.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := apphttp.NewRouter(logger, apphttp.Deps{Notifier: notifications.NewRecordingNotifier()}, config.Config{
		Env:                 "test",
		JWTSecret:           "test-secret",
		JWTAccessTTLMinutes: 60,
		OTPFixedCode:        fixedCode,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	sess := session.New(session.NewMemoryKV())
	client := api.New(srv.URL+"/api", sess, api.Options{Logger: logger})

	s, err := New(context.Background(), sess, client, Options{Brand: "9jalinks", Directory: feed.NewDirectory(time.Minute)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s, sess
}

func TestShellSignupFlowToDashboard(t *testing.T) {
	s, sess := newShell(t)
	ctx := context.Background()

	if s.Page() != PageHome || s.User() != nil || s.Feed() == nil {
		t.Fatalf("shell should start on home without a user")
	}

	if err := s.Navigate(PageDashboard); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if s.Page() != PageHome {
		t.Fatalf("dashboard without a session should fall back to home, got %s", s.Page())
	}

	if err := s.Navigate(PageSignup); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	s.mu.Lock()
	wizardCtx := s.viewCtx
	s.mu.Unlock()

	w := s.Wizard()
	err := w.SubmitSignup(user.SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "secret123", Role: user.RoleSeller})
	if err != nil {
		t.Fatalf("SubmitSignup: %v", err)
	}
	if tok, _ := sess.Token(ctx); tok != "" {
		t.Fatalf("signup must not create a session")
	}

	if err := w.SubmitCode("000000"); err == nil {
		t.Fatalf("wrong code should fail")
	}
	if got := w.Snapshot().Error; got != "Invalid OTP" {
		t.Fatalf("error = %q", got)
	}

	if err := w.SubmitCode(fixedCode); err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}

	if s.Page() != PageDashboard {
		t.Fatalf("seller should land on the dashboard, got %s", s.Page())
	}
	if u := s.User(); u == nil || u.Role != user.RoleSeller {
		t.Fatalf("shell user = %+v", u)
	}
	if wizardCtx.Err() == nil {
		t.Fatalf("navigating away must cancel the previous view")
	}

	d := s.Dashboard()
	if d == nil {
		t.Fatalf("dashboard view missing")
	}
	d.EditDraft(func(dr *dashboard.Draft) {
		dr.Title = "iPhone 12"
		dr.Price = "250000"
		dr.Category = "Phones & Tablets"
		dr.Condition = product.ConditionUsed
	})
	if err := d.SubmitProduct(); err != nil {
		t.Fatalf("SubmitProduct: %v", err)
	}
	rows := d.Snapshot().Rows
	if len(rows) != 1 {
		t.Fatalf("expected the new product in the list, got %d", len(rows))
	}

	if err := d.Delete(rows[0].Product.ID, func(product.Product) bool { return false }); !errors.Is(err, dashboard.ErrDeclined) {
		t.Fatalf("declined delete = %v", err)
	}
	if err := d.Delete(rows[0].Product.ID, func(product.Product) bool { return true }); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(d.Snapshot().Rows) != 0 {
		t.Fatalf("product should be gone")
	}
}

func TestShellProfileUpdateReachesShellUser(t *testing.T) {
	s, _ := newShell(t)

	_ = s.Navigate(PageSignup)
	w := s.Wizard()
	_ = w.SubmitSignup(user.SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "secret123", Role: user.RoleSeller})
	if err := w.SubmitCode(fixedCode); err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}

	d := s.Dashboard()
	d.EditProfile(func(f *dashboard.ProfileForm) { f.StoreName = "Ada Gadgets" })
	if err := d.SubmitProfile(); err != nil {
		t.Fatalf("SubmitProfile: %v", err)
	}

	if u := s.User(); u == nil || u.DisplayStore() != "Ada Gadgets" {
		t.Fatalf("shell user not refreshed through the session: %+v", u)
	}
}

func TestShellLogoutAndDetail(t *testing.T) {
	s, sess := newShell(t)
	ctx := context.Background()

	_ = s.Navigate(PageSignup)
	w := s.Wizard()
	_ = w.SubmitSignup(user.SignupRequest{Name: "Bola", Email: "bola@example.com", Password: "secret123", Role: user.RoleBuyer})
	if err := w.SubmitCode(fixedCode); err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}
	if s.Page() != PageHome {
		t.Fatalf("buyers land on home, got %s", s.Page())
	}

	dv, err := s.OpenProduct(product.Product{ID: "p1", SellerID: "missing", Title: "Sofa"})
	if err != nil {
		t.Fatalf("OpenProduct: %v", err)
	}
	if err := dv.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap := dv.Snapshot(); snap.Viewer == nil || snap.IsOwner {
		t.Fatalf("unexpected detail snapshot: %+v", snap)
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if s.Page() != PageHome || s.User() != nil {
		t.Fatalf("logout should go home without a user")
	}
	if tok, _ := sess.Token(ctx); tok != "" {
		t.Fatalf("token survived logout")
	}
}

func TestShellNavigateErrors(t *testing.T) {
	s, _ := newShell(t)

	if err := s.Navigate(Page("nowhere")); !errors.Is(err, ErrUnknownPage) {
		t.Fatalf("unknown page = %v", err)
	}
	if err := s.Navigate(PageProduct); !errors.Is(err, ErrNeedsProduct) {
		t.Fatalf("product page = %v", err)
	}

	_ = s.Navigate(PageAbout)
	if s.Contact() == nil || s.Feed() != nil {
		t.Fatalf("about page should carry the contact form only")
	}

	s.Close()
	if err := s.Navigate(PageHome); !errors.Is(err, ErrClosed) {
		t.Fatalf("navigate after close = %v", err)
	}
}
