package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/geocoder89/marketlink/internal/api"
	"github.com/geocoder89/marketlink/internal/config"
	"github.com/geocoder89/marketlink/internal/domain/product"
	"github.com/geocoder89/marketlink/internal/domain/user"
	apphttp "github.com/geocoder89/marketlink/internal/http"
	"github.com/geocoder89/marketlink/internal/notifications"
	"github.com/geocoder89/marketlink/internal/observability"
	"github.com/geocoder89/marketlink/internal/session"
	"github.com/geocoder89/marketlink/internal/validate"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const fixedCode = "482913"

// countingTransport records every request that actually leaves the client.
type countingTransport struct {
	n     atomic.Int64
	inner http.RoundTripper
	last  atomic.Value // *http.Request
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.n.Add(1)
	t.last.Store(req)
	return t.inner.RoundTrip(req)
}

func (t *countingTransport) lastRequest() *http.Request {
	req, _ := t.last.Load().(*http.Request)
	return req
}

type fixture struct {
	client    *api.Client
	sess      *session.Session
	transport *countingTransport
	metrics   *observability.ClientMetrics
	server    *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		Env:                 "test",
		JWTSecret:           "test-secret",
		JWTAccessTTLMinutes: 60,
		OTPFixedCode:        fixedCode,
	}
	router := apphttp.NewRouter(logger, apphttp.Deps{Notifier: notifications.NewRecordingNotifier()}, cfg)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	sess := session.New(session.NewMemoryKV())
	transport := &countingTransport{inner: http.DefaultTransport}
	metrics := observability.NewClientMetrics(prometheus.NewRegistry())

	client := api.New(srv.URL+"/api", sess, api.Options{
		HTTPClient: &http.Client{Transport: transport},
		Logger:     logger,
		Metrics:    metrics,
	})

	return &fixture{client: client, sess: sess, transport: transport, metrics: metrics, server: srv}
}

func (f *fixture) register(t *testing.T, name, email string, role user.Role) *user.AuthResponse {
	t.Helper()
	ctx := context.Background()

	if _, err := f.client.Signup(ctx, user.SignupRequest{Name: name, Email: email, Password: "secret123", Role: role}); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	res, err := f.client.VerifyCode(ctx, email, fixedCode)
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	return res
}

func TestSignupVerifyScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ack, err := f.client.Signup(ctx, user.SignupRequest{
		Name: "Ada", Email: "ada@example.com", Password: "secret123", Role: user.RoleSeller,
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if ack.Email != "ada@example.com" || ack.Message == "" {
		t.Fatalf("unexpected ack: %+v", ack)
	}

	// signup alone never creates a session
	if u, _ := f.sess.CurrentUser(ctx); u != nil {
		t.Fatalf("session after signup: %+v", u)
	}

	_, err = f.client.VerifyCode(ctx, "ada@example.com", "000000")
	var reqErr *api.RequestError
	if !errors.As(err, &reqErr) || reqErr.Message != "Invalid OTP" {
		t.Fatalf("wrong code error = %v", err)
	}
	if tok, _ := f.sess.Token(ctx); tok != "" {
		t.Fatalf("wrong code must not create a session")
	}

	res, err := f.client.VerifyCode(ctx, "ada@example.com", fixedCode)
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}

	u, err := f.client.CurrentUser(ctx)
	if err != nil || u == nil || u.ID != res.User.ID || u.Role != user.RoleSeller {
		t.Fatalf("session user = %+v, err %v", u, err)
	}
	if tok, _ := f.sess.Token(ctx); tok != res.Token {
		t.Fatalf("stored token mismatch")
	}
}

func TestLoginAndLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ada", "ada@example.com", user.RoleBuyer)

	if err := f.client.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	_, err := f.client.Login(ctx, "ada@example.com", "wrong-password")
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("bad password err = %v", err)
	}

	if _, err := f.client.Login(ctx, "ada@example.com", "secret123"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	before := f.transport.n.Load()
	if err := f.client.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if f.transport.n.Load() != before {
		t.Fatalf("logout must not issue a request")
	}
	if u, _ := f.client.CurrentUser(ctx); u != nil {
		t.Fatalf("user after logout: %+v", u)
	}
	if tok, _ := f.sess.Token(ctx); tok != "" {
		t.Fatalf("token after logout: %q", tok)
	}
}

func TestValidationHappensBeforeRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		run   func() error
		field string
	}{
		{"rating zero", func() error {
			_, err := f.client.RateSeller(ctx, "s1", user.RateRequest{RaterID: "b1", RaterName: "Bola", Rating: 0})
			return err
		}, "rating"},
		{"rating six", func() error {
			_, err := f.client.RateSeller(ctx, "s1", user.RateRequest{RaterID: "b1", RaterName: "Bola", Rating: 6})
			return err
		}, "rating"},
		{"short otp", func() error {
			_, err := f.client.VerifyCode(ctx, "ada@example.com", "123")
			return err
		}, "code"},
		{"bad email", func() error {
			_, err := f.client.Login(ctx, "not-an-email", "x")
			return err
		}, "email"},
		{"unknown category", func() error {
			_, err := f.client.AddProduct(ctx, product.CreateProductRequest{
				SellerID: "s1", Title: "Sofa", Category: "Spaceships", Condition: product.ConditionUsed,
			})
			return err
		}, "category"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			before := f.transport.n.Load()

			err := tt.run()
			fields, ok := validate.AsErrors(err)
			if !ok {
				t.Fatalf("expected validation errors, got %v", err)
			}
			if fields.Field(tt.field) == "" {
				t.Fatalf("expected an error on %q, got %+v", tt.field, fields)
			}
			if f.transport.n.Load() != before {
				t.Fatalf("no request may be sent for invalid input")
			}
		})
	}
}

func TestListProductsOmitsAllCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seller := f.register(t, "Ada", "ada@example.com", user.RoleSeller)

	for _, c := range []string{"Phones & Tablets", "Fashion"} {
		_, err := f.client.AddProduct(ctx, product.CreateProductRequest{
			SellerID: seller.User.ID, Title: "Item " + c, Price: 1000, Category: c, Condition: product.ConditionNew,
		})
		if err != nil {
			t.Fatalf("AddProduct: %v", err)
		}
	}

	all, err := f.client.ListProducts(ctx, product.ListProductsFilter{Category: product.CategoryAll})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("All should list everything, got %d", len(all))
	}
	if q := f.transport.lastRequest().URL.RawQuery; strings.Contains(q, "category") {
		t.Fatalf("category must be omitted for All, query=%q", q)
	}

	phones, err := f.client.ListProducts(ctx, product.ListProductsFilter{Category: "Phones & Tablets"})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(phones) != 1 || phones[0].SellerID != seller.User.ID {
		t.Fatalf("unexpected filtered list: %+v", phones)
	}

	none, err := f.client.ListProducts(ctx, product.ListProductsFilter{Search: "nothing matches"})
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("empty result should be an empty slice, got %#v, %v", none, err)
	}
}

func TestUpdateProfileRefreshesOnlyOwnSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := f.register(t, "Bola", "bola@example.com", user.RoleSeller)
	me := f.register(t, "Ada", "ada@example.com", user.RoleSeller)

	store := user.Store{Name: "Ada Gadgets", Location: "Lagos"}
	updated, err := f.client.UpdateProfile(ctx, me.User.ID, user.UpdateProfileRequest{Store: &store})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.DisplayStore() != "Ada Gadgets" {
		t.Fatalf("unexpected update: %+v", updated)
	}

	cached, _ := f.sess.CurrentUser(ctx)
	if cached == nil || cached.DisplayStore() != "Ada Gadgets" {
		t.Fatalf("session snapshot not refreshed: %+v", cached)
	}

	// updating someone else is refused by the backend and leaves the snapshot alone
	name := "Hijacked"
	_, err = f.client.UpdateProfile(ctx, other.User.ID, user.UpdateProfileRequest{Name: &name})
	if !errors.Is(err, api.ErrForbidden) {
		t.Fatalf("foreign update err = %v", err)
	}
	cached, _ = f.sess.CurrentUser(ctx)
	if cached.ID != me.User.ID || cached.Name != "Ada" {
		t.Fatalf("snapshot changed after foreign update: %+v", cached)
	}
}

func TestRateSellerAndGetUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seller := f.register(t, "Ada", "ada@example.com", user.RoleSeller)
	buyer := f.register(t, "Bola", "bola@example.com", user.RoleBuyer)

	got, err := f.client.RateSeller(ctx, seller.User.ID, user.RateRequest{
		RaterID: buyer.User.ID, RaterName: buyer.User.Name, Rating: 5, Comment: "honest seller",
	})
	if err != nil {
		t.Fatalf("RateSeller: %v", err)
	}
	if got.ReviewCount != 1 || got.Reviews[0].Comment != "honest seller" {
		t.Fatalf("unexpected seller: %+v", got)
	}

	fetched, err := f.client.GetUser(ctx, seller.User.ID)
	if err != nil || fetched == nil || fetched.Rating != 5 {
		t.Fatalf("GetUser = %+v, %v", fetched, err)
	}

	missing, err := f.client.GetUser(ctx, "does-not-exist")
	if err != nil || missing != nil {
		t.Fatalf("missing user should be nil, nil; got %+v, %v", missing, err)
	}
}

func TestDeleteProductOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.register(t, "Ada", "ada@example.com", user.RoleSeller)
	p, err := f.client.AddProduct(ctx, product.CreateProductRequest{
		SellerID: owner.User.ID, Title: "Sofa", Price: 5000, Category: "Home & Garden", Condition: product.ConditionUsed,
	})
	if err != nil {
		t.Fatalf("AddProduct: %v", err)
	}

	f.register(t, "Bola", "bola@example.com", user.RoleSeller)
	if err := f.client.DeleteProduct(ctx, p.ID); !errors.Is(err, api.ErrForbidden) {
		t.Fatalf("non-owner delete err = %v", err)
	}

	if _, err := f.client.Login(ctx, "ada@example.com", "secret123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.client.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestConnectivityFailure(t *testing.T) {
	f := newFixture(t)
	f.server.Close()

	_, err := f.client.ListProducts(context.Background(), product.ListProductsFilter{})
	if !errors.Is(err, api.ErrConnectivity) {
		t.Fatalf("expected ErrConnectivity, got %v", err)
	}

	stats, err := f.metrics.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(stats) != 1 || stats[0].Op != "list_products" {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestFailureMessageFallback(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{"flat message", http.StatusBadRequest, `{"message":"User already exists"}`, "User already exists", nil},
		{"nested envelope", http.StatusUnauthorized, `{"error":{"code":"x","message":"Token expired"}}`, "Token expired", api.ErrUnauthorized},
		{"no body", http.StatusInternalServerError, ``, "Signup failed", nil},
		{"html body", http.StatusBadGateway, `<html>bad gateway</html>`, "Signup failed", nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			client := api.New(srv.URL, nil, api.Options{})
			_, err := client.Signup(context.Background(), user.SignupRequest{
				Name: "Ada", Email: "ada@example.com", Password: "secret123", Role: user.RoleBuyer,
			})

			var reqErr *api.RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected RequestError, got %v", err)
			}
			if reqErr.Message != tt.want || reqErr.Status != tt.status {
				t.Fatalf("got %d %q, want %d %q", reqErr.Status, reqErr.Message, tt.status, tt.want)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("errors.Is(%v) = false", tt.wantErr)
			}
		})
	}
}

func TestProductListAcceptsBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"_id":"p1","title":"Sofa","seller":{"_id":"s1","name":"Ada"},"images":["https://img/1.png"]}]`)
	}))
	defer srv.Close()

	client := api.New(srv.URL, nil, api.Options{})
	list, err := client.ListProducts(context.Background(), product.ListProductsFilter{})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d", len(list))
	}
	p := list[0]
	if p.ID != "p1" || p.SellerID != "s1" || p.Seller.User == nil || p.CoverImage() != "https://img/1.png" {
		t.Fatalf("unexpected product: %+v", p)
	}
}

func TestVerifyCodeSendsCodeField(t *testing.T) {
	var sent map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/verify-otp" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if sent["code"] == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"code is required"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok","user":{"id":"u1","name":"Ada","email":"ada@example.com","role":"SELLER"}}`))
	}))
	t.Cleanup(srv.Close)

	sess := session.New(session.NewMemoryKV())
	client := api.New(srv.URL, sess, api.Options{})

	res, err := client.VerifyCode(context.Background(), "ada@example.com", fixedCode)
	if err != nil {
		t.Fatalf("VerifyCode: %v (body sent %v)", err, sent)
	}
	if sent["code"] != fixedCode || sent["otp"] != fixedCode || sent["email"] != "ada@example.com" {
		t.Fatalf("unexpected body: %v", sent)
	}
	if res.User.ID != "u1" {
		t.Fatalf("unexpected user: %+v", res.User)
	}

	token, err := sess.Token(context.Background())
	if err != nil || token != "tok" {
		t.Fatalf("session token = %q, %v", token, err)
	}
}
