package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/geocoder89/marketlink/internal/api"
	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/geocoder89/marketlink/internal/validate"
)

type fakeGateway struct {
	signupFn func(ctx context.Context, req user.SignupRequest) (api.SignupAck, error)
	verifyFn func(ctx context.Context, email, code string) (*user.AuthResponse, error)
	loginFn  func(ctx context.Context, email, password string) (*user.AuthResponse, error)
}

func (f *fakeGateway) Signup(ctx context.Context, req user.SignupRequest) (api.SignupAck, error) {
	return f.signupFn(ctx, req)
}

func (f *fakeGateway) VerifyCode(ctx context.Context, email, code string) (*user.AuthResponse, error) {
	return f.verifyFn(ctx, email, code)
}

func (f *fakeGateway) Login(ctx context.Context, email, password string) (*user.AuthResponse, error) {
	return f.loginFn(ctx, email, password)
}

// scenarioGateway issues "482913" and only accepts it; saved records what
// would have been written to the session.
func scenarioGateway(saved *[]string) *fakeGateway {
	return &fakeGateway{
		signupFn: func(_ context.Context, req user.SignupRequest) (api.SignupAck, error) {
			if err := validate.Struct(req); err != nil {
				return api.SignupAck{}, err
			}
			return api.SignupAck{Message: "Verification code sent", Email: req.Email}, nil
		},
		verifyFn: func(_ context.Context, email, code string) (*user.AuthResponse, error) {
			if code != "482913" {
				return nil, &api.RequestError{Status: 400, Message: "Invalid OTP"}
			}
			*saved = append(*saved, email)
			return &user.AuthResponse{Token: "tok", User: user.User{ID: "u1", Email: email, Role: user.RoleSeller}}, nil
		},
		loginFn: func(_ context.Context, email, password string) (*user.AuthResponse, error) {
			if err := validate.Struct(user.LoginRequest{Email: email, Password: password}); err != nil {
				return nil, err
			}
			return &user.AuthResponse{Token: "tok", User: user.User{ID: "u2", Email: email, Role: user.RoleBuyer}}, nil
		},
	}
}

func TestSignupToOTPScenario(t *testing.T) {
	var saved []string
	var doneNext string

	v := New(context.Background(), scenarioGateway(&saved), StateSignup, Options{
		OnDone: func(_ user.User, next string) { doneNext = next },
	})

	err := v.SubmitSignup(user.SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "secret123", Role: user.RoleSeller})
	if err != nil {
		t.Fatalf("SubmitSignup: %v", err)
	}

	snap := v.Snapshot()
	if snap.State != StateOTPPending || snap.PendingEmail != "ada@example.com" {
		t.Fatalf("unexpected state after signup: %+v", snap)
	}
	if len(saved) != 0 || snap.Done {
		t.Fatalf("no session may exist before verification")
	}

	if err := v.SubmitCode("000000"); err == nil {
		t.Fatalf("wrong code should fail")
	}
	snap = v.Snapshot()
	if snap.State != StateOTPPending || snap.Error != "Invalid OTP" || len(saved) != 0 {
		t.Fatalf("wrong code: %+v saved=%v", snap, saved)
	}

	if err := v.SubmitCode("482913"); err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}
	snap = v.Snapshot()
	if !snap.Done || snap.User.Role != user.RoleSeller || snap.Next != NextDashboard || doneNext != NextDashboard {
		t.Fatalf("unexpected final state: %+v", snap)
	}
	if len(saved) != 1 {
		t.Fatalf("session should be written once, got %v", saved)
	}

	if err := v.SubmitCode("482913"); !errors.Is(err, ErrFinished) {
		t.Fatalf("submit after done = %v", err)
	}
}

func TestSignupFailureStaysOnSignup(t *testing.T) {
	gw := &fakeGateway{
		signupFn: func(context.Context, user.SignupRequest) (api.SignupAck, error) {
			return api.SignupAck{}, &api.RequestError{Status: 409, Message: "User already exists"}
		},
	}
	v := New(context.Background(), gw, StateSignup, Options{})

	_ = v.SubmitSignup(user.SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "secret123", Role: user.RoleBuyer})

	snap := v.Snapshot()
	if snap.State != StateSignup || snap.Error != "User already exists" || snap.Loading {
		t.Fatalf("unexpected state: %+v", snap)
	}
}

func TestFieldErrorsAreInline(t *testing.T) {
	var saved []string
	v := New(context.Background(), scenarioGateway(&saved), StateSignup, Options{})

	err := v.SubmitSignup(user.SignupRequest{Name: "", Email: "nope", Password: "123", Role: user.RoleSeller})
	if _, ok := validate.AsErrors(err); !ok {
		t.Fatalf("expected validation errors, got %v", err)
	}

	snap := v.Snapshot()
	for _, field := range []string{"name", "email", "password"} {
		if snap.FieldErrors[field] == "" {
			t.Fatalf("missing inline error for %s: %+v", field, snap.FieldErrors)
		}
	}
	if snap.Error != "" || snap.State != StateSignup {
		t.Fatalf("validation should not set the banner error: %+v", snap)
	}
}

func TestLoginRoutesBuyersHome(t *testing.T) {
	var saved []string
	v := New(context.Background(), scenarioGateway(&saved), StateLogin, Options{})

	if err := v.SubmitLogin("bola@example.com", "secret123"); err != nil {
		t.Fatalf("SubmitLogin: %v", err)
	}
	if snap := v.Snapshot(); !snap.Done || snap.Next != NextHome {
		t.Fatalf("unexpected state: %+v", snap)
	}
}

func TestTransitions(t *testing.T) {
	var saved []string
	v := New(context.Background(), scenarioGateway(&saved), State("bogus"), Options{})

	if v.Snapshot().State != StateLogin {
		t.Fatalf("unknown initial state should start at login")
	}

	if err := v.Back(); !errors.Is(err, ErrWrongState) {
		t.Fatalf("back from login = %v", err)
	}

	_ = v.SubmitLogin("bad", "")
	if v.Snapshot().FieldErrors == nil {
		t.Fatalf("expected field errors")
	}
	if err := v.Toggle(); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if snap := v.Snapshot(); snap.State != StateSignup || snap.FieldErrors != nil || snap.Error != "" {
		t.Fatalf("toggle should clear errors: %+v", snap)
	}
	_ = v.Toggle()

	if err := v.ForgotPassword(); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if err := v.SubmitForgotPassword("ada@example.com"); err != nil {
		t.Fatalf("SubmitForgotPassword: %v", err)
	}
	if snap := v.Snapshot(); snap.State != StateLogin || snap.Notice != forgotPasswordNotice {
		t.Fatalf("forgot password should return to login with a notice: %+v", snap)
	}

	_ = v.Toggle()
	_ = v.SubmitSignup(user.SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "secret123", Role: user.RoleBuyer})
	if err := v.Back(); err != nil {
		t.Fatalf("Back: %v", err)
	}
	if snap := v.Snapshot(); snap.State != StateLogin || snap.Done {
		t.Fatalf("back should return to login: %+v", snap)
	}
}

func TestSecondSubmitWhileLoadingIsRejected(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})

	gw := &fakeGateway{
		loginFn: func(ctx context.Context, email, _ string) (*user.AuthResponse, error) {
			close(entered)
			<-release
			return &user.AuthResponse{Token: "tok", User: user.User{ID: "u1"}}, nil
		},
	}
	v := New(context.Background(), gw, StateLogin, Options{})

	errCh := make(chan error, 1)
	go func() { errCh <- v.SubmitLogin("ada@example.com", "secret123") }()

	<-entered
	if !v.Snapshot().Loading {
		t.Fatalf("expected Loading while in flight")
	}
	if err := v.SubmitLogin("ada@example.com", "secret123"); !errors.Is(err, ErrBusy) {
		t.Fatalf("second submit = %v", err)
	}

	close(release)
	if err := <-errCh; err != nil {
		t.Fatalf("first submit: %v", err)
	}
}

func TestLateResultAfterTeardownIsDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	called := false

	gw := &fakeGateway{
		loginFn: func(context.Context, string, string) (*user.AuthResponse, error) {
			cancel()
			return &user.AuthResponse{Token: "tok", User: user.User{ID: "u1"}}, nil
		},
	}
	v := New(ctx, gw, StateLogin, Options{OnDone: func(user.User, string) { called = true }})

	if err := v.SubmitLogin("ada@example.com", "secret123"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if v.Snapshot().Done || called {
		t.Fatalf("late result must not update a torn-down view")
	}
}
