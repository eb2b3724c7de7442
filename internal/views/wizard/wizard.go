// Package wizard is the authentication state machine: login, signup,
// one-time-code verification and the informational forgot-password step.
package wizard

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/geocoder89/marketlink/internal/api"
	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/geocoder89/marketlink/internal/validate"
)

type State string

const (
	StateLogin          State = "login"
	StateSignup         State = "signup"
	StateOTPPending     State = "otp-pending"
	StateForgotPassword State = "forgot-password"
)

// Where to go once a session exists.
const (
	NextHome      = "home"
	NextDashboard = "dashboard"
)

const forgotPasswordNotice = "Not configured in demo."

var (
	ErrBusy       = errors.New("a request is already in progress")
	ErrWrongState = errors.New("action not available in this step")
	ErrFinished   = errors.New("wizard already finished")
)

type Gateway interface {
	Signup(ctx context.Context, req user.SignupRequest) (api.SignupAck, error)
	VerifyCode(ctx context.Context, email, code string) (*user.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*user.AuthResponse, error)
}

// Snapshot is a copy of the wizard's render state.
type Snapshot struct {
	State        State
	Loading      bool
	Error        string
	FieldErrors  map[string]string
	Notice       string
	PendingEmail string
	Done         bool
	User         *user.User
	Next         string
}

type Options struct {
	// OnDone runs once, after the session is established, outside the lock.
	OnDone func(u user.User, next string)
}

type View struct {
	ctx context.Context
	gw  Gateway
	opt Options

	mu           sync.Mutex
	state        State
	loading      bool
	errMsg       string
	fields       map[string]string
	notice       string
	pendingEmail string
	done         bool
	user         *user.User
	next         string
}

// New starts the wizard in StateLogin or StateSignup; anything else starts at
// login. ctx is the view's lifetime: results arriving after it ends are dropped.
func New(ctx context.Context, gw Gateway, initial State, opt Options) *View {
	if initial != StateSignup {
		initial = StateLogin
	}
	return &View{ctx: ctx, gw: gw, opt: opt, state: initial}
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	var fields map[string]string
	if len(v.fields) > 0 {
		fields = make(map[string]string, len(v.fields))
		for k, msg := range v.fields {
			fields[k] = msg
		}
	}

	var u *user.User
	if v.user != nil {
		cp := *v.user
		u = &cp
	}

	return Snapshot{
		State:        v.state,
		Loading:      v.loading,
		Error:        v.errMsg,
		FieldErrors:  fields,
		Notice:       v.notice,
		PendingEmail: v.pendingEmail,
		Done:         v.done,
		User:         u,
		Next:         v.next,
	}
}

// Toggle switches between login and signup and clears any error.
func (v *View) Toggle() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.loading {
		return ErrBusy
	}
	switch v.state {
	case StateLogin:
		v.state = StateSignup
	case StateSignup:
		v.state = StateLogin
	default:
		return ErrWrongState
	}
	v.clearMessagesLocked()
	return nil
}

// ForgotPassword moves from login to the forgot-password step.
func (v *View) ForgotPassword() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.loading {
		return ErrBusy
	}
	if v.state != StateLogin {
		return ErrWrongState
	}
	v.state = StateForgotPassword
	v.clearMessagesLocked()
	return nil
}

// SubmitForgotPassword validates the email, explains that resets are not
// available and returns to login. No request is sent.
func (v *View) SubmitForgotPassword(email string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != StateForgotPassword {
		return ErrWrongState
	}
	if err := validate.Var("email", strings.TrimSpace(email), "required,email"); err != nil {
		v.setErrorLocked(err)
		return err
	}

	v.state = StateLogin
	v.clearMessagesLocked()
	v.notice = forgotPasswordNotice
	return nil
}

// Back leaves otp-pending (or forgot-password) for login. The issued code is
// left alone; it stays valid on the backend.
func (v *View) Back() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.loading {
		return ErrBusy
	}
	if v.state != StateOTPPending && v.state != StateForgotPassword {
		return ErrWrongState
	}
	v.state = StateLogin
	v.clearMessagesLocked()
	return nil
}

func (v *View) SubmitLogin(email, password string) error {
	if err := v.begin(StateLogin); err != nil {
		return err
	}

	res, err := v.gw.Login(v.ctx, strings.TrimSpace(email), password)
	return v.finishAuth(res, err)
}

func (v *View) SubmitSignup(req user.SignupRequest) error {
	if err := v.begin(StateSignup); err != nil {
		return err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	ack, err := v.gw.Signup(v.ctx, req)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ctx.Err() != nil {
		return v.ctx.Err()
	}
	v.loading = false

	if err != nil {
		v.setErrorLocked(err)
		return err
	}

	v.state = StateOTPPending
	v.pendingEmail = ack.Email
	v.notice = ack.Message
	return nil
}

func (v *View) SubmitCode(code string) error {
	if err := v.begin(StateOTPPending); err != nil {
		return err
	}

	v.mu.Lock()
	email := v.pendingEmail
	v.mu.Unlock()

	res, err := v.gw.VerifyCode(v.ctx, email, strings.TrimSpace(code))
	return v.finishAuth(res, err)
}

// begin checks the step and flips Loading on; only one submit runs at a time.
func (v *View) begin(want State) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.done {
		return ErrFinished
	}
	if v.loading {
		return ErrBusy
	}
	if v.state != want {
		return ErrWrongState
	}

	v.loading = true
	v.clearMessagesLocked()
	return nil
}

func (v *View) finishAuth(res *user.AuthResponse, err error) error {
	v.mu.Lock()

	if v.ctx.Err() != nil {
		v.mu.Unlock()
		return v.ctx.Err()
	}
	v.loading = false

	if err != nil {
		v.setErrorLocked(err)
		v.mu.Unlock()
		return err
	}

	u := res.User
	v.done = true
	v.user = &u
	v.next = NextHome
	if u.IsSeller() {
		v.next = NextDashboard
	}
	next := v.next
	v.mu.Unlock()

	if v.opt.OnDone != nil {
		v.opt.OnDone(u, next)
	}
	return nil
}

func (v *View) clearMessagesLocked() {
	v.errMsg = ""
	v.fields = nil
	v.notice = ""
}

// setErrorLocked shows field errors inline and everything else as one message.
func (v *View) setErrorLocked(err error) {
	if fields, ok := validate.AsErrors(err); ok {
		v.fields = fields.ByField()
		v.errMsg = ""
		return
	}
	v.errMsg = err.Error()
}
