package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/marketlink/internal/auth"
	"github.com/geocoder89/marketlink/internal/config"
	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/geocoder89/marketlink/internal/notifications"
	"github.com/geocoder89/marketlink/internal/repo/memory"
	"github.com/geocoder89/marketlink/internal/security"
	"github.com/gin-gonic/gin"
)

type AccountStore interface {
	ReplaceUnverified(email, passwordHash, name string, role user.Role) (user.User, error)
	GetAccountByEmail(email string) (memory.Account, error)
	MarkVerified(id string) (user.User, error)
}

type CodeStore interface {
	Issue(email, code string)
	Consume(email, code string) error
}

type AuthHandler struct {
	accounts AccountStore
	codes    CodeStore
	notifier notifications.Notifier
	jwt      *auth.Manager
	cfg      config.Config
	log      *slog.Logger
}

func NewAuthHandler(accounts AccountStore, codes CodeStore, notifier notifications.Notifier, jwtManager *auth.Manager, cfg config.Config, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		codes:    codes,
		notifier: notifier,
		jwt:      jwtManager,
		cfg:      cfg,
		log:      log,
	}
}

// verifyBody reads "code", falling back to "otp" for older clients.
type verifyBody struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
	Code  string `json:"code"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req user.SignupRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		RespondInternal(ctx, "Signup failed")
		return
	}

	u, err := h.accounts.ReplaceUnverified(req.Email, hash, req.Name, req.Role)
	if err != nil {
		if errors.Is(err, memory.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "email_taken", "User already exists")
			return
		}
		RespondInternal(ctx, "Signup failed")
		return
	}

	code := h.cfg.OTPFixedCode
	if code == "" {
		code, err = security.NewOTP()
		if err != nil {
			RespondInternal(ctx, "Signup failed")
			return
		}
	}
	h.codes.Issue(u.Email, code)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err = h.notifier.SendOneTimeCode(cctx, notifications.SendOneTimeCodeInput{
		Email: u.Email,
		Name:  u.Name,
		Code:  code,
	})
	if err != nil {
		// the account exists; the user can sign up again to get a fresh code
		h.log.WarnContext(ctx.Request.Context(), "otp_dispatch_failed", "email", u.Email, "err", err)
		RespondError(ctx, http.StatusServiceUnavailable, "otp_unavailable", "Could not send verification code", nil)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Verification code sent to " + u.Email,
	})
}

func (h *AuthHandler) VerifyOTP(ctx *gin.Context) {
	var body verifyBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(ctx, "Invalid request body", parseDecodeError(err, &body))
		return
	}

	code := body.Code
	if code == "" {
		code = body.OTP
	}

	req := user.VerifyCodeRequest{Email: strings.TrimSpace(body.Email), Code: strings.TrimSpace(code)}
	if !validateRequest(ctx, req) {
		return
	}

	if err := h.codes.Consume(req.Email, req.Code); err != nil {
		message := "Invalid OTP"
		if errors.Is(err, memory.ErrOTPExpired) {
			message = "OTP expired, please sign up again"
		}
		RespondBadRequest(ctx, message, nil)
		return
	}

	acc, err := h.accounts.GetAccountByEmail(req.Email)
	if err != nil {
		RespondBadRequest(ctx, "Invalid OTP", nil)
		return
	}

	u, err := h.accounts.MarkVerified(acc.User.ID)
	if err != nil {
		RespondInternal(ctx, "Verification failed")
		return
	}

	h.respondWithToken(ctx, http.StatusOK, u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	acc, err := h.accounts.GetAccountByEmail(req.Email)
	if err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid credentials")
		return
	}

	if err := security.CheckPassword(acc.PasswordHash, req.Password); err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid credentials")
		return
	}

	if !acc.Verified {
		RespondForbidden(ctx, "Please verify your email first")
		return
	}

	h.respondWithToken(ctx, http.StatusOK, acc.User)
}

func (h *AuthHandler) respondWithToken(ctx *gin.Context, status int, u user.User) {
	token, err := h.jwt.GenerateAccessToken(u.ID, u.Email, string(u.Role))
	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(status, user.AuthResponse{Token: token, User: u})
}
