package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/geocoder89/marketlink/internal/security"
)

var (
	ErrOTPInvalid = errors.New("invalid otp")
	ErrOTPExpired = errors.New("otp expired")
)

type pendingCode struct {
	code      string
	expiresAt time.Time
}

// OTPRepo holds at most one outstanding code per email. Issuing a new code
// replaces the previous one.
type OTPRepo struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	codes map[string]pendingCode
}

func NewOTPRepo(ttl time.Duration) *OTPRepo {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OTPRepo{
		ttl:   ttl,
		now:   time.Now,
		codes: make(map[string]pendingCode),
	}
}

func (r *OTPRepo) Issue(email, code string) {
	r.mu.Lock()
	r.codes[normEmail(email)] = pendingCode{code: code, expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()
}

// Consume checks the code and removes it on success. A wrong code leaves the
// pending code in place.
func (r *OTPRepo) Consume(email, code string) error {
	key := normEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.codes[key]
	if !ok {
		return ErrOTPInvalid
	}
	if r.now().After(p.expiresAt) {
		delete(r.codes, key)
		return ErrOTPExpired
	}
	if !security.OTPEqual(p.code, code) {
		return ErrOTPInvalid
	}

	delete(r.codes, key)
	return nil
}
