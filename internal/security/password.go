package security

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const OTPLength = 6

// Hash password hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// helper that compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// NewOTP returns a zero-padded numeric one-time code.
func NewOTP() (string, error) {
	buf := make([]byte, OTPLength)
	ten := big.NewInt(10)

	for i := range buf {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}

// OTPEqual compares codes in constant time.
func OTPEqual(issued, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(issued), []byte(submitted)) == 1
}
