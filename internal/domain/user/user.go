package user

import (
	"encoding/json"
	"errors"
	"time"
)

type Role string

const (
	RoleBuyer  Role = "BUYER"
	RoleSeller Role = "SELLER"
	RoleAdmin  Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

var ErrNotFound = errors.New("user not found")

// Store is the seller's storefront profile.
type Store struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

type Social struct {
	WhatsApp  string `json:"whatsapp,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
}

// Review is immutable once created.
type Review struct {
	ID        string    `json:"id,omitempty"`
	RaterID   string    `json:"raterId"`
	RaterName string    `json:"raterName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Store        *Store    `json:"store,omitempty"`
	Social       *Social   `json:"social,omitempty"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Rating       float64   `json:"rating,omitempty"`
	ReviewCount  int       `json:"reviewCount,omitempty"`
	Reviews      []Review  `json:"reviews,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts "_id" when the backend omits "id".
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.MongoID
	}

	return nil
}

func (u User) IsSeller() bool { return u.Role == RoleSeller }

// WhatsApp returns the messaging handle used for the buyer-seller hand-off.
func (u User) WhatsApp() string {
	if u.Social == nil {
		return ""
	}
	return u.Social.WhatsApp
}

// DisplayStore falls back to the user's name when no storefront is set.
func (u User) DisplayStore() string {
	if u.Store != nil && u.Store.Name != "" {
		return u.Store.Name
	}
	return u.Name
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     Role   `json:"role" validate:"required,oneof=BUYER SELLER"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyCodeRequest carries the code as "code". OTP repeats it for backends
// that still read "otp".
type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
	OTP   string `json:"otp,omitempty"`
}

// UpdateProfileRequest is a partial update; nil fields are left untouched.
type UpdateProfileRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Store        *Store  `json:"store,omitempty"`
	Social       *Social `json:"social,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`
}

type RateRequest struct {
	RaterID   string `json:"raterId" validate:"required"`
	RaterName string `json:"raterName" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"omitempty,max=1000"`
}

// AuthResponse is what login and OTP verification return.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
