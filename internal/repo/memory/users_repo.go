package memory

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrEmailAlreadyUsed = errors.New("email already in use")
)

// Account is the stored form of a user; the hash never leaves the backend.
type Account struct {
	User         user.User
	PasswordHash string
	Verified     bool
}

type UsersRepo struct {
	mu      sync.RWMutex
	items   map[string]*Account // id -> account
	byEmail map[string]string   // lowercased email -> id
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:   make(map[string]*Account),
		byEmail: make(map[string]string),
	}
}

func normEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UsersRepo) Create(email, passwordHash, name string, role user.Role) (user.User, error) {
	key := normEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[key]; taken {
		return user.User{}, ErrEmailAlreadyUsed
	}

	u := user.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     strings.TrimSpace(email),
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	r.items[u.ID] = &Account{User: u, PasswordHash: passwordHash}
	r.byEmail[key] = u.ID

	return u, nil
}

// ReplaceUnverified lets someone restart a signup that never completed
// verification, instead of locking the email forever.
func (r *UsersRepo) ReplaceUnverified(email, passwordHash, name string, role user.Role) (user.User, error) {
	key := normEmail(email)

	r.mu.Lock()
	id, taken := r.byEmail[key]
	if taken && !r.items[id].Verified {
		delete(r.items, id)
		delete(r.byEmail, key)
	}
	r.mu.Unlock()

	return r.Create(email, passwordHash, name, role)
}

func (r *UsersRepo) GetAccountByEmail(email string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normEmail(email)]
	if !ok {
		return Account{}, ErrNotFound
	}
	return *r.items[id], nil
}

func (r *UsersRepo) GetByID(id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.items[id]
	if !ok {
		return user.User{}, ErrNotFound
	}
	return acc.User, nil
}

// List returns verified users, oldest first.
func (r *UsersRepo) List() []user.User {
	r.mu.RLock()
	out := make([]user.User, 0, len(r.items))
	for _, acc := range r.items {
		if acc.Verified {
			out = append(out, acc.User)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *UsersRepo) MarkVerified(id string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.items[id]
	if !ok {
		return user.User{}, ErrNotFound
	}
	acc.Verified = true
	return acc.User, nil
}

// Update applies a partial profile update. Nested store/social objects are
// replaced as a whole when present.
func (r *UsersRepo) Update(id string, req user.UpdateProfileRequest) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.items[id]
	if !ok {
		return user.User{}, ErrNotFound
	}

	if req.Name != nil {
		acc.User.Name = *req.Name
	}
	if req.Store != nil {
		s := *req.Store
		acc.User.Store = &s
	}
	if req.Social != nil {
		s := *req.Social
		acc.User.Social = &s
	}
	if req.ProfileImage != nil {
		acc.User.ProfileImage = *req.ProfileImage
	}

	return acc.User, nil
}

// AddReview appends a review and recomputes the rating aggregate.
func (r *UsersRepo) AddReview(sellerID string, review user.Review) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.items[sellerID]
	if !ok {
		return user.User{}, ErrNotFound
	}

	review.ID = uuid.NewString()
	review.CreatedAt = time.Now().UTC()
	acc.User.Reviews = append(acc.User.Reviews, review)

	total := 0
	for _, rv := range acc.User.Reviews {
		total += rv.Rating
	}
	acc.User.ReviewCount = len(acc.User.Reviews)
	acc.User.Rating = float64(total) / float64(acc.User.ReviewCount)

	return acc.User, nil
}
