// Package session holds the client's single authentication session: one
// bearer token plus a denormalized snapshot of the logged-in user.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/geocoder89/marketlink/internal/domain/user"
)

// Well-known storage keys.
const (
	KeyToken = "token"
	KeyUser  = "user_session"
)

var (
	ErrMissingToken = errors.New("session token is required")
	ErrMissingUser  = errors.New("session user is required")
	ErrKeyNotFound  = errors.New("key not found")
)

// KV is the persistent key-value backend behind a Session.
// Get returns ErrKeyNotFound for absent keys.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Listener is told about every change to the session; u is nil after Clear.
type Listener func(u *user.User)

// Session is the observable session context. Pass it explicitly to whatever
// needs the current user.
type Session struct {
	kv KV

	mu        sync.Mutex
	nextID    int
	listeners map[int]Listener
	// seq numbers writes in the order they hit kv
	seq uint64

	notifyMu  sync.Mutex
	delivered uint64
}

func New(kv KV) *Session {
	return &Session{
		kv:        kv,
		listeners: make(map[int]Listener),
	}
}

// Save writes the token and then the user snapshot. A failure on the second
// write leaves the backend with a token but no user; Token and CurrentUser
// both treat that state as "no session".
func (s *Session) Save(ctx context.Context, token string, u *user.User) error {
	if token == "" {
		return ErrMissingToken
	}
	if u == nil {
		return ErrMissingUser
	}

	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}

	s.mu.Lock()
	err = s.kv.Set(ctx, KeyToken, token)
	if err == nil {
		err = s.kv.Set(ctx, KeyUser, string(raw))
	}
	seq := s.nextSeqLocked()
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.notify(seq, u)
	return nil
}

// CurrentUser returns the cached snapshot or nil when there is no session.
// It never touches the network and can be stale.
func (s *Session) CurrentUser(ctx context.Context) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, u, err := s.load(ctx)
	return u, err
}

// Token returns the bearer token or "" when there is no session.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, _, err := s.load(ctx)
	return token, err
}

// RefreshUser replaces the snapshot when a session exists; otherwise it is a no-op.
func (s *Session) RefreshUser(ctx context.Context, u *user.User) error {
	if u == nil {
		return ErrMissingUser
	}

	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}

	s.mu.Lock()
	token, _, err := s.load(ctx)
	if err == nil && token != "" {
		err = s.kv.Set(ctx, KeyUser, string(raw))
	}
	seq := s.nextSeqLocked()
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("refresh session user: %w", err)
	}
	if token == "" {
		return nil
	}

	s.notify(seq, u)
	return nil
}

// Clear removes token and snapshot together.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	err := s.kv.Delete(ctx, KeyToken, KeyUser)
	seq := s.nextSeqLocked()
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	s.notify(seq, nil)
	return nil
}

// Subscribe registers fn and returns a function that removes it.
func (s *Session) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) nextSeqLocked() uint64 {
	s.seq++
	return s.seq
}

// notify delivers the change made by write seq. Deliveries are serialized and
// a change older than one already delivered is dropped, so listeners always
// end on the state the backend was last written with.
func (s *Session) notify(seq uint64, u *user.User) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if seq <= s.delivered {
		return
	}
	s.delivered = seq

	s.mu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		if u == nil {
			fn(nil)
			continue
		}
		cp := *u
		fn(&cp)
	}
}

// load reads both keys; a half-written session is reported as empty.
// Caller holds s.mu.
func (s *Session) load(ctx context.Context) (string, *user.User, error) {
	token, err := s.kv.Get(ctx, KeyToken)
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("read session token: %w", err)
	}

	raw, err := s.kv.Get(ctx, KeyUser)
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("read session user: %w", err)
	}

	if token == "" || raw == "" {
		return "", nil, nil
	}

	var u user.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return "", nil, fmt.Errorf("decode session user: %w", err)
	}

	return token, &u, nil
}
