package memory

import (
	"sync"
	"time"
)

type ContactMessage struct {
	Email      string
	Message    string
	ReceivedAt time.Time
}

type ContactRepo struct {
	mu    sync.Mutex
	items []ContactMessage
}

func NewContactRepo() *ContactRepo {
	return &ContactRepo{}
}

func (r *ContactRepo) Append(email, message string) ContactMessage {
	m := ContactMessage{Email: email, Message: message, ReceivedAt: time.Now().UTC()}

	r.mu.Lock()
	r.items = append(r.items, m)
	r.mu.Unlock()

	return m
}

func (r *ContactRepo) All() []ContactMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ContactMessage, len(r.items))
	copy(out, r.items)
	return out
}
