package notifications

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

type ProtectedNotifierConfig struct {
	Timeout          time.Duration // hard timeout per send
	FailureThreshold int           // consecutive failures to open circuit
	Cooldown         time.Duration // how long to stay open before half-open
}

// ProtectedNotifier bounds each send with a timeout and stops calling a
// failing provider for a cooldown period, so signup fails fast instead of
// hanging on a dead mail provider. Half-open admits a single trial send.
type ProtectedNotifier struct {
	inner Notifier
	cfg   ProtectedNotifierConfig
	now   func() time.Time

	mu                  sync.Mutex
	state               breakerState
	consecutiveFailures int
	openedAt            time.Time
	trialInFlight       bool
}

func NewProtectedNotifier(inner Notifier, cfg ProtectedNotifierConfig) *ProtectedNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}

	return &ProtectedNotifier{
		inner: inner,
		cfg:   cfg,
		now:   time.Now,
		state: stateClosed,
	}
}

func (n *ProtectedNotifier) SendOneTimeCode(ctx context.Context, input SendOneTimeCodeInput) error {
	trial, ok := n.admit()
	if !ok {
		return ErrCircuitOpen
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	err := n.inner.SendOneTimeCode(sendCtx, input)
	n.record(trial, err)

	return err
}

func (n *ProtectedNotifier) admit() (trial bool, ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case stateOpen:
		if n.now().Sub(n.openedAt) < n.cfg.Cooldown {
			return false, false
		}
		n.state = stateHalfOpen
		n.trialInFlight = true
		return true, true
	case stateHalfOpen:
		if n.trialInFlight {
			return false, false
		}
		n.trialInFlight = true
		return true, true
	default:
		return false, true
	}
}

func (n *ProtectedNotifier) record(trial bool, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if trial {
		n.trialInFlight = false
	}

	if err == nil {
		n.consecutiveFailures = 0
		n.state = stateClosed
		return
	}

	n.consecutiveFailures++

	if n.state == stateHalfOpen || n.consecutiveFailures >= n.cfg.FailureThreshold {
		n.state = stateOpen
		n.openedAt = n.now()
	}
}
