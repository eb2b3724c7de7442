package notifications

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyNotifier struct {
	fail  bool
	calls int
}

func (f *flakyNotifier) SendOneTimeCode(context.Context, SendOneTimeCodeInput) error {
	f.calls++
	if f.fail {
		return errors.New("smtp down")
	}
	return nil
}

func TestProtectedNotifierOpensAndRecovers(t *testing.T) {
	inner := &flakyNotifier{fail: true}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 2, Cooldown: time.Minute})

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return clock }

	ctx := context.Background()
	in := SendOneTimeCodeInput{Email: "ada@example.com", Code: "482913"}

	_ = n.SendOneTimeCode(ctx, in)
	_ = n.SendOneTimeCode(ctx, in)

	if err := n.SendOneTimeCode(ctx, in); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("inner called %d times while open", inner.calls)
	}

	clock = clock.Add(2 * time.Minute)
	inner.fail = false

	if err := n.SendOneTimeCode(ctx, in); err != nil {
		t.Fatalf("half-open trial should pass: %v", err)
	}
	if err := n.SendOneTimeCode(ctx, in); err != nil {
		t.Fatalf("circuit should be closed again: %v", err)
	}
}

func TestRecordingNotifier(t *testing.T) {
	n := NewRecordingNotifier()
	_ = n.SendOneTimeCode(context.Background(), SendOneTimeCodeInput{Email: "ada@example.com", Code: "111111"})
	_ = n.SendOneTimeCode(context.Background(), SendOneTimeCodeInput{Email: "ada@example.com", Code: "482913"})

	if got := n.LastCode("ada@example.com"); got != "482913" {
		t.Fatalf("LastCode = %q", got)
	}
}
