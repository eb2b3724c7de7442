package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"
)

// LogNotifier "sends" codes by logging them; the development backend has no
// mail provider.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier { return &LogNotifier{log: log} }

func (n *LogNotifier) SendOneTimeCode(ctx context.Context, in SendOneTimeCodeInput) error {
	// Optional: simulate slow provider
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Optional: simulate provider outage
	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	n.log.InfoContext(ctx, "notification.one_time_code", "email", in.Email, "name", in.Name, "code", in.Code)
	return nil
}

// RecordingNotifier keeps the last code per email; tests read codes from it.
type RecordingNotifier struct {
	mu    sync.Mutex
	codes map[string]string
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{codes: make(map[string]string)}
}

func (n *RecordingNotifier) SendOneTimeCode(_ context.Context, in SendOneTimeCodeInput) error {
	n.mu.Lock()
	n.codes[in.Email] = in.Code
	n.mu.Unlock()
	return nil
}

func (n *RecordingNotifier) LastCode(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[email]
}
