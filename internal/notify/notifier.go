// Package notify delivers out-of-band user notifications. Delivery is
// best-effort: failures are logged and never surfaced to the request that
// triggered them.
package notify

import (
	"context"
	"log"
	"time"
)

// Notifier dispatches user-facing notifications through an external channel
type Notifier interface {
	SendWelcome(ctx context.Context, email, name string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

// dispatchTimeout bounds a single async delivery attempt
const dispatchTimeout = 10 * time.Second

// LogNotifier writes notifications to the process log. It stands in for a
// real mail provider in development and tests.
type LogNotifier struct{}

// NewLogNotifier creates a new log-backed notifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// SendWelcome logs a welcome notification
func (n *LogNotifier) SendWelcome(ctx context.Context, email, name string) error {
	log.Printf("[notify] welcome queued for %s (name=%s)", email, name)
	return nil
}

// SendPasswordReset logs a password reset dispatch. The token travels only
// through this channel, never in an HTTP response.
func (n *LogNotifier) SendPasswordReset(ctx context.Context, email, token string) error {
	log.Printf("[notify] password reset queued for %s", email)
	return nil
}

// Async runs a notification delivery in the background with its own timeout,
// detached from the request context so it cannot block or fail the response.
func Async(fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			log.Printf("[notify] delivery failed: %v", err)
		}
	}()
}
