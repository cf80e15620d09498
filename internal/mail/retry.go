package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetrySender wraps another Sender with a bounded retry budget. Backoff grows
// linearly: base, 2*base, ... between attempts.
type RetrySender struct {
	next     Sender
	attempts int
	base     time.Duration
	logger   *slog.Logger
}

// NewRetrySender constructs a RetrySender. attempts counts total delivery
// attempts, not retries.
func NewRetrySender(next Sender, attempts int, base time.Duration, logger *slog.Logger) *RetrySender {
	if attempts < 1 {
		attempts = 1
	}
	return &RetrySender{next: next, attempts: attempts, base: base, logger: logger}
}

// Send delivers the message, retrying on failure until the budget is spent.
func (s *RetrySender) Send(ctx context.Context, msg Message) error {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		lastErr = s.next.Send(ctx, msg)
		if lastErr == nil {
			return nil
		}
		if s.logger != nil {
			s.logger.Warn("mail delivery failed",
				slog.String("template", msg.Template),
				slog.Int("attempt", attempt),
				slog.Any("error", lastErr))
		}
		if attempt == s.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.base * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("mail: giving up after %d attempts: %w", s.attempts, lastErr)
}
