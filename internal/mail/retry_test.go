package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type flakySender struct {
	calls     int
	failUntil int
}

func (s *flakySender) Send(_ context.Context, _ Message) error {
	s.calls++
	if s.calls <= s.failUntil {
		return errors.New("connection refused")
	}
	return nil
}

func TestRetrySenderSucceedsWithinBudget(t *testing.T) {
	next := &flakySender{failUntil: 2}
	sender := NewRetrySender(next, 3, time.Millisecond, nil)

	err := sender.Send(context.Background(), Message{To: "a@example.com", Template: TemplateWelcome})
	require.NoError(t, err)
	require.Equal(t, 3, next.calls)
}

func TestRetrySenderGivesUp(t *testing.T) {
	next := &flakySender{failUntil: 10}
	sender := NewRetrySender(next, 3, time.Millisecond, nil)

	err := sender.Send(context.Background(), Message{To: "a@example.com", Template: TemplateForgotPassword})
	require.Error(t, err)
	require.Equal(t, 3, next.calls)
	require.Contains(t, err.Error(), "giving up after 3 attempts")
}

func TestRetrySenderFirstTryNoSleep(t *testing.T) {
	next := &flakySender{}
	sender := NewRetrySender(next, 3, time.Hour, nil)

	start := time.Now()
	err := sender.Send(context.Background(), Message{To: "a@example.com"})
	require.NoError(t, err)
	require.Equal(t, 1, next.calls)
	require.Less(t, time.Since(start), time.Second)
}

func TestRetrySenderHonorsContext(t *testing.T) {
	next := &flakySender{failUntil: 10}
	sender := NewRetrySender(next, 3, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sender.Send(ctx, Message{To: "a@example.com"})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, next.calls)
}

func TestRetrySenderMinimumOneAttempt(t *testing.T) {
	next := &flakySender{}
	sender := NewRetrySender(next, 0, time.Millisecond, nil)

	require.NoError(t, sender.Send(context.Background(), Message{To: "a@example.com"}))
	require.Equal(t, 1, next.calls)
}
