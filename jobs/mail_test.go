package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/sentinel-id/sentinel/internal/mail"
	_ "github.com/sentinel-id/sentinel/testing"
)

type captureSender struct {
	sent []mail.Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg mail.Message) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func TestMailJobHandle(t *testing.T) {
	sender := &captureSender{}
	job := NewMailJob(sender, nil)

	task, err := NewSendEmailTask(mail.Message{
		To:       "ada@example.com",
		Subject:  "Welcome",
		Template: mail.TemplateWelcome,
		Context:  map[string]string{"name": "Ada Lovelace"},
	})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, sender.sent, 1)
	require.Equal(t, "ada@example.com", sender.sent[0].To)
	require.Equal(t, "Ada Lovelace", sender.sent[0].Context["name"])
}

func TestMailJobBadPayloadSkipsRetry(t *testing.T) {
	job := NewMailJob(&captureSender{}, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestMailJobPropagatesDeliveryError(t *testing.T) {
	sender := &captureSender{err: errors.New("smtp down")}
	job := NewMailJob(sender, nil)

	task, err := NewSendEmailTask(mail.Message{To: "ada@example.com"})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}
