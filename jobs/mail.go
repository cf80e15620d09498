package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/sentinel-id/sentinel/internal/mail"
)

// MailEnqueuer implements mail.Sender by queueing delivery onto Asynq. Used
// for best-effort notifications where the caller must not block on SMTP.
type MailEnqueuer struct {
	client *asynq.Client
}

// NewMailEnqueuer constructs a MailEnqueuer.
func NewMailEnqueuer(client *asynq.Client) *MailEnqueuer {
	return &MailEnqueuer{client: client}
}

// Send enqueues the message for background delivery.
func (e *MailEnqueuer) Send(ctx context.Context, msg mail.Message) error {
	task, err := NewSendEmailTask(msg)
	if err != nil {
		return err
	}
	// Two Asynq retries on top of the first run keep the total attempt count
	// at three, matching the synchronous retry budget.
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(2))
	return err
}

var _ mail.Sender = (*MailEnqueuer)(nil)

// MailJob processes queued email tasks through a concrete sender.
type MailJob struct {
	sender mail.Sender
	logger *slog.Logger
}

// NewMailJob constructs a MailJob.
func NewMailJob(sender mail.Sender, logger *slog.Logger) *MailJob {
	return &MailJob{sender: sender, logger: logger}
}

// Handle processes TaskTypeSendEmail tasks.
func (j *MailJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := j.sender.Send(ctx, payload.Message); err != nil {
		if j.logger != nil {
			j.logger.Warn("queued mail delivery failed",
				slog.String("id", payload.ID),
				slog.String("template", payload.Message.Template),
				slog.Any("error", err))
		}
		return err
	}
	if j.logger != nil {
		j.logger.Info("queued mail delivered",
			slog.String("id", payload.ID),
			slog.String("template", payload.Message.Template))
	}
	return nil
}
