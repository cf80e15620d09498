package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/sentinel-id/sentinel/internal/mail"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeResetPurge is the task type for clearing expired reset tokens.
	TaskTypeResetPurge = "auth:purge_reset_tokens"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	ID      string       `json:"id"`
	Message mail.Message `json:"message"`
}

// NewSendEmailTask constructs an Asynq task carrying the message.
func NewSendEmailTask(msg mail.Message) (*asynq.Task, error) {
	data, err := json.Marshal(SendEmailPayload{ID: uuid.NewString(), Message: msg})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewResetPurgeTask constructs the reset-token purge task.
func NewResetPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskTypeResetPurge, nil)
}
