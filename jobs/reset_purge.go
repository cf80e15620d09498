package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResetPurgeJob clears reset-token fields whose expiry has passed. Expired
// tokens are already rejected on use; the purge keeps the columns tidy.
type ResetPurgeJob struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewResetPurgeJob constructs a ResetPurgeJob.
func NewResetPurgeJob(pool *pgxpool.Pool, logger *slog.Logger) *ResetPurgeJob {
	return &ResetPurgeJob{pool: pool, logger: logger}
}

// Handle processes TaskTypeResetPurge tasks.
func (j *ResetPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	tag, err := j.pool.Exec(ctx, `
		UPDATE users
		SET reset_password_token = NULL, reset_password_expires = NULL, updated_at = now()
		WHERE reset_password_expires IS NOT NULL AND reset_password_expires < now()`)
	if err != nil {
		return err
	}
	if j.logger != nil && tag.RowsAffected() > 0 {
		j.logger.Info("purged expired reset tokens", slog.Int64("count", tag.RowsAffected()))
	}
	return nil
}
