package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-id/sentinel/internal/mail"
	"github.com/sentinel-id/sentinel/internal/shared"
)

type memoryRepo struct {
	users      map[int64]*User
	nextID     int64
	hasDefault bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]*User), hasDefault: true}
}

func (r *memoryRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) CreateWithDefaultRole(_ context.Context, user User) (*User, error) {
	if !r.hasDefault {
		return nil, fmt.Errorf("%w: default user role not found", shared.ErrInvalidInput)
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, fmt.Errorf("%w: user with this email already exists", shared.ErrConflict)
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.IsActive = true
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = &user
	clone := user
	return &clone, nil
}

func (r *memoryRepo) TouchLastLogin(_ context.Context, userID int64) error {
	u, ok := r.users[userID]
	if !ok {
		return shared.ErrNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	return nil
}

func (r *memoryRepo) SetResetToken(_ context.Context, userID int64, token string, expires time.Time) error {
	u, ok := r.users[userID]
	if !ok {
		return shared.ErrNotFound
	}
	u.ResetToken = &token
	u.ResetExpires = &expires
	return nil
}

func (r *memoryRepo) FindByResetToken(_ context.Context, token string) (*User, error) {
	for _, u := range r.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			clone := *u
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) ClaimResetToken(_ context.Context, token, passwordHash string) (*User, error) {
	for _, u := range r.users {
		if u.ResetToken == nil || *u.ResetToken != token {
			continue
		}
		if u.ResetExpires == nil || time.Now().After(*u.ResetExpires) {
			break
		}
		u.PasswordHash = passwordHash
		u.ResetToken = nil
		u.ResetExpires = nil
		clone := *u
		return &clone, nil
	}
	return nil, shared.ErrNotFound
}

var _ Repository = (*memoryRepo)(nil)

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

func newTestService(repo Repository, reset, notify mail.Sender) *Service {
	return NewService(ServiceConfig{
		Repo:         repo,
		Tokens:       NewTokenIssuer("test-secret", time.Hour),
		ResetMail:    reset,
		NotifyMail:   notify,
		ResetTTL:     time.Hour,
		ResetBaseURL: "http://localhost:8080/reset-password",
		LoginURL:     "http://localhost:8080/login",
	})
}

func registerUser(t *testing.T, svc *Service, email, password string) *User {
	t.Helper()
	_, user, err := svc.Register(context.Background(), RegisterParams{
		Email:     email,
		Password:  password,
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newMemoryRepo()
	notify := &captureSender{}
	svc := newTestService(repo, &captureSender{}, notify)
	ctx := context.Background()

	user := registerUser(t, svc, "ada@example.com", "secret-password")
	require.Equal(t, "Ada Lovelace", user.FullName())

	require.Len(t, notify.sent, 1)
	require.Equal(t, mail.TemplateWelcome, notify.sent[0].Template)
	require.Equal(t, "ada@example.com", notify.sent[0].To)

	token, logged, err := svc.Login(ctx, "ada@example.com", "secret-password")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, user.ID, logged.ID)
	require.NotNil(t, repo.users[user.ID].LastLoginAt)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &captureSender{}, &captureSender{})
	registerUser(t, svc, "ada@example.com", "secret-password")

	_, _, err := svc.Login(context.Background(), "ada@example.com", "not-the-password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &captureSender{}, &captureSender{})
	_, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &captureSender{}, &captureSender{})
	user := registerUser(t, svc, "ada@example.com", "secret-password")
	repo.users[user.ID].IsActive = false

	_, _, err := svc.Login(context.Background(), "ada@example.com", "secret-password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	require.Contains(t, err.Error(), "deactivated")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &captureSender{}, &captureSender{})
	registerUser(t, svc, "ada@example.com", "secret-password")

	_, _, err := svc.Register(context.Background(), RegisterParams{
		Email:     "ada@example.com",
		Password:  "other-password",
		FirstName: "Other",
		LastName:  "Person",
	})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestRegisterSurvivesWelcomeMailFailure(t *testing.T) {
	notify := &captureSender{err: errors.New("smtp down")}
	svc := newTestService(newMemoryRepo(), &captureSender{}, notify)

	token, user, err := svc.Register(context.Background(), RegisterParams{
		Email:     "ada@example.com",
		Password:  "secret-password",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotNil(t, user)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	reset := &captureSender{}
	svc := newTestService(newMemoryRepo(), reset, &captureSender{})

	msg, err := svc.ForgotPassword(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	require.Equal(t, resetConfirmation, msg)
	require.Empty(t, reset.sent)
}

func TestForgotPasswordIssuesToken(t *testing.T) {
	repo := newMemoryRepo()
	reset := &captureSender{}
	svc := newTestService(repo, reset, &captureSender{})
	user := registerUser(t, svc, "ada@example.com", "secret-password")

	msg, err := svc.ForgotPassword(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, resetConfirmation, msg)

	stored := repo.users[user.ID]
	require.NotNil(t, stored.ResetToken)
	require.Len(t, *stored.ResetToken, 64)
	require.NotNil(t, stored.ResetExpires)
	require.True(t, stored.ResetExpires.After(time.Now()))

	require.Len(t, reset.sent, 1)
	require.Equal(t, mail.TemplateForgotPassword, reset.sent[0].Template)
	require.Contains(t, reset.sent[0].Context["resetUrl"], *stored.ResetToken)
	require.Equal(t, "1 hour", reset.sent[0].Context["expiryTime"])
}

func TestForgotPasswordMailFailureKeepsToken(t *testing.T) {
	repo := newMemoryRepo()
	reset := &captureSender{err: errors.New("smtp down")}
	svc := newTestService(repo, reset, &captureSender{})
	user := registerUser(t, svc, "ada@example.com", "secret-password")

	_, err := svc.ForgotPassword(context.Background(), "ada@example.com")
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	// The persisted token is not rolled back; a retried request replaces it.
	require.NotNil(t, repo.users[user.ID].ResetToken)
}

func TestForgotPasswordReplacesOlderToken(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &captureSender{}, &captureSender{})
	user := registerUser(t, svc, "ada@example.com", "secret-password")

	_, err := svc.ForgotPassword(context.Background(), "ada@example.com")
	require.NoError(t, err)
	first := *repo.users[user.ID].ResetToken

	_, err = svc.ForgotPassword(context.Background(), "ada@example.com")
	require.NoError(t, err)
	second := *repo.users[user.ID].ResetToken
	require.NotEqual(t, first, second)

	_, err = svc.ValidateResetToken(context.Background(), first)
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestValidateResetToken(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &captureSender{}, &captureSender{})
	user := registerUser(t, svc, "ada@example.com", "secret-password")

	_, err := svc.ForgotPassword(context.Background(), "ada@example.com")
	require.NoError(t, err)
	token := *repo.users[user.ID].ResetToken

	email, err := svc.ValidateResetToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", email)

	_, err = svc.ValidateResetToken(context.Background(), "deadbeef")
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestValidateResetTokenExpired(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &captureSender{}, &captureSender{})
	user := registerUser(t, svc, "ada@example.com", "secret-password")

	_, err := svc.ForgotPassword(context.Background(), "ada@example.com")
	require.NoError(t, err)
	expired := time.Now().Add(-time.Minute)
	repo.users[user.ID].ResetExpires = &expired

	_, err = svc.ValidateResetToken(context.Background(), *repo.users[user.ID].ResetToken)
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestResetPasswordSingleUse(t *testing.T) {
	repo := newMemoryRepo()
	notify := &captureSender{}
	svc := newTestService(repo, &captureSender{}, notify)
	user := registerUser(t, svc, "ada@example.com", "secret-password")

	_, err := svc.ForgotPassword(context.Background(), "ada@example.com")
	require.NoError(t, err)
	token := *repo.users[user.ID].ResetToken

	require.NoError(t, svc.ResetPassword(context.Background(), token, "brand-new-password"))

	// Old password rejected, new one accepted.
	_, _, err = svc.Login(context.Background(), "ada@example.com", "secret-password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, _, err = svc.Login(context.Background(), "ada@example.com", "brand-new-password")
	require.NoError(t, err)

	// Token was consumed; a second reset with it must fail.
	err = svc.ResetPassword(context.Background(), token, "yet-another-password")
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	var changed int
	for _, m := range notify.sent {
		if m.Template == mail.TemplatePasswordChanged {
			changed++
		}
	}
	require.Equal(t, 1, changed)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &captureSender{}, &captureSender{})
	user := registerUser(t, svc, "ada@example.com", "secret-password")

	_, err := svc.ForgotPassword(context.Background(), "ada@example.com")
	require.NoError(t, err)
	token := *repo.users[user.ID].ResetToken
	expired := time.Now().Add(-time.Minute)
	repo.users[user.ID].ResetExpires = &expired

	err = svc.ResetPassword(context.Background(), token, "brand-new-password")
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}
