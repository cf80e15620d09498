package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sentinel-id/sentinel/internal/mail"
	"github.com/sentinel-id/sentinel/internal/shared"
)

// resetConfirmation is returned whether or not the email exists, so the
// endpoint cannot be used to enumerate accounts.
const resetConfirmation = "If the email exists in our system, you will receive a password reset link."

// ServiceConfig collects dependencies for the auth service.
type ServiceConfig struct {
	Repo   Repository
	Tokens *TokenIssuer
	// ResetMail delivers synchronously (with its own retry budget); a
	// failure here is surfaced to the caller.
	ResetMail mail.Sender
	// NotifyMail is best-effort; failures are logged and swallowed.
	NotifyMail   mail.Sender
	ResetTTL     time.Duration
	ResetBaseURL string
	LoginURL     string
	Logger       *slog.Logger
}

// Service wraps authentication business rules.
type Service struct {
	cfg ServiceConfig
}

// NewService constructs a new Service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	return &Service{cfg: cfg}
}

// RegisterParams carries validated registration input.
type RegisterParams struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber *string
}

// Login validates email/password credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.cfg.Repo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return "", nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, fmt.Errorf("%w: account is deactivated", shared.ErrInvalidCredentials)
	}
	if err := s.cfg.Repo.TouchLastLogin(ctx, user.ID); err != nil {
		s.log().Warn("touch last login", slog.Any("error", err))
	}
	token, err := s.cfg.Tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Register creates a new account holding the default "user" role and issues a
// session token. A welcome email is sent best-effort.
func (s *Service) Register(ctx context.Context, params RegisterParams) (string, *User, error) {
	hash, err := HashPassword(params.Password)
	if err != nil {
		return "", nil, err
	}
	user, err := s.cfg.Repo.CreateWithDefaultRole(ctx, User{
		Email:        params.Email,
		PasswordHash: hash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PhoneNumber:  params.PhoneNumber,
	})
	if err != nil {
		return "", nil, err
	}

	s.notify(ctx, mail.Message{
		To:       user.Email,
		Subject:  "Welcome",
		Template: mail.TemplateWelcome,
		Context: map[string]string{
			"name":     user.FullName(),
			"email":    user.Email,
			"loginUrl": s.cfg.LoginURL,
		},
	})

	token, err := s.cfg.Tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ForgotPassword starts the reset flow. Unknown emails get the same generic
// confirmation with no state change.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.cfg.Repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return resetConfirmation, nil
		}
		return "", err
	}

	token, err := newResetToken()
	if err != nil {
		return "", err
	}
	expires := time.Now().Add(s.cfg.ResetTTL)
	if err := s.cfg.Repo.SetResetToken(ctx, user.ID, token, expires); err != nil {
		return "", err
	}

	// The token stays issued even when delivery fails; the user may retry
	// the request and a new token simply replaces this one.
	err = s.cfg.ResetMail.Send(ctx, mail.Message{
		To:       user.Email,
		Subject:  "Password Reset Request",
		Template: mail.TemplateForgotPassword,
		Context: map[string]string{
			"name":       user.FullName(),
			"resetUrl":   fmt.Sprintf("%s?token=%s", s.cfg.ResetBaseURL, token),
			"expiryTime": formatTTL(s.cfg.ResetTTL),
		},
	})
	if err != nil {
		s.log().Error("send reset email", slog.Any("error", err))
		return "", fmt.Errorf("%w: failed to send password reset email", shared.ErrInvalidInput)
	}
	return resetConfirmation, nil
}

// ValidateResetToken checks that a token exists and has not expired, and
// returns the email it belongs to.
func (s *Service) ValidateResetToken(ctx context.Context, token string) (string, error) {
	user, err := s.cfg.Repo.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", errInvalidResetToken()
		}
		return "", err
	}
	if user.ResetExpires == nil || time.Now().After(*user.ResetExpires) {
		return "", errInvalidResetToken()
	}
	return user.Email, nil
}

// ResetPassword consumes a reset token: the new password hash is stored and
// both reset fields are cleared in one atomic write, so the token is
// single-use. A confirmation email is sent best-effort.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user, err := s.cfg.Repo.ClaimResetToken(ctx, token, hash)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return errInvalidResetToken()
		}
		return err
	}

	s.notify(ctx, mail.Message{
		To:       user.Email,
		Subject:  "Password Changed Successfully",
		Template: mail.TemplatePasswordChanged,
		Context: map[string]string{
			"name":       user.FullName(),
			"changeTime": time.Now().Format(time.RFC1123),
		},
	})
	return nil
}

func (s *Service) notify(ctx context.Context, msg mail.Message) {
	if s.cfg.NotifyMail == nil {
		return
	}
	if err := s.cfg.NotifyMail.Send(ctx, msg); err != nil {
		s.log().Warn("notification mail", slog.String("template", msg.Template), slog.Any("error", err))
	}
}

func (s *Service) log() *slog.Logger {
	if s.cfg.Logger != nil {
		return s.cfg.Logger
	}
	return slog.Default()
}

func errInvalidResetToken() error {
	return fmt.Errorf("%w: invalid or expired reset token", shared.ErrInvalidInput)
}

// newResetToken returns 32 bytes of entropy, hex encoded.
func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func formatTTL(ttl time.Duration) string {
	if ttl == time.Hour {
		return "1 hour"
	}
	if ttl%time.Hour == 0 {
		return fmt.Sprintf("%d hours", int(ttl.Hours()))
	}
	return fmt.Sprintf("%d minutes", int(ttl.Minutes()))
}
