// Package mail defines the outbound email boundary. Delivery backends are
// interchangeable; the template names and context keys are part of the
// contract with the mail templates and must not change.
package mail

import "context"

// Template names understood by the delivery backend.
const (
	TemplateForgotPassword  = "forgot-password"
	TemplatePasswordChanged = "password-changed"
	TemplateWelcome         = "welcome"
)

// Message describes a single transactional email.
type Message struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	Template string            `json:"template"`
	Context  map[string]string `json:"context"`
}

// Sender delivers a message, or reports failure.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
