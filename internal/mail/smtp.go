package mail

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"text/template"
)

// SMTPConfig holds connection settings for the SMTP backend.
type SMTPConfig struct {
	Host string
	Port int
	From string
	User string
	Pass string
}

// SMTPSender delivers messages over plain SMTP.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender constructs an SMTPSender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

var bodies = map[string]*template.Template{
	TemplateForgotPassword: template.Must(template.New(TemplateForgotPassword).Parse(
		"Hi {{.name}},\r\n\r\n" +
			"We received a request to reset your password. Open the link below to choose a new one:\r\n\r\n" +
			"{{.resetUrl}}\r\n\r\n" +
			"The link expires in {{.expiryTime}}. If you did not request this, you can ignore this email.\r\n")),
	TemplatePasswordChanged: template.Must(template.New(TemplatePasswordChanged).Parse(
		"Hi {{.name}},\r\n\r\n" +
			"Your password was changed at {{.changeTime}}.\r\n\r\n" +
			"If this was not you, reset your password immediately.\r\n")),
	TemplateWelcome: template.Must(template.New(TemplateWelcome).Parse(
		"Hi {{.name}},\r\n\r\n" +
			"Your account {{.email}} is ready. Sign in at {{.loginUrl}}.\r\n")),
}

// Send renders the named template and delivers the message via SMTP.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	tmpl, ok := bodies[msg.Template]
	if !ok {
		return fmt.Errorf("mail: unknown template %q", msg.Template)
	}

	var body bytes.Buffer
	fmt.Fprintf(&body, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&body, "To: %s\r\n", msg.To)
	fmt.Fprintf(&body, "Subject: %s\r\n", msg.Subject)
	body.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	if err := tmpl.Execute(&body, msg.Context); err != nil {
		return fmt.Errorf("mail: render %s: %w", msg.Template, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{msg.To}, body.Bytes()); err != nil {
		return fmt.Errorf("mail: send to %s: %w", msg.To, err)
	}
	return nil
}
