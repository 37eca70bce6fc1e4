package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/Kostikrut/bubbly-back/config"
	logger "github.com/Kostikrut/bubbly-back/middleware/log"
)

// Mailer sends transactional mail. The only message this system sends is
// the password-reset link.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

var resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="UTF-8" />
    <title>Password Reset</title>
    <style>
      body { font-family: Arial, sans-serif; background-color: #605dff; margin: 0; padding: 0; }
      .container { max-width: 600px; margin: 40px auto; padding: 30px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.1); }
      .header { text-align: center; padding-bottom: 20px; }
      .header h1 { color: #605dff; margin: 0; }
      .content { font-size: 16px; color: #333333; line-height: 1.6; }
      .button { display: inline-block; margin-top: 20px; padding: 12px 20px; background-color: #605dff; color: #ffffff; text-decoration: none; border-radius: 6px; font-weight: bold; }
    </style>
  </head>
  <body>
    <div class="container">
      <div class="header"><h1>Bubbly</h1></div>
      <div class="content">
        <p>Hi there,</p>
        <p>We received a request to reset your password for your Bubbly account.</p>
        <p>Click the button below to set a new password. This link is valid for 10 minutes:</p>
        <p style="text-align: center;">
          <a class="button" href="{{.ResetURL}}" target="_blank">Reset Password</a>
        </p>
        <p>If you didn't request this, you can safely ignore this email.</p>
        <p>Thanks,<br/>The Bubbly Team</p>
      </div>
    </div>
  </body>
</html>
`))

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg    *config.SMTPConfig
	logger *logger.Logger
}

func NewSMTPMailer(cfg *config.SMTPConfig, log *logger.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: log}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	var body bytes.Buffer
	if err := resetTemplate.Execute(&body, struct{ ResetURL string }{resetURL}); err != nil {
		return fmt.Errorf("failed to render reset mail: %w", err)
	}

	from, err := mail.ParseAddress(m.cfg.From)
	if err != nil {
		return fmt.Errorf("invalid from address %q: %w", m.cfg.From, err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: Your Bubbly password reset link (valid for 10 minutes)\r\n")
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	msg.Write(body.Bytes())

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, from.Address, []string{to}, msg.Bytes()); err != nil {
		m.logger.WithContext(ctx).Error("failed to send reset mail",
			zap.String("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send reset mail: %w", err)
	}

	return nil
}
