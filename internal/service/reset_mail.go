package service

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

// Mailer delivers the password reset link
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, name, link string) error
}

// SMTPMailer sends through a single SMTP relay. Build one at startup and
// share it, it holds no connection between sends.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) (*SMTPMailer, error) {
	if host == "" {
		return nil, errors.New("no SMTP host provided")
	}

	if from == "" {
		return nil, errors.New("no sender address provided")
	}

	if username == "" {
		username = from
	}

	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}, nil
}

// NewSMTPMailerFromConfig reads the mail.* keys
func NewSMTPMailerFromConfig() (*SMTPMailer, error) {
	return NewSMTPMailer(
		viper.GetString("mail.host"),
		viper.GetInt("mail.port"),
		viper.GetString("mail.username"),
		viper.GetString("mail.password"),
		viper.GetString("mail.sender_address"),
	)
}

func (s *SMTPMailer) SendPasswordReset(ctx context.Context, to, name, link string) error {
	if to == s.from {
		return errors.New("invalid email address")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()

	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Password Reset Request")
	m.SetBody("text/plain", fmt.Sprintf("Hi %v,\n\nWe received a request to reset your password. Open the link below to choose a new one:\n\n%v\n\nThe link expires shortly. If you did not request this, please ignore this email.", name, link))
	m.AddAlternative("text/html", fmt.Sprintf("Hi %v,<br><br>Click <a href='%v'>here</a> to reset your password.<br><br>This link will expire shortly. If you did not request this, please ignore this email.", html.EscapeString(name), html.EscapeString(link)))

	if err := s.dialer.DialAndSend(m); err != nil {
		return err
	}

	return nil
}
