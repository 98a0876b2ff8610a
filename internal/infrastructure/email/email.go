package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/bodhirag/catalog-backend/internal/cfg"
	"github.com/bodhirag/catalog-backend/pkg/e"
	"github.com/bodhirag/catalog-backend/pkg/logger"
	"github.com/jimlawless/whereami"
)

// EmailService отправляет транзакционные письма через SMTP.
// Отправка синхронная; вызывающие сами решают, критична ли ошибка.
type EmailService struct {
	cfg    *cfg.SMTPCfg
	logger logger.Logger
}

func NewEmailService(cfg *cfg.SMTPCfg, logger logger.Logger) *EmailService {
	return &EmailService{
		cfg:    cfg,
		logger: logger,
	}
}

// SendWelcome отправляет приветственное письмо с passid нового пользователя.
func (s *EmailService) SendWelcome(ctx context.Context, email string, name string, passID string) error {
	if s.cfg.Host == "" {
		// SMTP не сконфигурирован: письмо осознанно пропускается
		s.logger.Debugf("SMTP not configured, skipping welcome email to %s", email)
		return nil
	}

	greeting := name
	if greeting == "" {
		greeting = "there"
	}

	subject := "Welcome to the catalog"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour account is ready. Your pass ID is %s.\nYou can use it instead of your email to sign in.\n",
		greeting, passID,
	)

	msg := buildMessage(s.fromHeader(), email, subject, body)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{email}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
		return nil
	case <-ctx.Done():
		return e.Wrap(whereami.WhereAmI(), ctx.Err())
	}
}

func (s *EmailService) fromHeader() string {
	if s.cfg.FromName != "" {
		return fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
	}
	return s.cfg.FromEmail
}

func buildMessage(from string, to string, subject string, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	return []byte(b.String())
}
