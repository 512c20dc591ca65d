package services

import (
	"fmt"
	"net/smtp"

	"qrForgeAPI/config"
)

// EmailService sends account mail over SMTP. It satisfies the Mailer
// interface on UserService.
type EmailService struct {
	cfg config.SMTPConfig
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) SendVerificationEmail(to, verifyURL string) error {
	addr := s.cfg.Host + ":" + s.cfg.Port
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)

	msg := fmt.Sprintf("From: %q <%s>\r\n", s.cfg.SenderName, s.cfg.User) +
		"To: " + to + "\r\n" +
		"Subject: Verify Your Email\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		fmt.Sprintf(`<p>Click the link below to verify your email:</p><a href="%s">%s</a>`, verifyURL, verifyURL)

	if err := smtp.SendMail(addr, auth, s.cfg.User, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}
