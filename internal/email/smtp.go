package email

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	gomail "gopkg.in/gomail.v2"

	"github.com/pseudosapiens/phrase-api/internal/config"
)

type smtpSender struct {
	dialer  *gomail.Dialer
	sender  string
	limiter *rate.Limiter
}

// NewSMTPSender builds a rate-limited SMTP transport. The limiter keeps
// burst fanout under provider sending limits.
func NewSMTPSender(cfg config.SMTPConfig) Sender {
	perSecond := cfg.SendsPerSecond
	if perSecond <= 0 {
		perSecond = 10
	}
	return &smtpSender{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		sender:  cfg.Sender,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (s *smtpSender) Send(ctx context.Context, to string, subject string, htmlBody string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send rate limiter: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.sender)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
