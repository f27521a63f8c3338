package dispatch

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 5 * time.Second

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPDispatcher delivers one-time codes over SMTP. A delivery attempt that
// errors or outlives the timeout resolves to OutcomeFailed; it is logged and
// never escalated.
type SMTPDispatcher struct {
	cfg SMTPConfig
	log *zap.Logger
}

func NewSMTPDispatcher(cfg SMTPConfig, log *zap.Logger) *SMTPDispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &SMTPDispatcher{cfg: cfg, log: log}
}

// New returns an SMTP dispatcher when a host is configured, otherwise the
// no-op dispatcher.
func New(cfg SMTPConfig, log *zap.Logger) Dispatcher {
	if cfg.Host == "" {
		return NoopDispatcher{}
	}
	return NewSMTPDispatcher(cfg, log)
}

func (d *SMTPDispatcher) Send(ctx context.Context, toEmail, code string) Outcome {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.deliver(toEmail, code)
	}()

	select {
	case err := <-done:
		if err != nil {
			d.log.Warn("otp delivery failed",
				zap.String("email", toEmail),
				zap.Error(err),
			)
			return OutcomeFailed
		}
		return OutcomeDelivered
	case <-ctx.Done():
		d.log.Warn("otp delivery timed out",
			zap.String("email", toEmail),
			zap.Duration("timeout", d.cfg.Timeout),
		)
		return OutcomeFailed
	}
}

func (d *SMTPDispatcher) deliver(toEmail, code string) error {
	addr := fmt.Sprintf("%s:%d", d.cfg.Host, d.cfg.Port)
	auth := smtp.PlainAuth("", d.cfg.Username, d.cfg.Password, d.cfg.Host)

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Your Arena verification code\r\n\r\n"+
			"Your one-time verification code is %s. It expires in 5 minutes.\r\n",
		d.cfg.From, toEmail, code,
	)

	return smtp.SendMail(addr, auth, d.cfg.From, []string{toEmail}, []byte(msg))
}
