package mail

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"

	"github.com/baechuer/otp-auth-service/internal/application/auth"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string // also used as the From address
	Password string
	FromName string
	Timeout  time.Duration
	Insecure bool
}

// SMTPNotifier sends plain-text messages through an authenticated SMTP relay.
type SMTPNotifier struct {
	lg zerolog.Logger

	host     string
	port     int
	user     string
	pass     string
	fromName string
	insecure bool
	timeout  time.Duration
}

func NewSMTPNotifier(cfg SMTPConfig, lg zerolog.Logger) *SMTPNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SMTPNotifier{
		lg:       lg.With().Str("component", "smtp_notifier").Logger(),
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.Username,
		pass:     cfg.Password,
		fromName: cfg.FromName,
		insecure: cfg.Insecure,
		timeout:  timeout,
	}
}

func (s *SMTPNotifier) Send(ctx context.Context, msg auth.Message) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	m, err := s.build(msg)
	if err != nil {
		return err
	}

	tlsPolicy := gomail.TLSMandatory
	if s.insecure {
		tlsPolicy = gomail.TLSOpportunistic
	}

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPolicy(tlsPolicy),
		gomail.WithTimeout(s.timeout),
	}
	if s.user != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.user),
			gomail.WithPassword(s.pass),
		)
	}

	c, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return PermanentError{msg: "smtp client init failed: " + err.Error()}
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		s.lg.Error().Err(err).Str("to", msg.To).Msg("smtp send failed")
		return classify(err)
	}

	s.lg.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("smtp send ok")
	return nil
}

func (s *SMTPNotifier) build(msg auth.Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()

	var err error
	if s.fromName != "" {
		err = m.FromFormat(s.fromName, s.user)
	} else {
		err = m.From(s.user)
	}
	if err != nil {
		return nil, PermanentError{msg: "invalid from address: " + err.Error()}
	}
	if err := m.To(msg.To); err != nil {
		return nil, PermanentError{msg: "invalid to address: " + err.Error()}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return m, nil
}

func classify(err error) error {
	text := err.Error()
	if containsAny(text, "535", "5.7.8", "authentication", "Username and Password not accepted", "550", "553") {
		return PermanentError{msg: "smtp rejected: " + text}
	}
	return TemporaryError{msg: "smtp transient failure: " + text}
}

func containsAny(s string, subs ...string) bool {
	for _, x := range subs {
		if x != "" && strings.Contains(s, x) {
			return true
		}
	}
	return false
}
