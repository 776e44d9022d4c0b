package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/baechuer/otp-auth-service/internal/application/auth"
)

// LogNotifier writes messages to the log instead of sending them. Dev only:
// the body contains the code.
type LogNotifier struct {
	lg zerolog.Logger
}

func NewLogNotifier(lg zerolog.Logger) *LogNotifier {
	return &LogNotifier{lg: lg.With().Str("component", "log_notifier").Logger()}
}

func (n *LogNotifier) Send(ctx context.Context, msg auth.Message) error {
	n.lg.Warn().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("FAKE send email")
	return nil
}
