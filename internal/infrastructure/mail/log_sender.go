package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Mahmoud3mmar/brewly/internal/core/ports"
)

// LogSender writes OTP deliveries to the log instead of sending email. It is
// used when no SMTP host is configured. Codes are only visible at debug level.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendOTP(_ context.Context, msg ports.OTPMessage) error {
	s.log.Info().
		Str("to", msg.To).
		Str("purpose", string(msg.Purpose)).
		Dur("expires_in", msg.ExpiresIn).
		Msg("otp email suppressed, no mail host configured")
	s.log.Debug().Str("to", msg.To).Str("code", msg.Code).Msg("otp code")
	return nil
}
