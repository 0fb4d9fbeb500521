package services

import "github.com/rs/zerolog"

type EmailSender interface {
	Send(to string, subject string, body string) error
}

// LogEmailSender stands in for SMTP when no host is configured. Bodies carry
// single-use links, so only the envelope is logged.
type LogEmailSender struct {
	Logger zerolog.Logger
}

func (s *LogEmailSender) Send(to string, subject string, body string) error {
	s.Logger.Info().
		Str("to", to).
		Str("subject", subject).
		Int("body_bytes", len(body)).
		Msg("smtp not configured, email not delivered")
	return nil
}
