package mailer

import "log/slog"

// Mailer delivers password-reset mail. Implementations own formatting and
// transport.
type Mailer interface {
	SendPasswordReset(to, resetURL string) error
}

// LogMailer writes the mail to the log instead of sending it. Used in
// development and wherever no SMTP relay is configured.
type LogMailer struct {
	logger   *slog.Logger
	sender   string
	suppress bool
}

// NewLogMailer builds a log-backed mailer. sender becomes the from
// attribution on every logged mail. When suppress is false, delivery was
// requested but this sink has no relay, so sends are logged at warn to
// surface the misconfiguration.
func NewLogMailer(logger *slog.Logger, sender string, suppress bool) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger, sender: sender, suppress: suppress}
}

func (m *LogMailer) SendPasswordReset(to, resetURL string) error {
	attrs := []any{"from", m.sender, "to", to, "reset_url", resetURL}
	if m.suppress {
		m.logger.Info("password reset mail (suppressed)", attrs...)
		return nil
	}
	m.logger.Warn("password reset mail not delivered: no relay configured", attrs...)
	return nil
}
