// AngelaMos | 2026
// notify.go

package notify

import (
	"context"
	"log/slog"

	"github.com/carterperez-dev/barbermaster/internal/config"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Notifier delivers a message or reports why it could not.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// New picks SMTP delivery when credentials are configured and falls back to
// logging the message otherwise.
func New(cfg config.MailConfig, logger *slog.Logger) (Notifier, error) {
	if !cfg.Configured() {
		logger.Warn("email credentials not configured, messages will be logged")
		return NewConsoleNotifier(logger), nil
	}

	n, err := NewSMTPNotifier(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("smtp delivery enabled", "host", cfg.Host, "port", cfg.Port)
	return n, nil
}
