// AngelaMos | 2026
// console.go

package notify

import (
	"context"
	"log/slog"
)

// ConsoleNotifier writes messages to the log. Used in development when no
// SMTP credentials are configured.
type ConsoleNotifier struct {
	logger *slog.Logger
}

func NewConsoleNotifier(logger *slog.Logger) *ConsoleNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleNotifier{logger: logger}
}

func (n *ConsoleNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "email (console delivery)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.TextBody,
	)
	return nil
}
