// AngelaMos | 2026
// smtp.go

package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/carterperez-dev/barbermaster/internal/config"
)

type SMTPNotifier struct {
	client   *mail.Client
	fromName string
	fromAddr string
}

func NewSMTPNotifier(cfg config.MailConfig) (*SMTPNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	}

	if cfg.SSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	from := cfg.FromAddress
	if from == "" {
		from = cfg.Username
	}

	return &SMTPNotifier{
		client:   client,
		fromName: cfg.FromName,
		fromAddr: from,
	}, nil
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()

	if err := m.FromFormat(n.fromName, n.fromAddr); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}

	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}

	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	}

	if err := n.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}
