package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gomail "github.com/wneessen/go-mail"

	"FeedDigest/internal/config"
	"FeedDigest/internal/ports"
)

const sendTimeout = 30 * time.Second

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// Notifier delivers digests over SMTP. A Notifier whose client could not be
// built stays usable and reports every send as failed.
type Notifier struct {
	client sender
	from   string
	logger *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// New builds the SMTP client from cfg. Incomplete settings disable sending.
func New(cfg config.EmailConfig, logger *slog.Logger) *Notifier {
	n := &Notifier{from: cfg.Sender, logger: logger}

	client, err := newClient(cfg)
	if err != nil {
		logger.Error("mail client disabled", "error", err)
		return n
	}

	logger.Info("mail client ready", "host", cfg.Host, "port", cfg.Port, "ssl", cfg.SSL, "sender", cfg.Sender)
	n.client = client
	return n
}

func newClient(cfg config.EmailConfig) (*gomail.Client, error) {
	var missing []error
	if cfg.Sender == "" {
		missing = append(missing, errors.New("sender is not set"))
	}
	if cfg.Password == "" {
		missing = append(missing, errors.New("password is not set"))
	}
	if cfg.Host == "" {
		missing = append(missing, errors.New("smtp host is not set"))
	}
	if cfg.Port <= 0 {
		missing = append(missing, errors.New("smtp port is not set or invalid"))
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}

	opts := []gomail.Option{
		gomail.WithSMTPAuth(gomail.SMTPAuthLogin),
		gomail.WithUsername(cfg.Sender),
		gomail.WithPassword(cfg.Password),
		gomail.WithTimeout(sendTimeout),
	}
	if cfg.SSL {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	opts = append(opts, gomail.WithPort(cfg.Port))

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("new smtp client: %w", err)
	}
	return client, nil
}

// Enabled reports whether the client was built.
func (n *Notifier) Enabled() bool {
	return n.client != nil
}

// Send mails one HTML message and reports whether it was handed to the server.
func (n *Notifier) Send(ctx context.Context, to, subject, html string) bool {
	if n.client == nil {
		n.logger.Error("mail client is not initialised, cannot send")
		return false
	}

	msg, err := n.message(to, subject, html)
	if err != nil {
		n.logger.Error("build message", "to", to, "error", err)
		return false
	}

	n.logger.Info("sending mail", "to", to, "subject", subject)
	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		n.logger.Error("send mail", "to", to, "error", err)
		return false
	}

	n.logger.Info("mail sent", "to", to)
	return true
}

func (n *Notifier) message(to, subject, html string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, fmt.Errorf("sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetBodyString(gomail.TypeTextHTML, html)
	return msg, nil
}
