package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"facealarm/internal/config"
	"facealarm/internal/logger"

	gomail "github.com/wneessen/go-mail"
)

const (
	ActionName  = "send-alert-email"
	dialTimeout = 30 * time.Second
)

var ErrInvalidEndpoint = errors.New("smtp endpoint must be host:port")

// SendFunc delivers a composed message.
type SendFunc func(ctx context.Context, msg *gomail.Msg) error

// Mailer sends the fixed alert email. The connection must be upgraded with
// STARTTLS; a server that does not offer it is an error.
type Mailer struct {
	host       string
	port       int
	sender     string
	credential string
	recipient  string
	subject    string
	body       string
	logger     *logger.Logger

	send SendFunc
	now  func() time.Time
}

func NewMailer(cfg *config.Config, logger *logger.Logger) (*Mailer, error) {
	host, portString, err := net.SplitHostPort(cfg.SMTPEndpoint)
	if err != nil || host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, cfg.SMTPEndpoint)
	}
	port, err := strconv.Atoi(portString)
	if err != nil || port <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, cfg.SMTPEndpoint)
	}

	m := &Mailer{
		host:       host,
		port:       port,
		sender:     cfg.SenderIdentity,
		credential: cfg.Credential,
		recipient:  strings.ToLower(strings.TrimSpace(cfg.Recipient)),
		subject:    cfg.MailSubject,
		body:       cfg.MailBody,
		logger:     logger,
		now:        time.Now,
	}
	m.send = m.dialAndSend
	return m, nil
}

func (m *Mailer) Name() string {
	return ActionName
}

// Run delivers the alert email, giving up when ctx is done.
func (m *Mailer) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := m.message()
	if err != nil {
		return err
	}
	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", m.recipient, err)
	}

	m.logger.Info("📧 Alert mail sent successfully to %s", m.recipient)
	return nil
}

// Recipient returns the normalised recipient address.
func (m *Mailer) Recipient() string {
	return m.recipient
}

func (m *Mailer) message() (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.sender); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.sender, err)
	}
	if err := msg.To(m.recipient); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", m.recipient, err)
	}
	msg.Subject(m.subject)
	msg.SetDateWithValue(m.now())
	msg.SetBodyString(gomail.TypeTextPlain, m.body)
	return msg, nil
}

func (m *Mailer) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	opts := []gomail.Option{
		gomail.WithPort(m.port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(dialTimeout),
	}
	if m.credential != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.sender),
			gomail.WithPassword(m.credential),
		)
	}

	client, err := gomail.NewClient(m.host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
