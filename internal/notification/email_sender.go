package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/allisson/pubflow/internal/errors"
)

// UserDirectory resolves the email address of a platform user.
type UserDirectory interface {
	Email(ctx context.Context, userID string) (string, error)
}

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// EmailSender delivers notifications through an SMTP relay. Every relay
// round trip is bounded by the context passed to Send.
type EmailSender struct {
	config    SMTPConfig
	directory UserDirectory
	dial      dialFunc
	now       func() time.Time
}

// NewEmailSender creates an EmailSender. directory may be nil when only
// address recipients are used.
func NewEmailSender(config SMTPConfig, directory UserDirectory) *EmailSender {
	return &EmailSender{
		config:    config,
		directory: directory,
		dial:      (&net.Dialer{}).DialContext,
		now:       time.Now,
	}
}

// Send implements Sender.
func (s *EmailSender) Send(ctx context.Context, n Notification) error {
	to, err := s.address(ctx, n.Recipient)
	if err != nil {
		return err
	}

	msg, err := Render(n.Template, n.Data)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	if err := s.deliver(ctx, addr, auth, to, s.compose(to, msg)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = apperrors.Join(ctxErr, err)
		}
		return apperrors.Wrapf(err, "failed to send email via %s", addr)
	}
	return nil
}

// deliver runs one SMTP transaction. The connection deadline follows the
// context deadline and cancellation expires it immediately, so a relay that
// stops answering cannot hold the caller past its context.
func (s *EmailSender) deliver(ctx context.Context, addr string, auth smtp.Auth, to string, msg []byte) error {
	conn, err := s.dial(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return err
		}
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close() //nolint:errcheck

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.config.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return err
		}
	}
	if auth != nil {
		if ok, _ := client.Extension("AUTH"); !ok {
			return apperrors.New("smtp: server does not support AUTH")
		}
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(s.config.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func (s *EmailSender) address(ctx context.Context, recipient Recipient) (string, error) {
	if recipient.Address != "" {
		return recipient.Address, nil
	}
	if recipient.UserID == "" {
		return "", ErrMissingRecipient
	}
	if s.directory == nil {
		return "", apperrors.Wrap(ErrMissingRecipient, "no user directory configured")
	}
	return s.directory.Email(ctx, recipient.UserID)
}

func (s *EmailSender) compose(to string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.config.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
