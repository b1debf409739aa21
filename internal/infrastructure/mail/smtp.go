// Package mail delivers one-time passcodes by email.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	netmail "net/mail"
	"net/smtp"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
	"github.com/Mahmoud3mmar/brewly/internal/core/ports"
)

// SMTPConfig captures the settings for an SMTP relay.
type SMTPConfig struct {
	Host string
	Port int
	// Secure dials with implicit TLS (usually port 465).
	Secure bool
	// RequireTLS refuses to send when the server does not offer STARTTLS.
	RequireTLS bool
	User       string
	Password   string
	From       string
	FromName   string
}

// SMTPSender sends OTP emails through an SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
	now func() time.Time
	log zerolog.Logger
}

func NewSMTPSender(cfg SMTPConfig, log zerolog.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, now: time.Now, log: log}
}

// SendOTP renders the OTP template and delivers it to msg.To. The dial and
// the whole SMTP exchange are bounded by ctx.
func (s *SMTPSender) SendOTP(ctx context.Context, msg ports.OTPMessage) error {
	body, err := renderOTP(msg.Code, msg.Purpose, msg.ExpiresIn)
	if err != nil {
		return err
	}
	raw := s.buildMessage(msg.To, otpSubject, body)

	if err := s.send(ctx, msg.To, raw); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("send mail: %w", domain.ErrTimeout)
		}
		return fmt.Errorf("send mail: %w", err)
	}

	s.log.Info().Str("to", msg.To).Str("purpose", string(msg.Purpose)).Msg("otp email sent")
	return nil
}

func (s *SMTPSender) send(ctx context.Context, to string, raw []byte) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if !s.cfg.Secure {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		} else if s.cfg.RequireTLS {
			return errors.New("server does not support STARTTLS")
		}
	}

	if s.cfg.User != "" {
		if err := c.Auth(smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)); err != nil {
			return authError(err)
		}
	}

	if err := c.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func (s *SMTPSender) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if s.cfg.Secure {
		d := &tls.Dialer{Config: &tls.Config{ServerName: s.cfg.Host}}
		return d.DialContext(ctx, "tcp", addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

func (s *SMTPSender) buildMessage(to, subject, htmlBody string) []byte {
	from := netmail.Address{Name: s.cfg.FromName, Address: s.cfg.From}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from.String())
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return b.Bytes()
}

// authError adds a configuration hint for providers that reject account
// passwords over SMTP.
func authError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "BadCredentials") || strings.HasPrefix(msg, "535") {
		return fmt.Errorf("smtp auth: %w (the provider may require an app password in MAIL_PASSWORD)", err)
	}
	return fmt.Errorf("smtp auth: %w", err)
}
