package mail

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
	"github.com/Mahmoud3mmar/brewly/internal/core/ports"
)

// fakeSMTP accepts a single session and records the DATA payload.
type fakeSMTP struct {
	ln       net.Listener
	data     chan string
	commands chan []string
	silent   bool
}

func newFakeSMTP(t *testing.T, silent bool) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	f := &fakeSMTP{ln: ln, data: make(chan string, 1), commands: make(chan []string, 1), silent: silent}
	t.Cleanup(func() { _ = ln.Close() })
	go f.serve()
	return f
}

func (f *fakeSMTP) port() int {
	return f.ln.Addr().(*net.TCPAddr).Port
}

func (f *fakeSMTP) serve() {
	conn, err := f.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	if f.silent {
		_, _ = bufio.NewReader(conn).ReadString('\n')
		return
	}

	r := bufio.NewReader(conn)
	reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }

	var commands []string
	reply("220 fake.local ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		commands = append(commands, line)
		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
		switch verb {
		case "EHLO":
			reply("250-fake.local")
			reply("250 8BITMIME")
		case "MAIL", "RCPT":
			reply("250 OK")
		case "DATA":
			reply("354 go ahead")
			var body strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				body.WriteString(l)
			}
			f.data <- body.String()
			reply("250 queued")
		case "QUIT":
			reply("221 bye")
			f.commands <- commands
			return
		default:
			reply("502 unsupported")
		}
	}
}

func TestSMTPSender_SendOTP(t *testing.T) {
	srv := newFakeSMTP(t, false)
	sender := NewSMTPSender(SMTPConfig{
		Host:     "127.0.0.1",
		Port:     srv.port(),
		From:     "noreply@brewly.com",
		FromName: "Brewly",
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := sender.SendOTP(ctx, ports.OTPMessage{
		To:        "ada@example.com",
		Code:      "123456",
		Purpose:   domain.PurposeEmailVerification,
		ExpiresIn: 10 * time.Minute,
	})
	if err != nil {
		t.Fatalf("SendOTP returned error: %v", err)
	}

	body := <-srv.data
	for _, want := range []string{
		`From: "Brewly" <noreply@brewly.com>`,
		"To: ada@example.com",
		"Subject: Your OTP Code",
		"Content-Type: text/html",
		"123456",
		"10 minutes",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("message missing %q:\n%s", want, body)
		}
	}

	commands := <-srv.commands
	var sawFrom, sawRcpt bool
	for _, c := range commands {
		if strings.HasPrefix(c, "MAIL FROM:<noreply@brewly.com>") {
			sawFrom = true
		}
		if c == "RCPT TO:<ada@example.com>" {
			sawRcpt = true
		}
	}
	if !sawFrom || !sawRcpt {
		t.Fatalf("unexpected envelope commands: %v", commands)
	}
}

func TestSMTPSender_RequireTLS(t *testing.T) {
	srv := newFakeSMTP(t, false)
	sender := NewSMTPSender(SMTPConfig{
		Host:       "127.0.0.1",
		Port:       srv.port(),
		RequireTLS: true,
		From:       "noreply@brewly.com",
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := sender.SendOTP(ctx, ports.OTPMessage{To: "ada@example.com", Code: "123456", Purpose: domain.PurposePasswordReset, ExpiresIn: time.Minute})
	if err == nil || !strings.Contains(err.Error(), "STARTTLS") {
		t.Fatalf("expected STARTTLS error, got %v", err)
	}
}

func TestSMTPSender_Timeout(t *testing.T) {
	srv := newFakeSMTP(t, true)
	sender := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: srv.port(), From: "noreply@brewly.com"}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := sender.SendOTP(ctx, ports.OTPMessage{To: "ada@example.com", Code: "123456", Purpose: domain.PurposeEmailVerification})
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestAuthError(t *testing.T) {
	err := authError(errors.New("535 5.7.8 Username and Password not accepted. BadCredentials"))
	if !strings.Contains(err.Error(), "app password") {
		t.Fatalf("expected app password hint, got %v", err)
	}
	if strings.Contains(authError(errors.New("454 try later")).Error(), "app password") {
		t.Fatalf("hint should only be added for credential failures")
	}
}

func TestRenderOTP(t *testing.T) {
	tests := []struct {
		purpose   domain.OTPPurpose
		expiresIn time.Duration
		wantLead  string
		wantMins  int
	}{
		{domain.PurposeEmailVerification, 10 * time.Minute, "verify your email", 10},
		{domain.PurposePasswordReset, 90 * time.Second, "reset your password", 2},
		{domain.PurposePasswordReset, 0, "reset your password", 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.purpose)+"/"+tt.expiresIn.String(), func(t *testing.T) {
			html, err := renderOTP("654321", tt.purpose, tt.expiresIn)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if !strings.Contains(html, "654321") || !strings.Contains(html, tt.wantLead) {
				t.Fatalf("unexpected body:\n%s", html)
			}
			if !strings.Contains(html, strconv.Itoa(tt.wantMins)+" minutes") {
				t.Fatalf("expected %d minutes in body", tt.wantMins)
			}
		})
	}
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.InfoLevel)

	if err := NewLogSender(log).SendOTP(context.Background(), ports.OTPMessage{To: "ada@example.com", Code: "123456", Purpose: domain.PurposeEmailVerification}); err != nil {
		t.Fatalf("SendOTP returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "ada@example.com") {
		t.Fatalf("expected recipient in log: %s", out)
	}
	if strings.Contains(out, "123456") {
		t.Fatalf("code must not be logged above debug: %s", out)
	}
}
