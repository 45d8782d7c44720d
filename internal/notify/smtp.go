package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// SMTPConfig configures e-mail delivery.
type SMTPConfig struct {
	Addr     string // host:port
	Username string // empty disables AUTH
	Password string
	From     string
	To       []string
}

// SMTP sends each notification as a plain-text e-mail to fixed recipients.
// The chat id passed to Send is ignored.
type SMTP struct {
	cfg SMTPConfig
	now func() time.Time
}

// NewSMTP creates an e-mail backend.
func NewSMTP(cfg SMTPConfig) *SMTP {
	return &SMTP{cfg: cfg, now: time.Now}
}

var markdownStripper = strings.NewReplacer("*", "", "_", "", "`", "")

// Send composes and submits the message.
func (s *SMTP) Send(ctx context.Context, _, text string, mode ParseMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if mode == ModeMarkdown {
		text = markdownStripper.Replace(text)
	}

	var buf bytes.Buffer
	if err := s.compose(&buf, text); err != nil {
		return fmt.Errorf("compose mail: %w", err)
	}

	if err := s.submit(ctx, &buf); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// submit runs one SMTP session. The connection is closed when ctx is done.
func (s *SMTP) submit(ctx context.Context, msg io.Reader) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello("localhost"); err != nil {
		return err
	}
	if ok, _ := c.Extension("STARTTLS"); ok {
		host, _, _ := net.SplitHostPort(s.cfg.Addr)
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if s.cfg.Username != "" {
		auth := sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.SendMail(s.cfg.From, s.cfg.To, msg); err != nil {
		return err
	}
	return c.Quit()
}

func (s *SMTP) compose(w io.Writer, text string) error {
	var h mail.Header
	h.SetDate(s.now())
	h.SetAddressList("From", []*mail.Address{{Name: "Mailbox", Address: s.cfg.From}})
	to := make([]*mail.Address, len(s.cfg.To))
	for i, addr := range s.cfg.To {
		to[i] = &mail.Address{Address: addr}
	}
	h.SetAddressList("To", to)
	h.SetSubject(subject(text))
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	body, err := mail.CreateSingleInlineWriter(w, h)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(body, text); err != nil {
		body.Close()
		return err
	}
	return body.Close()
}

// subject is the first line of text.
func subject(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(line)
}
