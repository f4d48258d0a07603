package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"

	"sensex-pulse/internal/config"
)

// EmailChannel sends the report over SMTP with the files attached.
// Port 465 uses implicit TLS; anything else goes through smtp.SendMail,
// which upgrades via STARTTLS when the server offers it.
type EmailChannel struct {
	host       string
	port       int
	sender     string
	password   string
	recipients []string
}

// NewEmailChannel creates an email channel from the config section.
func NewEmailChannel(cfg config.EmailConfig) *EmailChannel {
	return &EmailChannel{
		host:       cfg.Host,
		port:       cfg.Port,
		sender:     cfg.Sender,
		password:   cfg.Password,
		recipients: cfg.Recipients,
	}
}

// Name returns the channel name used in error reports.
func (e *EmailChannel) Name() string { return "email" }

// Send mails m to every recipient.
func (e *EmailChannel) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := buildMIMEMessage(e.sender, e.recipients, m)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	var auth smtp.Auth
	if e.password != "" {
		auth = smtp.PlainAuth("", e.sender, e.password, e.host)
	}

	if e.port == 465 {
		return e.sendImplicitTLS(addr, auth, msg)
	}
	return smtp.SendMail(addr, auth, e.sender, e.recipients, msg)
}

// buildMIMEMessage assembles a multipart/mixed message with a plain-text
// body part and base64-encoded file parts.
func buildMIMEMessage(sender string, recipients []string, m Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", sender)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", m.Subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n", mw.Boundary())
	fmt.Fprintf(&buf, "\r\n")

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	if err != nil {
		return nil, fmt.Errorf("mime text part: %w", err)
	}
	if _, err := textPart.Write([]byte(m.Body)); err != nil {
		return nil, fmt.Errorf("mime text part: %w", err)
	}

	for _, att := range m.Attachments {
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {att.ContentType},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", att.Filename)},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, fmt.Errorf("mime attachment %s: %w", att.Filename, err)
		}
		if err := writeBase64(part, att.Data); err != nil {
			return nil, fmt.Errorf("mime attachment %s: %w", att.Filename, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close mime message: %w", err)
	}
	return buf.Bytes(), nil
}

// writeBase64 encodes data in 76-column lines per RFC 2045.
func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := 76
		if len(encoded) < n {
			n = len(encoded)
		}
		if _, err := fmt.Fprintf(w, "%s\r\n", encoded[:n]); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}

// sendImplicitTLS delivers over a TLS connection established up front,
// the way port 465 servers expect.
func (e *EmailChannel) sendImplicitTLS(addr string, auth smtp.Auth, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: e.host})
	if err != nil {
		return fmt.Errorf("TLS dial failed: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.host)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}

	if err := client.Mail(e.sender); err != nil {
		return fmt.Errorf("SMTP MAIL command failed: %w", err)
	}
	for _, rcpt := range e.recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("SMTP RCPT command failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA command failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}

	return client.Quit()
}
