package alerting

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"
)

// EmailConfig configures an EmailSink.
type EmailConfig struct {
	// Host and Port locate the SMTP server.
	Host string
	Port int

	// From is the sender address.
	From string

	// To lists recipient addresses. At least one is required.
	To []string

	// Username and Password enable SMTP PLAIN auth when Username is
	// non-empty.
	Username string
	Password string
}

// EmailSink delivers alerts by SMTP email.
type EmailSink struct {
	cfg  EmailConfig
	body *template.Template

	// sendMail is swappable for tests. Default: smtp.SendMail.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

var emailBody = template.Must(template.New("alert").Parse(`<html>
<body>
<h2>Quota {{.Severity}} alert</h2>
<p>{{.Message}}</p>
<table>
<tr><td>Key index</td><td>{{.KeyIndex}}</td></tr>
<tr><td>Usage</td><td>{{.Used}} / {{.Limit}} ({{printf "%.1f" .PercentUsed}}%)</td></tr>
<tr><td>Resets at</td><td>{{.ResetAt.UTC.Format "2006-01-02 15:04:05 MST"}}</td></tr>
<tr><td>Raised at</td><td>{{.Timestamp.UTC.Format "2006-01-02 15:04:05 MST"}}</td></tr>
</table>
</body>
</html>
`))

// NewEmailSink creates an EmailSink. It validates that a server, a
// sender, and at least one recipient are configured.
func NewEmailSink(cfg EmailConfig) (*EmailSink, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("email sink: SMTP host is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("email sink: sender address is required")
	}
	if len(cfg.To) == 0 {
		return nil, fmt.Errorf("email sink: at least one recipient is required")
	}
	return &EmailSink{
		cfg:      cfg,
		body:     emailBody,
		sendMail: smtp.SendMail,
	}, nil
}

// Name implements Sink.
func (s *EmailSink) Name() string { return "email" }

// Send implements Sink.
func (s *EmailSink) Send(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(s.cfg.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", event.Subject())
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	if err := s.body.Execute(&buf, event); err != nil {
		return fmt.Errorf("failed to render alert email: %w", err)
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := s.sendMail(addr, auth, s.cfg.From, s.cfg.To, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	return nil
}
