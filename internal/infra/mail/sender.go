package mail

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"gopkg.in/gomail.v2"
)

const DefaultSignature = "Your Lead Management Team"

//go:embed templates/*.html
var templatesFS embed.FS

var leadEmailTmpl = template.Must(template.ParseFS(templatesFS, "templates/lead_email.html"))

var ErrNotConfigured = errors.New("smtp is not configured")

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	if from == "" {
		from = user
	}
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
}

// Configured reports whether there is enough to dial an SMTP server.
func (s *EmailSender) Configured() bool {
	return s != nil && s.Host != "" && s.Port > 0 && s.From != ""
}

// Send delivers an HTML message to a single recipient.
func (s *EmailSender) Send(to, subject, htmlBody string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email over smtp: %w", err)
	}
	return nil
}

// RenderLeadEmail builds the outreach body: greeting, message and sign-off.
// The message is escaped and its newlines become <br>.
func RenderLeadEmail(name, message string) (string, error) {
	escaped := template.HTMLEscapeString(message)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")

	data := LeadEmailData{
		Name:      name,
		Message:   template.HTML(strings.ReplaceAll(escaped, "\n", "<br>")),
		Signature: DefaultSignature,
	}

	var body bytes.Buffer
	if err := leadEmailTmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to render lead email: %w", err)
	}
	return body.String(), nil
}
