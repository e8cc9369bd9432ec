// Package mail delivers transactional email. Delivery is best-effort and
// never on a request's critical path; callers enqueue a worker task instead
// of sending inline.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Mailer sends one HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	addr string // host:port
	from string
	auth smtp.Auth
}

// NewSMTPMailer creates an SMTPMailer. user/password may be empty for an
// unauthenticated relay.
func NewSMTPMailer(addr, from, user, password string) *SMTPMailer {
	if addr == "" || from == "" {
		panic("SMTP address and from address cannot be empty for SMTPMailer")
	}
	var auth smtp.Auth
	if user != "" {
		host := addr
		if i := strings.IndexByte(addr, ':'); i >= 0 {
			host = addr[:i]
		}
		auth = smtp.PlainAuth("", user, password, host)
	}
	return &SMTPMailer{addr: addr, from: from, auth: auth}
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		htmlBody,
	}, "\r\n")

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", to, err)
	}
	return nil
}

// LogMailer logs instead of sending. Used when no SMTP relay is configured
// so local development still shows what would have gone out.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, _ string) error {
	logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).
		Info("SMTP not configured, logging email instead of sending")
	return nil
}

// CardAssignedEmail renders the notification sent when a card is assigned.
func CardAssignedEmail(userName, cardTitle, boardTitle string) (subject, html string) {
	subject = fmt.Sprintf("Card Assigned: %s", cardTitle)
	html = fmt.Sprintf(
		"<p>Hello %s,</p><p>You have been assigned to the card <strong>%q</strong> on the board <strong>%q</strong>.</p>",
		userName, cardTitle, boardTitle)
	return subject, html
}

// BoardInviteEmail renders the invitation carrying a board join code.
func BoardInviteEmail(userName, boardTitle, joinCode string) (subject, html string) {
	subject = fmt.Sprintf("Invitation to join board: %s", boardTitle)
	html = fmt.Sprintf(
		"<p>Hello %s,</p><p>You have been invited to collaborate on the board <strong>%q</strong>.</p><p>Join code: <code>%s</code></p>",
		userName, boardTitle, joinCode)
	return subject, html
}
