// Package mailer delivers invitation notifications over SMTP. Delivery is
// best effort: callers queue sends after their transaction commits and only
// log failures, so mail outages never roll back invitation state.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func New(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (m *Mailer) SendCalendarInvitation(to, inviterName, calendarName, acceptLink, declineLink string) error {
	subject := fmt.Sprintf("Invitation to join %q", calendarName)
	body := fmt.Sprintf(
		"%s invited you to the calendar %q.\r\n\r\nAccept: %s\r\nDecline: %s\r\n",
		inviterName, calendarName, acceptLink, declineLink,
	)
	return m.send(to, subject, body)
}

func (m *Mailer) SendEventInvitation(to, inviterName, eventName, acceptLink, declineLink string) error {
	subject := fmt.Sprintf("Invitation to join %q", eventName)
	body := fmt.Sprintf(
		"%s invited you to the event %q.\r\n\r\nAccept: %s\r\nDecline: %s\r\n",
		inviterName, eventName, acceptLink, declineLink,
	)
	return m.send(to, subject, body)
}

func (m *Mailer) send(to, subject, body string) error {
	if m.host == "" {
		return fmt.Errorf("smtp host is not configured")
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}
