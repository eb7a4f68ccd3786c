package jobs

import (
	"context"
	"fmt"
	"net/smtp"
)

// SMTPSender delivers mail over plain SMTP, pointed at a relay such as
// Mailpit in development.
type SMTPSender struct {
	addr string
	from string
}

// NewSMTPSender constructs a sender for the given host, port and from header.
func NewSMTPSender(host string, port int, from string) *SMTPSender {
	return &SMTPSender{addr: fmt.Sprintf("%s:%d", host, port), from: from}
}

func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		s.from, to, subject, body)
	return smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(msg))
}

var _ EmailSender = (*SMTPSender)(nil)
