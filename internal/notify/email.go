package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

const defaultSMTPPort = "25"

// MailFunc delivers a raw message; smtp.SendMail satisfies it.
type MailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailSender mails reports as an HTML table with the kubeconfig attached.
type EmailSender struct {
	Server     string
	From       string
	Recipients []string
	// SendMail defaults to smtp.SendMail.
	SendMail MailFunc
}

// NewEmailSender returns an EmailSender for an unauthenticated relay.
func NewEmailSender(server, from string, recipients []string) *EmailSender {
	return &EmailSender{Server: server, From: from, Recipients: recipients, SendMail: smtp.SendMail}
}

// Send implements Sender.
func (s *EmailSender) Send(ctx context.Context, r Report) error {
	logger := log.FromContext(ctx)
	if len(s.Recipients) == 0 {
		logger.Info("no recipients found, skipping email notification")
		return nil
	}

	msg, err := s.compose(r)
	if err != nil {
		return err
	}

	send := s.SendMail
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(smtpAddress(s.Server), nil, s.From, s.Recipients, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", strings.Join(s.Recipients, ","), err)
	}
	logger.Info("results have been emailed", "recipients", s.Recipients)
	return nil
}

func smtpAddress(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(server, defaultSMTPPort)
}

func (s *EmailSender) compose(r Report) ([]byte, error) {
	body, err := renderHTML("email.html", r)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "Subject: %s\r\n", r.Subject())
	fmt.Fprintf(&buf, "From: %s\r\n", s.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(s.Recipients, ","))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mw.Boundary())

	html, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=utf-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := html.Write([]byte(body)); err != nil {
		return nil, err
	}

	if len(r.Kubeconfig) > 0 {
		attachment, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {"application/octet-stream"},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {`attachment; filename="kubeconfig"`},
		})
		if err != nil {
			return nil, err
		}
		if _, err := attachment.Write(wrapBase64(r.Kubeconfig)); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// wrapBase64 encodes data in 76 character lines.
func wrapBase64(data []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(data)
	var out bytes.Buffer
	for len(encoded) > 76 {
		out.WriteString(encoded[:76])
		out.WriteString("\r\n")
		encoded = encoded[76:]
	}
	out.WriteString(encoded)
	out.WriteString("\r\n")
	return out.Bytes()
}
