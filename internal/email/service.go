package email

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	texttemplate "text/template"
	"time"

	"github.com/redmonkez12/novelverse/internal/logging"
	"github.com/redmonkez12/novelverse/templates"
)

// sendMailFunc matches smtp.SendMail
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	siteName     string

	textTmpl *texttemplate.Template
	htmlTmpl *htmltemplate.Template
	send     sendMailFunc
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, fromEmail, siteName string) (*Service, error) {
	textTmpl, err := texttemplate.ParseFS(templates.EmailFS, "email/verification_code.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text template: %w", err)
	}
	htmlTmpl, err := htmltemplate.ParseFS(templates.EmailFS, "email/verification_code.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse html template: %w", err)
	}

	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    fromEmail,
		siteName:     siteName,
		textTmpl:     textTmpl,
		htmlTmpl:     htmlTmpl,
		send:         smtp.SendMail,
	}, nil
}

type verificationData struct {
	SiteName     string
	Code         string
	ValidMinutes int
}

// SendVerificationCode emails a one-time registration code.
// It blocks until the SMTP server accepted or refused the message.
func (s *Service) SendVerificationCode(ctx context.Context, toEmail, code string, validFor time.Duration) error {
	logger := logging.GetLoggerFromContext(ctx)

	data := verificationData{
		SiteName:     s.siteName,
		Code:         code,
		ValidMinutes: int(validFor.Minutes()),
	}

	var text, html bytes.Buffer
	if err := s.textTmpl.Execute(&text, data); err != nil {
		logger.Error("failed to render email template", "error", err)
		return fmt.Errorf("render text template: %w", err)
	}
	if err := s.htmlTmpl.Execute(&html, data); err != nil {
		logger.Error("failed to render email template", "error", err)
		return fmt.Errorf("render html template: %w", err)
	}

	subject := fmt.Sprintf("%s - Verification code", s.siteName)
	msg, err := s.buildMessage(toEmail, subject, text.Bytes(), html.Bytes())
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	if err := s.sendEmail(toEmail, msg); err != nil {
		logger.Error("failed to send verification code", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("verification code sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to string, msg []byte) error {
	var auth smtp.Auth
	if s.smtpUser != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	}

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return s.send(addr, auth, s.fromEmail, []string{to}, msg)
}

// buildMessage assembles a multipart/alternative message with a plain text
// part followed by the HTML part
func (s *Service) buildMessage(to, subject string, text, html []byte) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for _, part := range []struct {
		contentType string
		content     []byte
	}{
		{"text/plain; charset=UTF-8", text},
		{"text/html; charset=UTF-8", html},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(part.content); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.fromEmail)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%s\r\n", mw.Boundary())
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	return msg.Bytes(), nil
}
