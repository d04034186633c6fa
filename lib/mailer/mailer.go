// Package mailer emails reports over smtp.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"influence-backend/internal/assert"
	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/report"
	"influence-backend/lib/roster"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("influence.lib.mailer")

const report_send = "mailer.send"

var (
	ErrNotConfigured = errors.New("smtp server is not configured")
	ErrNoRecipients  = errors.New("no recipients")
)

type Mailer struct {
	config roster.SmtpConfig
	tel    telemetry.API
}

func NewMailer(config roster.SmtpConfig, tel telemetry.API) Mailer {
	assert.NotNil(tel)
	return Mailer{config: config, tel: telemetry.NewScopedAPI("mailer", tel)}
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	Subject     string
	Text        string
	Attachments []Attachment
}

func (m Mailer) address() string {
	return fmt.Sprintf("%s:%d", m.config.Server, m.config.Port)
}

// Send delivers msg to every configured recipient. Servers that do not offer
// AUTH are retried without authentication.
func (m Mailer) Send(ctx context.Context, msg Message) error {
	ctx, span := tracer.Start(ctx, "Send")
	defer span.End()

	if m.config.Server == "" {
		return ErrNotConfigured
	}
	if len(m.config.Recipients) == 0 {
		return ErrNoRecipients
	}
	span.SetAttributes(
		attribute.String("subject", msg.Subject),
		attribute.Int("recipients", len(m.config.Recipients)),
	)

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Influence Report <%s>", m.config.EmailAddress)
	mail.To = m.config.Recipients
	mail.Subject = msg.Subject
	mail.Text = []byte(msg.Text)
	for _, a := range msg.Attachments {
		_, err := mail.Attach(bytes.NewReader(a.Data), a.Filename, a.ContentType)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to attach file")
			return fmt.Errorf("attach %s: %w", a.Filename, err)
		}
	}

	var auth smtp.Auth
	if m.config.Password != "" {
		auth = smtp.PlainAuth("", m.config.EmailAddress, m.config.Password, m.config.Server)
	}
	err := mail.Send(m.address(), auth)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(m.address(), nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		m.tel.ReportBroken(report_send, err, m.address())
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// SendReport mails the text report as the body with the json report attached.
func (m Mailer) SendReport(ctx context.Context, r report.Report) error {
	var text bytes.Buffer
	err := r.WriteText(&text)
	if err != nil {
		return fmt.Errorf("render text report: %w", err)
	}
	var data bytes.Buffer
	err = r.WriteJSON(&data)
	if err != nil {
		return fmt.Errorf("render json report: %w", err)
	}

	date := r.Date
	if date == "" {
		date = r.GeneratedAt.Format("2006-01-02")
	}
	subject := fmt.Sprintf("Influence report %s", date)
	if r.Region != "" {
		subject = fmt.Sprintf("Influence report %s (%s)", date, r.Region)
	}

	return m.Send(ctx, Message{
		Subject: subject,
		Text:    text.String(),
		Attachments: []Attachment{{
			Filename:    fmt.Sprintf("influence_report_%s.json", strings.ReplaceAll(date, "-", "")),
			ContentType: "application/json",
			Data:        data.Bytes(),
		}},
	})
}
