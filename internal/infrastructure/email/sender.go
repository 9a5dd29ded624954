package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/Z3r0J/togetherly-backend-sub000/pkg/config"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Sender interface {
	SendInvitationEmail(ctx context.Context, to, inviterName, circleName, token string, isRegistered bool) error
	SendMagicLinkEmail(ctx context.Context, to, token string) error
}

type smtpSender struct {
	from     string
	password string
	host     string
	port     string
	appURL   string
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewSMTPSender(cfg config.SMTP, logger *zap.Logger) Sender {
	return &smtpSender{
		from:     cfg.User,
		password: cfg.Password,
		host:     cfg.Host,
		port:     cfg.Port,
		appURL:   cfg.AppURL,
		logger:   logger,
		tracer:   otel.Tracer("infrastructure/email"),
	}
}

func (s *smtpSender) SendInvitationEmail(ctx context.Context, to, inviterName, circleName, token string, isRegistered bool) error {
	ctx, span := s.tracer.Start(ctx, "smtp.SendInvitationEmail")
	defer span.End()

	span.SetAttributes(
		attribute.String("to.email", to),
		attribute.Bool("is_registered", isRegistered),
	)

	path := "signup"
	if isRegistered {
		path = "invitations/accept"
	}
	link := fmt.Sprintf("%s/%s?token=%s", s.appURL, path, token)

	subject := fmt.Sprintf("Subject: %s invited you to %s\n", inviterName, circleName)
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	body := fmt.Sprintf(`
		<h1>%s invited you to join %s</h1>
		<p>Click the link below to accept the invitation:</p>
		<a href="%s">Join circle</a>
	`, inviterName, circleName, link)

	return s.send(ctx, to, subject, mime+body)
}

func (s *smtpSender) SendMagicLinkEmail(ctx context.Context, to, token string) error {
	ctx, span := s.tracer.Start(ctx, "smtp.SendMagicLinkEmail")
	defer span.End()

	span.SetAttributes(
		attribute.String("to.email", to),
	)

	link := fmt.Sprintf("%s/auth/magic?token=%s", s.appURL, token)

	subject := "Subject: Your sign-in link\n"
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	body := fmt.Sprintf(`
		<h1>Sign in to your account</h1>
		<p>If you did not request this link, just ignore this message:</p>
		<a href="%s">Sign in</a>
	`, link)

	return s.send(ctx, to, subject, mime+body)
}

func (s *smtpSender) send(ctx context.Context, to, subject, body string) error {
	msg := []byte(subject + body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	auth := smtp.PlainAuth("", s.from, s.password, s.host)

	mylogger.Info(
		ctx,
		s.logger,
		"Sending email",
		zap.String("to", to),
	)

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, msg); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Error sending email",
			zap.String("to", to),
			zap.Error(err),
		)

		return fmt.Errorf("failed to send mail: %v", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Email sent successfully",
		zap.String("to", to),
	)

	return nil
}
