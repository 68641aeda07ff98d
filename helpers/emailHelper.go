package helpers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const appName = "TerapiaFisica+"

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

var ErrMailerNotConfigured = errors.New("email configuration incomplete: EMAIL_ORIGEN and EMAIL_PASSWORD are required")

type SMTPConfig struct {
	From        string
	Password    string
	Host        string
	Port        int
	FrontendURL string
}

type emailData struct {
	AppName  string
	Name     string
	Email    string
	Password string
	LoginURL string
}

type renderedEmail struct {
	Subject string
	Text    string
	HTML    string
}

func renderEmail(name, subject string, data emailData) (*renderedEmail, error) {
	var text, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return nil, fmt.Errorf("render %s.txt: %w", name, err)
	}
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return nil, fmt.Errorf("render %s.html: %w", name, err)
	}
	return &renderedEmail{Subject: subject, Text: text.String(), HTML: html.String()}, nil
}

// SMTPMailer sends multipart (plain text + HTML) notifications through an
// authenticated SMTP relay. Port 465 is implicit TLS, anything else STARTTLS.
type SMTPMailer struct {
	cfg  SMTPConfig
	send func(m *gomail.Message) error
	log  *zap.Logger
}

func NewSMTPMailer(cfg SMTPConfig, log *zap.Logger) *SMTPMailer {
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.From, cfg.Password)
	return &SMTPMailer{
		cfg:  cfg,
		send: func(msg *gomail.Message) error { return dialer.DialAndSend(msg) },
		log:  log,
	}
}

func (m *SMTPMailer) loginURL() string {
	base := m.cfg.FrontendURL
	if base == "" {
		base = "http://localhost:5500"
	}
	return strings.TrimRight(base, "/") + "/index.html"
}

func (m *SMTPMailer) deliver(ctx context.Context, to, template, subject string, data emailData) error {
	if m.cfg.From == "" || m.cfg.Password == "" {
		return ErrMailerNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data.AppName = appName
	data.LoginURL = m.loginURL()
	rendered, err := renderEmail(template, subject, data)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", rendered.Subject)
	msg.SetBody("text/plain", rendered.Text)
	msg.AddAlternative("text/html", rendered.HTML)

	if err := m.send(msg); err != nil {
		return fmt.Errorf("send %s email: %w", template, err)
	}
	m.log.Info("email sent", zap.String("template", template), zap.String("to", to))
	return nil
}

func (m *SMTPMailer) SendRecovery(ctx context.Context, to, name, tempPassword string) error {
	return m.deliver(ctx, to, "recovery", "Recuperación de Contraseña - "+appName,
		emailData{Name: name, Email: to, Password: tempPassword})
}

func (m *SMTPMailer) SendWelcome(ctx context.Context, to, name, tempPassword string) error {
	return m.deliver(ctx, to, "welcome", "Registro en "+appName,
		emailData{Name: name, Email: to, Password: tempPassword})
}

func (m *SMTPMailer) SendPasswordChanged(ctx context.Context, to, name string) error {
	return m.deliver(ctx, to, "changed", "Contraseña actualizada - "+appName,
		emailData{Name: name, Email: to})
}
