// internal/email/service.go
package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	texttemplate "text/template"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

//go:embed templates
var templateFS embed.FS

// Provider identifies supported email providers
type Provider string

const (
	ProviderSMTP     Provider = "smtp"
	ProviderSendgrid Provider = "sendgrid"

	DefaultTemplatePath = "templates"
)

// EmailData contains all necessary information for sending an email
type EmailData struct {
	To           string
	ToName       string
	From         string
	FromName     string
	Subject      string
	TemplateName string
	TemplateData any
}

// Config is the delivery configuration.
type Config struct {
	Provider       Provider
	SendgridAPIKey string
	From           string
	FromName       string
	SMTP           SMTPConfig
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// sendgridSender is the part of the sendgrid client the service uses.
type sendgridSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// Service renders templates and hands messages to the configured provider.
type Service struct {
	config    Config
	sendgrid  sendgridSender
	sendSMTP  func(addr string, from string, to []string, msg []byte) error
	Templates map[string]*Template
}

type Template struct {
	HTML      *template.Template
	Plaintext *texttemplate.Template
}

// NewEmailService creates a new email service instance
func NewEmailService(config Config) (*Service, error) {
	s := &Service{
		config:    config,
		Templates: make(map[string]*Template),
	}
	s.sendSMTP = s.smtpSendMail

	switch config.Provider {
	case ProviderSendgrid:
		if config.SendgridAPIKey == "" {
			return nil, fmt.Errorf("sendgrid provider requires an api key")
		}
		s.sendgrid = sendgrid.NewSendClient(config.SendgridAPIKey)
	case ProviderSMTP:
		if config.SMTP.Host == "" {
			return nil, fmt.Errorf("smtp provider requires a host")
		}
	default:
		return nil, fmt.Errorf("unsupported email provider: %q", config.Provider)
	}

	if err := s.loadTemplates(templateFS); err != nil {
		return nil, fmt.Errorf("loading email templates: %w", err)
	}

	return s, nil
}

// loadTemplates parses every templates/<name>/{html,plaintext}.tmpl pair.
func (s *Service) loadTemplates(fsys fs.FS) error {
	groups, err := fs.ReadDir(fsys, DefaultTemplatePath)
	if err != nil {
		return fmt.Errorf("failed to read email templates directory: %w", err)
	}

	for _, group := range groups {
		if !group.IsDir() {
			continue
		}
		groupPath := path.Join(DefaultTemplatePath, group.Name())

		html, err := template.ParseFS(fsys, groupPath+"/html.tmpl")
		if err != nil {
			return fmt.Errorf("parsing %s html template: %w", group.Name(), err)
		}
		text, err := texttemplate.ParseFS(fsys, groupPath+"/plaintext.tmpl")
		if err != nil {
			return fmt.Errorf("parsing %s plaintext template: %w", group.Name(), err)
		}
		s.Templates[group.Name()] = &Template{HTML: html, Plaintext: text}
	}

	if len(s.Templates) == 0 {
		return fmt.Errorf("no email templates found")
	}
	return nil
}

// SendEmail sends an email using the configured provider
func (s *Service) SendEmail(data EmailData) error {
	htmlContent, textContent, err := s.renderTemplate(data.TemplateName, data.TemplateData)
	if err != nil {
		return fmt.Errorf("rendering template: %w", err)
	}

	if data.From == "" {
		data.From = s.config.From
	}
	if data.FromName == "" {
		data.FromName = s.config.FromName
	}
	if data.From == "" {
		return fmt.Errorf("missing sender email address (From)")
	}

	switch s.config.Provider {
	case ProviderSendgrid:
		return s.sendWithSendgrid(data, htmlContent, textContent)
	case ProviderSMTP:
		return s.sendWithSMTP(data, htmlContent, textContent)
	default:
		return fmt.Errorf("unsupported email provider: %s", s.config.Provider)
	}
}

func (s *Service) renderTemplate(name string, data any) (string, string, error) {
	tmpl, exists := s.Templates[name]
	if !exists {
		return "", "", fmt.Errorf("template %s not found", name)
	}

	var htmlbuf bytes.Buffer
	if err := tmpl.HTML.Execute(&htmlbuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute html template: %w", err)
	}

	var textbuf bytes.Buffer
	if err := tmpl.Plaintext.Execute(&textbuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute plaintext template: %w", err)
	}

	return htmlbuf.String(), textbuf.String(), nil
}
