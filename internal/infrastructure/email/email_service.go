package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/core/ports"
)

// EmailConfig holds email service configuration
type EmailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	CompanyName    string
}

// EmailService implements the EmailService interface. It only sends quota
// notifications; failures are reported to the caller but callers treat
// sending as best effort.
type EmailService struct {
	config    *EmailConfig
	logger    *logrus.Logger
	client    *sendgrid.Client
	templates map[string]*template.Template
}

const quotaExhaustedTemplate = `
<p>Hi,</p>
<p>Your {{.CompanyName}} plan has used all {{.Limit}} of its monthly
<strong>{{.ResourceType}}</strong> allowance.</p>
<p>The allowance resets on {{.ResetDate}}. To keep going before then,
consider upgrading your plan.</p>
<p>— The {{.CompanyName}} team</p>`

const quotaWarningTemplate = `
<p>Hi,</p>
<p>Your {{.CompanyName}} plan has used {{.Used}} of its {{.Limit}} monthly
<strong>{{.ResourceType}}</strong> allowance.</p>
<p>The allowance resets on {{.ResetDate}}.</p>
<p>— The {{.CompanyName}} team</p>`

// NewEmailService creates a new email service instance
func NewEmailService(config *EmailConfig, logger *logrus.Logger) (ports.EmailService, error) {
	client := sendgrid.NewSendClient(config.SendGridAPIKey)

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}

	return &EmailService{
		config:    config,
		logger:    logger,
		client:    client,
		templates: templates,
	}, nil
}

// loadTemplates parses the built-in notification templates
func loadTemplates() (map[string]*template.Template, error) {
	sources := map[string]string{
		"quota_exhausted": quotaExhaustedTemplate,
		"quota_warning":   quotaWarningTemplate,
	}

	templates := make(map[string]*template.Template, len(sources))
	for name, src := range sources {
		tmpl, err := template.New(name).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}

	return templates, nil
}

// sendEmail sends an email using SendGrid
func (e *EmailService) sendEmail(to, subject, htmlContent string) error {
	from := mail.NewEmail(e.config.FromName, e.config.FromEmail)
	recipient := mail.NewEmail("", to)

	message := mail.NewSingleEmail(from, subject, recipient, "", htmlContent)

	response, err := e.client.Send(message)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
			"error":   err,
		}).Error("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"to":          to,
		"subject":     subject,
		"status_code": response.StatusCode,
	}).Info("Email sent successfully")

	return nil
}

// renderTemplate renders an email template with the provided data
func (e *EmailService) renderTemplate(templateName string, data interface{}) (string, error) {
	tmpl, exists := e.templates[templateName]
	if !exists {
		return "", fmt.Errorf("template %s not found", templateName)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	return buf.String(), nil
}

// QuotaEmailData holds data for the quota notification templates
type QuotaEmailData struct {
	CompanyName  string
	ResourceType string
	Used         int
	Limit        int
	ResetDate    string
}

// SendQuotaExhaustedEmail notifies a user that a monthly allowance ran out
func (e *EmailService) SendQuotaExhaustedEmail(ctx context.Context, email, resourceType string, used, limit int, resetDate time.Time) error {
	data := QuotaEmailData{
		CompanyName:  e.config.CompanyName,
		ResourceType: resourceType,
		Used:         used,
		Limit:        limit,
		ResetDate:    resetDate.Format("January 2, 2006"),
	}

	htmlContent, err := e.renderTemplate("quota_exhausted", data)
	if err != nil {
		return fmt.Errorf("failed to render quota exhausted template: %w", err)
	}

	subject := fmt.Sprintf("Monthly %s limit reached - %s", resourceType, e.config.CompanyName)

	return e.sendEmail(email, subject, htmlContent)
}

// SendQuotaWarningEmail notifies a user that an allowance is nearly used up
func (e *EmailService) SendQuotaWarningEmail(ctx context.Context, email, resourceType string, used, limit int, resetDate time.Time) error {
	data := QuotaEmailData{
		CompanyName:  e.config.CompanyName,
		ResourceType: resourceType,
		Used:         used,
		Limit:        limit,
		ResetDate:    resetDate.Format("January 2, 2006"),
	}

	htmlContent, err := e.renderTemplate("quota_warning", data)
	if err != nil {
		return fmt.Errorf("failed to render quota warning template: %w", err)
	}

	subject := fmt.Sprintf("Monthly %s allowance almost used - %s", resourceType, e.config.CompanyName)

	return e.sendEmail(email, subject, htmlContent)
}
