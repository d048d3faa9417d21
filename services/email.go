package services

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	texttemplate "text/template"

	"e_mairie_go/config"
	"e_mairie_go/logger"
	"e_mairie_go/services/i18n"
	"e_mairie_go/templates/emails"

	"github.com/resend/resend-go/v2"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// buildEmail renders templateName in lang, falling back to the base (French) template
func buildEmail(templateName string, lang string, data interface{}, toEmail string) *Email {
	htmlBody, textBody, err := loadTemplate(templateName, lang, data)
	if err != nil {
		logger.L().Error("Failed to render email template", "template", templateName, "lang", lang, "error", err)
	}
	return &Email{
		To:       []string{toEmail},
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
}

// loadTemplate renders templateName_lang.{html,txt}, or templateName.{html,txt} when no localized file exists
func loadTemplate(templateName string, lang string, data interface{}) (string, string, error) {
	render := func(ext string) (string, error) {
		name := fmt.Sprintf("%s_%s%s", templateName, lang, ext)
		content, err := fs.ReadFile(emails.FS, name)
		if err != nil {
			name = templateName + ext
			if content, err = fs.ReadFile(emails.FS, name); err != nil {
				return "", fmt.Errorf("failed to read template %s: %w", name, err)
			}
		}

		// plain-text bodies must not be HTML-escaped
		var tmpl interface {
			Execute(w io.Writer, data interface{}) error
		}
		if ext == ".txt" {
			tmpl, err = texttemplate.New(path.Base(name)).Parse(string(content))
		} else {
			tmpl, err = template.New(path.Base(name)).Parse(string(content))
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse template %s: %w", name, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return "", fmt.Errorf("failed to execute template %s: %w", name, err)
		}
		return buf.String(), nil
	}

	htmlContent, err := render(".html")
	if err != nil {
		return "", "", err
	}
	textContent, err := render(".txt")
	if err != nil {
		return "", "", err
	}
	return htmlContent, textContent, nil
}

// SendEmail sends an email through Resend, or logs it when EMAIL_TEST_MODE is on
func SendEmail(cfg *config.Config, email *Email) error {
	if email.HTMLBody == "" && email.TextBody == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	if cfg.EmailTestMode {
		logger.L().Info("Email not sent (test mode)",
			"to", email.To,
			"subject", email.Subject,
			"text", truncate(email.TextBody, 500),
		)
		return nil
	}

	if cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	client := resend.NewClient(cfg.ResendAPIKey)
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %w", err)
	}

	logger.L().Info("Email sent", "id", sent.Id, "to", email.To)
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// SendEmailAsync sends an email in a goroutine so handlers never wait on the mail provider
func SendEmailAsync(cfg *config.Config, email *Email) {
	if email == nil || len(email.To) == 0 || strings.TrimSpace(email.To[0]) == "" {
		return
	}
	emailCopy := &Email{
		To:       append([]string{}, email.To...),
		Subject:  email.Subject,
		HTMLBody: email.HTMLBody,
		TextBody: email.TextBody,
	}

	go func(cfg *config.Config, email *Email) {
		if err := SendEmail(cfg, email); err != nil {
			logger.L().Error("Error sending async email", "to", email.To, "error", err)
		}
	}(cfg, emailCopy)
}

// MairieEmailData is embedded in every template so e-mails carry the mairie identity
type MairieEmailData struct {
	MairieName  string
	MairiePhone string
	MairieEmail string
	AppURL      string
}

// RequestEmailData feeds the civil request templates
type RequestEmailData struct {
	MairieEmailData
	RequesterName   string
	VariantLabel    string
	ReferenceNumber string
	StatusLabel     string
	Comment         string
	RejectionReason string
	TrackingURL     string
}

// BuildRequestSubmittedEmail acknowledges a new civil request
func BuildRequestSubmittedEmail(to string, data RequestEmailData, lang string) *Email {
	email := buildEmail("request_submitted", lang, data, to)
	email.Subject = i18n.Translate(lang, "email.subject.request_submitted", map[string]interface{}{"reference": data.ReferenceNumber})
	return email
}

// BuildRequestStatusEmail notifies a status change on a civil request
func BuildRequestStatusEmail(to string, data RequestEmailData, lang string) *Email {
	email := buildEmail("request_status", lang, data, to)
	email.Subject = i18n.Translate(lang, "email.subject.request_status", map[string]interface{}{"reference": data.ReferenceNumber})
	return email
}

// AppointmentEmailData feeds the appointment templates
type AppointmentEmailData struct {
	MairieEmailData
	CitizenName     string
	AppointmentType string
	Date            string
	Time            string
	Duration        int
	ManageURL       string
}

// BuildAppointmentConfirmationEmail confirms a booking
func BuildAppointmentConfirmationEmail(to string, data AppointmentEmailData, lang string) *Email {
	email := buildEmail("appointment_confirmation", lang, data, to)
	email.Subject = i18n.Translate(lang, "email.subject.appointment_confirmation", map[string]interface{}{"mairie": data.MairieName})
	return email
}

// BuildAppointmentReminderEmail reminds the citizen the day before
func BuildAppointmentReminderEmail(to string, data AppointmentEmailData, lang string) *Email {
	email := buildEmail("appointment_reminder", lang, data, to)
	email.Subject = i18n.Translate(lang, "email.subject.appointment_reminder", map[string]interface{}{"time": data.Time})
	return email
}

// BuildAppointmentCancelledEmail confirms a cancellation
func BuildAppointmentCancelledEmail(to string, data AppointmentEmailData, lang string) *Email {
	email := buildEmail("appointment_cancelled", lang, data, to)
	email.Subject = i18n.Translate(lang, "email.subject.appointment_cancelled", map[string]interface{}{"mairie": data.MairieName})
	return email
}

// ComplaintEmailData feeds the complaint templates
type ComplaintEmailData struct {
	MairieEmailData
	CitizenName string
	Title       string
	StatusLabel string
	Response    string
	TrackingURL string
}

// BuildComplaintSubmittedEmail acknowledges a complaint
func BuildComplaintSubmittedEmail(to string, data ComplaintEmailData, lang string) *Email {
	email := buildEmail("complaint_submitted", lang, data, to)
	email.Subject = i18n.Translate(lang, "email.subject.complaint_submitted")
	return email
}

// BuildComplaintUpdateEmail notifies an agent update on a complaint
func BuildComplaintUpdateEmail(to string, data ComplaintEmailData, lang string) *Email {
	email := buildEmail("complaint_update", lang, data, to)
	email.Subject = i18n.Translate(lang, "email.subject.complaint_update")
	return email
}

// NewsletterEmailData feeds the newsletter welcome template
type NewsletterEmailData struct {
	MairieEmailData
	SubscriberName string
	UnsubscribeURL string
}

// BuildNewsletterWelcomeEmail welcomes a new subscriber
func BuildNewsletterWelcomeEmail(to string, data NewsletterEmailData, lang string) *Email {
	email := buildEmail("newsletter_welcome", lang, data, to)
	email.Subject = i18n.Translate(lang, "email.subject.newsletter_welcome", map[string]interface{}{"mairie": data.MairieName})
	return email
}
