package services

import (
	"fmt"
	"strings"

	"e_mairie_go/config"
	"e_mairie_go/models"
	"e_mairie_go/services/i18n"
)

// Notifier sends citizen e-mails on behalf of one mairie
type Notifier struct {
	Config  *config.Config
	Mairie  *models.Mairie
	BaseURL string // scheme and host the citizen used, e.g. https://mairie-yaounde1.cm
	Lang    string
}

// NewNotifier builds a Notifier, defaulting the base URL to APP_URL and the language to French
func NewNotifier(cfg *config.Config, mairie *models.Mairie, baseURL, lang string) *Notifier {
	if baseURL == "" && cfg != nil {
		baseURL = cfg.AppURL
	}
	if !i18n.IsSupported(lang) {
		lang = i18n.DefaultLang
	}
	return &Notifier{Config: cfg, Mairie: mairie, BaseURL: strings.TrimRight(baseURL, "/"), Lang: lang}
}

func (n *Notifier) mairieData() MairieEmailData {
	data := MairieEmailData{AppURL: n.BaseURL}
	if n.Mairie != nil {
		data.MairieName = n.Mairie.Name
		data.MairiePhone = n.Mairie.Phone
		data.MairieEmail = n.Mairie.Email
	}
	return data
}

func (n *Notifier) send(email *Email) {
	if n.Config == nil {
		return
	}
	SendEmailAsync(n.Config, email)
}

// RequestTrackingURL is the public tracking page of a civil request
func RequestTrackingURL(baseURL, token string) string {
	return fmt.Sprintf("%s/etat-civil/suivi/%s/", strings.TrimRight(baseURL, "/"), token)
}

// AppointmentManageURL is the confirmation page of an appointment
func AppointmentManageURL(baseURL, token string) string {
	return fmt.Sprintf("%s/services/rendez-vous/confirmation/%s/", strings.TrimRight(baseURL, "/"), token)
}

// ComplaintTrackingURL is the public tracking page of a complaint
func ComplaintTrackingURL(baseURL, token string) string {
	return fmt.Sprintf("%s/services/reclamation/suivi/%s/", strings.TrimRight(baseURL, "/"), token)
}

func (n *Notifier) requestData(r *models.CivilRequest) RequestEmailData {
	return RequestEmailData{
		MairieEmailData: n.mairieData(),
		RequesterName:   r.RequesterName(),
		VariantLabel:    r.Variant.Label(),
		ReferenceNumber: r.ReferenceNumber,
		StatusLabel:     models.RequestStatusLabel(r.Status),
		Comment:         r.AgentComment,
		RejectionReason: r.RejectionReason,
		TrackingURL:     RequestTrackingURL(n.BaseURL, r.TrackingToken),
	}
}

// RequestSubmitted acknowledges a new civil request when the requester left an e-mail
func (n *Notifier) RequestSubmitted(r *models.CivilRequest) {
	if r.RequesterEmail == "" {
		return
	}
	n.send(BuildRequestSubmittedEmail(r.RequesterEmail, n.requestData(r), n.Lang))
}

// RequestStatusChanged tells the requester about a transition
func (n *Notifier) RequestStatusChanged(r *models.CivilRequest) {
	if r.RequesterEmail == "" {
		return
	}
	n.send(BuildRequestStatusEmail(r.RequesterEmail, n.requestData(r), n.Lang))
}

// AppointmentData fills the appointment templates from a booked appointment
func (n *Notifier) AppointmentData(a *models.Appointment) AppointmentEmailData {
	data := AppointmentEmailData{
		MairieEmailData: n.mairieData(),
		CitizenName:     a.FullName(),
		Date:            a.Date,
		Time:            a.Time,
		ManageURL:       AppointmentManageURL(n.BaseURL, a.Token),
	}
	if day, err := a.Day(); err == nil {
		data.Date = fmt.Sprintf("%s %s", models.WeekdayName(models.MondayIndex(day.Weekday())), day.Format("02/01/2006"))
	}
	if a.AppointmentType.ID != "" {
		data.AppointmentType = a.AppointmentType.Name
		data.Duration = a.AppointmentType.DurationMinutes
	}
	return data
}

// AppointmentBooked confirms a booking
func (n *Notifier) AppointmentBooked(a *models.Appointment) {
	if a.Email == "" {
		return
	}
	n.send(BuildAppointmentConfirmationEmail(a.Email, n.AppointmentData(a), n.Lang))
}

// AppointmentCancelled confirms a cancellation
func (n *Notifier) AppointmentCancelled(a *models.Appointment) {
	if a.Email == "" {
		return
	}
	n.send(BuildAppointmentCancelledEmail(a.Email, n.AppointmentData(a), n.Lang))
}

func (n *Notifier) complaintData(c *models.Complaint) ComplaintEmailData {
	return ComplaintEmailData{
		MairieEmailData: n.mairieData(),
		CitizenName:     strings.TrimSpace(c.FirstName + " " + c.LastName),
		Title:           c.Title,
		StatusLabel:     models.ComplaintStatusLabel(c.Status),
		Response:        c.Response,
		TrackingURL:     ComplaintTrackingURL(n.BaseURL, c.TrackingToken),
	}
}

// ComplaintSubmitted acknowledges a complaint
func (n *Notifier) ComplaintSubmitted(c *models.Complaint) {
	if c.Email == "" {
		return
	}
	n.send(BuildComplaintSubmittedEmail(c.Email, n.complaintData(c), n.Lang))
}

// ComplaintUpdated notifies an agent update
func (n *Notifier) ComplaintUpdated(c *models.Complaint) {
	if c.Email == "" {
		return
	}
	n.send(BuildComplaintUpdateEmail(c.Email, n.complaintData(c), n.Lang))
}

// NewsletterWelcome greets a new subscriber with their unsubscribe link
func (n *Notifier) NewsletterWelcome(s *models.NewsletterSubscription) {
	n.send(BuildNewsletterWelcomeEmail(s.Email, NewsletterEmailData{
		MairieEmailData: n.mairieData(),
		SubscriberName:  strings.TrimSpace(s.FirstName + " " + s.LastName),
		UnsubscribeURL:  fmt.Sprintf("%s/services/newsletter/desinscription/%s/", n.BaseURL, s.UnsubscribeToken),
	}, n.Lang))
}
