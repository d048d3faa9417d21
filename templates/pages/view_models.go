package pages

import (
	"net/url"

	"e_mairie_go/models"
	"e_mairie_go/services"
)

// FormValues holds submitted form fields so a failed form can be shown again filled in
type FormValues map[string]string

// FormValuesFrom keeps the first value of every field
func FormValuesFrom(v url.Values) FormValues {
	values := make(FormValues, len(v))
	for key := range v {
		values[key] = v.Get(key)
	}
	return values
}

// Form is embedded by every page that re-renders a form with problems
type Form struct {
	Values   FormValues
	Problems []string
}

// HomeData holds the portal entry points
type HomeData struct {
	Variants         []models.RequestVariant
	AppointmentTypes []models.AppointmentType
}

type LoginData struct {
	Form
}

type RegisterData struct {
	Form
}

type ProfileData struct {
	Form
}

// CivilFormData renders the request form of one variant
type CivilFormData struct {
	Form
	Variant models.RequestVariant
}

// TrackingData is the public tracking page; Request is nil when the token matched nothing
type TrackingData struct {
	Token   string
	Request *models.CivilRequest
}

type MyRequestsData struct {
	Requests []models.CivilRequest
}

// AgentRequestsData is the agent work list. Without a type or search filter the latest
// requests are grouped by variant in Recent instead of listed in Requests.
type AgentRequestsData struct {
	Filter   services.CivilRequestFilter
	Requests []models.CivilRequest
	Recent   map[models.RequestVariant][]models.CivilRequest
	Counts   map[string]int64
	Variants []models.RequestVariant
	Statuses []string
	Year     int
}

// AgentRequestData is one request with its available actions and audit trail
type AgentRequestData struct {
	Request *models.CivilRequest
	Actions []services.RequestAction
	History []models.AuditLog
}

type BookingData struct {
	Form
	AppointmentTypes []models.AppointmentType
	Closures         []models.BlockedDate
}

// AppointmentData is the confirmation and management page; Appointment is nil when not found
type AppointmentData struct {
	Appointment *models.Appointment
}

type MyAppointmentsData struct {
	Appointments []models.Appointment
}

type AgentAppointmentsData struct {
	Date             string
	Appointments     []models.Appointment
	Closures         []models.BlockedDate
	AppointmentTypes []models.AppointmentType
}

type ComplaintFormData struct {
	Form
	Categories []models.ComplaintCategory
}

// ComplaintData is the public complaint tracking page; Complaint is nil when not found
type ComplaintData struct {
	Token     string
	Complaint *models.Complaint
}

type MyComplaintsData struct {
	Complaints []models.Complaint
}

type AgentComplaintsData struct {
	Status     string
	Complaints []models.Complaint
	Statuses   []string
	Priorities []string
}

type NewsletterData struct {
	Form
	Unsubscribed bool
}

// MessageData is a standalone notice, used for errors and not-found pages
type MessageData struct {
	Code    int
	Message string
}
