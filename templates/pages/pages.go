package pages

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"e_mairie_go/middleware"
	"e_mairie_go/models"
	"e_mairie_go/services"
	"e_mairie_go/services/i18n"
	"e_mairie_go/templates/components"
	"e_mairie_go/templates/partials"

	"github.com/a-h/templ"
)

//go:embed html/*.html
var files embed.FS

// Page is the data every page receives: the layout reads the common fields and
// the page body reads Data.
type Page struct {
	Title            string
	Lang             string
	Mairie           *models.Mairie
	User             *models.User
	CSRF             string
	Nonce            string
	Flashes          []middleware.Flash
	TurnstileSiteKey string
	Data             interface{}
}

// Page names
const (
	Home              = "home"
	Login             = "login"
	Register          = "register"
	Profile           = "profile"
	CivilHome         = "civil_home"
	ServicesHome      = "services_home"
	CivilForm         = "civil_form"
	Tracking          = "tracking"
	MyRequests        = "my_requests"
	AgentRequests     = "agent_requests"
	AgentRequest      = "agent_request"
	Booking           = "booking"
	Appointment       = "appointment"
	MyAppointments    = "my_appointments"
	AgentAppointments = "agent_appointments"
	ComplaintForm     = "complaint_form"
	Complaint         = "complaint"
	MyComplaints      = "my_complaints"
	AgentComplaints   = "agent_complaints"
	Newsletter        = "newsletter"
	Message           = "message"
)

var pageNames = []string{
	Home, Login, Register, Profile, CivilHome, ServicesHome, CivilForm, Tracking, MyRequests, AgentRequests, AgentRequest,
	Booking, Appointment, MyAppointments, AgentAppointments,
	ComplaintForm, Complaint, MyComplaints, AgentComplaints, Newsletter, Message,
}

var pageTemplates = mustParsePages()

func funcMap() template.FuncMap {
	return template.FuncMap{
		"t":                 translate,
		"asset":             middleware.AssetURL,
		"json":              components.JSON,
		"date":              partials.FormatDate,
		"datetime":          partials.FormatDateTime,
		"dateptr":           partials.FormatDatePtr,
		"relative":          partials.FormatRelativeTime,
		"filesize":          partials.FormatFileSize,
		"requestStatus":     models.RequestStatusLabel,
		"appointmentStatus": models.AppointmentStatusLabel,
		"complaintStatus":   models.ComplaintStatusLabel,
		"priority":          partials.PriorityLabel,
		"actions":           services.AvailableRequestActions,
		"actionLabel":       services.RequestActionLabel,
		"weekday":           models.WeekdayName,
		"lower":             strings.ToLower,
		"dict":              dict,
		"today":             func() string { return time.Now().Format(models.DateLayout) },
	}
}

// translate is called from templates as {{t .Lang "key" "name" value ...}}
func translate(lang, key string, pairs ...interface{}) string {
	args := make(map[string]interface{}, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		args[fmt.Sprint(pairs[i])] = pairs[i+1]
	}
	return i18n.Translate(lang, key, args)
}

// dict builds a map from key/value pairs, for passing several values to a sub-template
func dict(pairs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		m[fmt.Sprint(pairs[i])] = pairs[i+1]
	}
	return m
}

func mustParsePages() map[string]*template.Template {
	base := template.Must(template.New("").Option("missingkey=zero").Funcs(funcMap()).ParseFS(files, "html/layout.html"))

	parsed := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		set := template.Must(template.Must(base.Clone()).ParseFS(files, "html/"+name+".html"))
		parsed[name] = set.Lookup("layout")
	}
	return parsed
}

// Render returns the named page as a templ component
func Render(name string, p Page) templ.Component {
	tmpl, ok := pageTemplates[name]
	if !ok {
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			return fmt.Errorf("unknown page %q", name)
		})
	}
	if p.Lang == "" {
		p.Lang = i18n.DefaultLang
	}
	return templ.FromGoHTML(tmpl, p)
}
