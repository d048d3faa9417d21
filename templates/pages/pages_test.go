package pages

import (
	"bytes"
	"context"
	"testing"
	"time"

	"e_mairie_go/middleware"
	"e_mairie_go/models"
	"e_mairie_go/services"
	"e_mairie_go/services/i18n"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, name string, p Page) string {
	t.Helper()
	require.NoError(t, i18n.Load())
	var buf bytes.Buffer
	require.NoError(t, Render(name, p).Render(context.Background(), &buf))
	return buf.String()
}

func sampleMairie() *models.Mairie {
	return &models.Mairie{Name: "Mairie de Douala 1er", Code: "DLA1", PrimaryColor: "#1E40AF", SecondaryColor: "#059669"}
}

func sampleAgent() *models.User {
	return &models.User{ID: "agent-1", FirstName: "Paul", LastName: "Mbarga", Role: models.RoleCivilRegistryAgent}
}

func sampleRequest() *models.CivilRequest {
	processed := time.Date(2025, 3, 18, 10, 0, 0, 0, time.UTC)
	year := 1990
	r := &models.CivilRequest{
		ID:                 "req-1",
		CreatedAt:          time.Date(2025, 3, 17, 9, 0, 0, 0, time.UTC),
		ReferenceNumber:    "NAI-2025-00001",
		TrackingToken:      "token-1",
		Status:             models.RequestStatusProcessing,
		RequesterLastName:  "Ngo",
		RequesterFirstName: "Marie",
		RequesterPhone:     "699000000",
		ProcessedAt:        &processed,
		IDDocumentKey:      "cni.pdf",
		IDDocumentName:     "cni.pdf",
		IDDocumentSize:     2048,
	}
	r.SetDetails(&models.BirthDetails{
		CertificateKind:   models.CertificateExtract,
		SubjectLastName:   "Ngo",
		SubjectFirstNames: "Marie",
		BirthDate:         time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
		BirthPlace:        "Douala",
		FatherLastName:    "Ngo",
		MotherLastName:    "Eboa",
		RegistrationYear:  &year,
	})
	return r
}

func TestRenderUnknownPage(t *testing.T) {
	var buf bytes.Buffer
	err := Render("nope", Page{}).Render(context.Background(), &buf)
	assert.Error(t, err)
}

func TestRenderHome(t *testing.T) {
	html := render(t, Home, Page{
		Title:  "Accueil",
		Mairie: sampleMairie(),
		CSRF:   "csrf-value",
		Nonce:  "nonce-value",
		Data: HomeData{
			Variants:         models.AllVariants,
			AppointmentTypes: []models.AppointmentType{{ID: "type-1", Name: "Dépôt de dossier", DurationMinutes: 30}},
		},
	})

	assert.Contains(t, html, "Mairie de Douala 1er")
	assert.Contains(t, html, `href="/etat-civil/livret-famille/"`)
	assert.Contains(t, html, `name="csrf_token" value="csrf-value"`)
	assert.Contains(t, html, `nonce="nonce-value"`)
	assert.Contains(t, html, "Dépôt de dossier")
	assert.Contains(t, html, `lang="fr"`)
}

func TestRenderWithoutMairie(t *testing.T) {
	html := render(t, Home, Page{Data: HomeData{}})
	assert.Contains(t, html, "e-Mairie")
}

func TestRenderFlashesAndUserNav(t *testing.T) {
	html := render(t, Message, Page{
		Title:   "Info",
		User:    &models.User{FirstName: "Marie", Role: models.RoleCitizen},
		Flashes: []middleware.Flash{{Level: middleware.FlashSuccess, Message: "Bravo <b>"}},
		Data:    MessageData{Code: 200, Message: "Tout va bien"},
	})

	assert.Contains(t, html, `class="flash flash-success"`)
	assert.Contains(t, html, "Bravo &lt;b&gt;")
	assert.Contains(t, html, "/services/rendez-vous/mes-rdv/")
	assert.NotContains(t, html, "/etat-civil/agent/demandes/")
	assert.Contains(t, html, "Tout va bien")
}

func TestRenderEnglish(t *testing.T) {
	html := render(t, Login, Page{Lang: "en", Data: LoginData{}})
	assert.Contains(t, html, `lang="en"`)
	assert.Contains(t, html, "Sign in")
}

func TestRenderCivilFormKeepsValues(t *testing.T) {
	html := render(t, CivilForm, Page{
		Mairie: sampleMairie(),
		Data: CivilFormData{
			Form: Form{
				Values:   FormValues{"nom": "Ngo", "nom_defunt": "Eboa"},
				Problems: []string{"date de décès obligatoire"},
			},
			Variant: models.VariantDeath,
		},
	})

	assert.Contains(t, html, `value="Ngo"`)
	assert.Contains(t, html, `value="Eboa"`)
	assert.Contains(t, html, "date de décès obligatoire")
	assert.Contains(t, html, `name="date_deces"`)
	assert.NotContains(t, html, `name="nom_epoux"`)
}

func TestRenderCivilFormEveryVariant(t *testing.T) {
	for _, v := range models.AllVariants {
		t.Run(string(v), func(t *testing.T) {
			html := render(t, CivilForm, Page{Data: CivilFormData{Variant: v}})
			assert.Contains(t, html, `action="/etat-civil/`+v.PathSegment()+`/"`)
		})
	}
}

func TestRenderTracking(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		html := render(t, Tracking, Page{Data: TrackingData{Token: "token-1", Request: sampleRequest()}})
		assert.Contains(t, html, "NAI-2025-00001")
		assert.Contains(t, html, models.RequestStatusLabel(models.RequestStatusProcessing))
		assert.Contains(t, html, "/etat-civil/suivi/token-1/recepisse.pdf")
		assert.Contains(t, html, "18/03/2025")
	})

	t.Run("not found", func(t *testing.T) {
		html := render(t, Tracking, Page{Data: TrackingData{Token: "missing"}})
		assert.Contains(t, html, i18n.Translate("fr", "page.tracking_not_found"))
	})

	t.Run("empty", func(t *testing.T) {
		html := render(t, Tracking, Page{Data: TrackingData{}})
		assert.NotContains(t, html, i18n.Translate("fr", "page.tracking_not_found"))
	})
}

func TestRenderAgentRequestPages(t *testing.T) {
	req := sampleRequest()

	list := render(t, AgentRequests, Page{
		User: sampleAgent(),
		Data: AgentRequestsData{
			Filter:   services.CivilRequestFilter{Variant: models.VariantBirth, Status: models.RequestStatusProcessing},
			Requests: []models.CivilRequest{*req},
			Counts:   map[string]int64{models.RequestStatusProcessing: 1},
			Variants: models.AllVariants,
			Statuses: []string{models.RequestStatusPending, models.RequestStatusProcessing},
			Year:     2025,
		},
	})
	assert.Contains(t, list, "/etat-civil/agent/demandes/naissance/req-1/")
	assert.Contains(t, list, "annee=2025")

	grouped := render(t, AgentRequests, Page{
		User: sampleAgent(),
		Data: AgentRequestsData{
			Recent: map[models.RequestVariant][]models.CivilRequest{
				models.VariantBirth: {*req},
			},
			Variants: models.AllVariants,
			Statuses: []string{models.RequestStatusPending},
		},
	})
	assert.Contains(t, grouped, "/etat-civil/agent/demandes/naissance/req-1/")
	assert.Contains(t, grouped, models.VariantDeath.Label())
	assert.Contains(t, grouped, i18n.Translate("fr", "list.empty"))

	detail := render(t, AgentRequest, Page{
		User: sampleAgent(),
		Data: AgentRequestData{
			Request: req,
			Actions: services.AvailableRequestActions(req.Status),
			History: []models.AuditLog{{UserName: "Paul Mbarga", Description: "Demande traitée"}},
		},
	})
	assert.Contains(t, detail, "/etat-civil/agent/traiter/naissance/req-1/")
	assert.Contains(t, detail, `name="action" value="validate"`)
	assert.Contains(t, detail, "/piece-identite/")
	assert.Contains(t, detail, "Douala")
	assert.Contains(t, detail, "1990")
	assert.Contains(t, detail, "Demande traitée")
}

func TestRenderAppointmentPages(t *testing.T) {
	appt := models.Appointment{
		ID:              "appt-1",
		Token:           "appt-token",
		AppointmentType: models.AppointmentType{Name: "Légalisation", DurationMinutes: 15},
		LastName:        "Ngo",
		FirstName:       "Marie",
		Phone:           "699000000",
		Date:            "2025-03-17",
		Time:            "09:00",
		Status:          models.AppointmentStatusConfirmed,
	}

	html := render(t, Appointment, Page{Data: AppointmentData{Appointment: &appt}})
	assert.Contains(t, html, "/services/rendez-vous/appt-token/annuler/")
	assert.Contains(t, html, "Légalisation")

	missing := render(t, Appointment, Page{Data: AppointmentData{}})
	assert.Contains(t, missing, i18n.Translate("fr", "page.appointment_not_found"))

	mine := render(t, MyAppointments, Page{Data: MyAppointmentsData{Appointments: []models.Appointment{appt}}})
	assert.Contains(t, mine, "/services/rendez-vous/confirmation/appt-token/")

	agent := render(t, AgentAppointments, Page{Data: AgentAppointmentsData{Date: "2025-03-17", Appointments: []models.Appointment{appt}}})
	assert.Contains(t, agent, "/services/agent/rendez-vous/appt-1/statut/")
	assert.Contains(t, agent, `value="no_show"`)

	booking := render(t, Booking, Page{
		Nonce: "n",
		Data: BookingData{
			Form:             Form{Values: FormValues{"type_rdv": "type-1", "heure": "09:00"}},
			AppointmentTypes: []models.AppointmentType{{ID: "type-1", Name: "Légalisation", DurationMinutes: 15}},
		},
	})
	assert.Contains(t, booking, `<option value="type-1" selected>`)
	assert.Contains(t, booking, `data-selected="09:00"`)
	assert.Contains(t, booking, "js/booking.js")
}

func TestRenderComplaintPages(t *testing.T) {
	complaint := models.Complaint{
		ID:            "c-1",
		TrackingToken: "c-token",
		Category:      models.ComplaintCategory{Name: "Voirie"},
		Title:         "Nid-de-poule",
		Description:   "Rue principale",
		Status:        models.ComplaintStatusInProgress,
		Priority:      models.ComplaintPriorityHigh,
		Response:      "Équipe envoyée",
		CreatedAt:     time.Now(),
	}

	form := render(t, ComplaintForm, Page{Data: ComplaintFormData{Categories: []models.ComplaintCategory{{ID: "cat-1", Name: "Voirie"}}}})
	assert.Contains(t, form, `enctype="multipart/form-data"`)
	assert.Contains(t, form, `name="photo"`)

	tracking := render(t, Complaint, Page{Data: ComplaintData{Token: "c-token", Complaint: &complaint}})
	assert.Contains(t, tracking, "Équipe envoyée")

	missing := render(t, Complaint, Page{Data: ComplaintData{Token: "x"}})
	assert.Contains(t, missing, i18n.Translate("fr", "page.complaint_not_found"))

	mine := render(t, MyComplaints, Page{Data: MyComplaintsData{Complaints: []models.Complaint{complaint}}})
	assert.Contains(t, mine, "/services/reclamation/suivi/c-token/")

	agent := render(t, AgentComplaints, Page{Data: AgentComplaintsData{
		Complaints: []models.Complaint{complaint},
		Statuses:   []string{models.ComplaintStatusSubmitted, models.ComplaintStatusInProgress},
		Priorities: []string{models.ComplaintPriorityNormal, models.ComplaintPriorityHigh},
	}})
	assert.Contains(t, agent, "/services/agent/reclamations/c-1/")
	assert.Contains(t, agent, `<option value="in_progress" selected>`)
	assert.Contains(t, agent, `<option value="high" selected>`)
}

func TestRenderNewsletter(t *testing.T) {
	form := render(t, Newsletter, Page{Data: NewsletterData{}})
	assert.Contains(t, form, `action="/services/newsletter/"`)

	done := render(t, Newsletter, Page{Data: NewsletterData{Unsubscribed: true}})
	assert.Contains(t, done, i18n.Translate("fr", "page.unsubscribed"))
}
