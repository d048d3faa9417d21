package services

import (
	"testing"

	"e_mairie_go/config"
	"e_mairie_go/models"

	"github.com/stretchr/testify/assert"
)

func TestTrackingURLs(t *testing.T) {
	base := "https://yaounde1.example.cm/"
	assert.Equal(t, "https://yaounde1.example.cm/etat-civil/suivi/tok/", RequestTrackingURL(base, "tok"))
	assert.Equal(t, "https://yaounde1.example.cm/services/rendez-vous/confirmation/tok/", AppointmentManageURL(base, "tok"))
	assert.Equal(t, "https://yaounde1.example.cm/services/reclamation/suivi/tok/", ComplaintTrackingURL(base, "tok"))
}

func TestNewNotifierDefaults(t *testing.T) {
	cfg := &config.Config{AppURL: "http://localhost:8080/"}
	n := NewNotifier(cfg, nil, "", "xx")
	assert.Equal(t, "http://localhost:8080", n.BaseURL)
	assert.Equal(t, "fr", n.Lang)
}

func TestAppointmentData(t *testing.T) {
	mairie := &models.Mairie{Name: "Mairie de Douala 3e", Phone: "233000000"}
	n := NewNotifier(&config.Config{EmailTestMode: true}, mairie, "https://douala3.example.cm", "fr")

	a := &models.Appointment{
		Token:     "tok",
		FirstName: "Awa",
		LastName:  "Ngono",
		Date:      "2030-06-03",
		Time:      "09:00",
		AppointmentType: models.AppointmentType{
			ID:              "type-1",
			Name:            "Légalisation de documents",
			DurationMinutes: 15,
		},
	}
	data := n.AppointmentData(a)
	assert.Equal(t, "Awa Ngono", data.CitizenName)
	assert.Equal(t, "Lundi 03/06/2030", data.Date)
	assert.Equal(t, "Légalisation de documents", data.AppointmentType)
	assert.Equal(t, 15, data.Duration)
	assert.Equal(t, "Mairie de Douala 3e", data.MairieName)
	assert.Equal(t, "https://douala3.example.cm/services/rendez-vous/confirmation/tok/", data.ManageURL)

	// without an e-mail nothing is sent and nothing panics
	n.AppointmentBooked(a)
	n.RequestSubmitted(&models.CivilRequest{})
}
