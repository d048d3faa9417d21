package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"e_mairie_go/middleware"
	"e_mairie_go/models"
	"e_mairie_go/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const bookingMonday = "2030-06-03"

// setupBookingType adds a type with one single-place Monday slot at 09:00
func setupBookingType(t *testing.T, conn *gorm.DB) *models.AppointmentType {
	t.Helper()
	apptType := &models.AppointmentType{Name: "Retrait de document", DurationMinutes: 15, Service: models.ServiceGeneral}
	require.NoError(t, services.CreateAppointmentType(conn, apptType))
	require.NoError(t, services.CreateSlot(conn, &models.AvailableSlot{
		AppointmentTypeID: apptType.ID, Weekday: 0, StartTime: "09:00", EndTime: "09:30", PlacesMax: 1, IsActive: true,
	}))
	return apptType
}

func bookingForm(typeID string) url.Values {
	return url.Values{
		"type_rdv":  {typeID},
		"date":      {bookingMonday},
		"heure":     {"09:00"},
		"nom":       {"Nkoulou"},
		"prenom":    {"Brice"},
		"telephone": {"655443322"},
		"email":     {"brice@example.cm"},
		"motif":     {"Retrait d'acte"},
	}
}

func TestAvailableSlotsHandler(t *testing.T) {
	conn := setupTenantDB(t)
	apptType := setupBookingType(t, conn)

	slots := func(query string) map[string][]map[string]interface{} {
		c, rec := getContext(conn, "/services/api/creneaux/?"+query, nil)
		require.NoError(t, AvailableSlotsHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		var body map[string][]map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body
	}

	t.Run("lists remaining places", func(t *testing.T) {
		body := slots("type_rdv=" + apptType.ID + "&date=" + bookingMonday)
		require.Len(t, body["creneaux"], 1)
		assert.Equal(t, "09:00", body["creneaux"][0]["heure"])
		assert.Equal(t, float64(1), body["creneaux"][0]["places_restantes"])
	})

	t.Run("bad input yields an empty list", func(t *testing.T) {
		assert.Empty(t, slots("type_rdv="+apptType.ID+"&date=demain")["creneaux"])
		assert.Empty(t, slots("date="+bookingMonday)["creneaux"])
	})
}

func TestAppointmentTypesHandler(t *testing.T) {
	conn := setupTenantDB(t)
	setupBookingType(t, conn)

	c, rec := getContext(conn, "/services/api/types-rdv/", nil)
	require.NoError(t, AppointmentTypesHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"types_rdv"`)
	assert.Contains(t, rec.Body.String(), "Retrait de document")
}

func TestBookingPostHandler(t *testing.T) {
	conn := setupTenantDB(t)
	apptType := setupBookingType(t, conn)
	citizen := createUser(t, conn, models.RoleCitizen)

	var token string
	t.Run("books and redirects to the confirmation", func(t *testing.T) {
		c, rec := postForm(conn, "/services/rendez-vous/", bookingForm(apptType.ID), citizen)

		require.NoError(t, BookingPostHandler(c))
		assert.Equal(t, http.StatusSeeOther, rec.Code)

		appointments, err := services.ListAppointmentsByCitizen(conn, citizen.ID)
		require.NoError(t, err)
		require.Len(t, appointments, 1)
		token = appointments[0].Token
		assert.Equal(t, "/services/rendez-vous/confirmation/"+token+"/", rec.Header().Get("Location"))
	})

	t.Run("full slot is a conflict", func(t *testing.T) {
		c, rec := postForm(conn, "/services/rendez-vous/", bookingForm(apptType.ID), nil)

		require.NoError(t, BookingPostHandler(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "Nkoulou")
	})

	t.Run("unknown slot", func(t *testing.T) {
		form := bookingForm(apptType.ID)
		form.Set("heure", "11:00")
		c, rec := postForm(conn, "/services/rendez-vous/", form, nil)

		require.NoError(t, BookingPostHandler(c))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("confirmation page", func(t *testing.T) {
		c, rec := getContext(conn, "/services/rendez-vous/confirmation/"+token+"/", nil)
		c.SetParamNames("token")
		c.SetParamValues(token)

		require.NoError(t, AppointmentConfirmationHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "/services/rendez-vous/"+token+"/annuler/")
	})

	t.Run("cancel frees the place once", func(t *testing.T) {
		cancel := func() (string, []middleware.Flash) {
			c, rec := postForm(conn, "/services/rendez-vous/"+token+"/annuler/", url.Values{}, nil)
			c.SetParamNames("token")
			c.SetParamValues(token)
			require.NoError(t, CancelAppointmentHandler(c))
			return rec.Header().Get("Location"), flashes(t, rec)
		}

		location, messages := cancel()
		assert.Equal(t, "/services/rendez-vous/confirmation/"+token+"/", location)
		require.Len(t, messages, 1)
		assert.Equal(t, middleware.FlashSuccess, messages[0].Level)

		_, messages = cancel()
		require.Len(t, messages, 1)
		assert.Equal(t, middleware.FlashError, messages[0].Level)

		monday, err := services.ParseAppointmentDate(bookingMonday)
		require.NoError(t, err)
		slots, err := services.ComputeAvailableSlots(conn, apptType.ID, monday)
		require.NoError(t, err)
		assert.Equal(t, []services.SlotAvailability{{Time: "09:00", Remaining: 1}}, slots)
	})
}

func TestAgentAppointmentStatusHandler(t *testing.T) {
	conn := setupTenantDB(t)
	apptType := setupBookingType(t, conn)
	agent := createUser(t, conn, models.RoleCommunicationAgent)
	citizen := createUser(t, conn, models.RoleCitizen)

	appointment, err := services.BookAppointment(conn, services.BookingInput{
		AppointmentTypeID: apptType.ID,
		Date:              bookingMonday,
		Time:              "09:00",
		LastName:          "Nkoulou",
		FirstName:         "Brice",
		Phone:             "655443322",
	})
	require.NoError(t, err)

	update := func(status string, user *models.User) string {
		c, rec := postForm(conn, "/services/agent/rendez-vous/"+appointment.ID+"/statut/", url.Values{"statut": {status}}, user)
		c.SetParamNames("id")
		c.SetParamValues(appointment.ID)
		require.NoError(t, AgentAppointmentStatusHandler(c))
		return rec.Header().Get("Location")
	}

	t.Run("citizens are refused", func(t *testing.T) {
		assert.Equal(t, "/", update(models.AppointmentStatusCompleted, citizen))
	})

	t.Run("unknown status", func(t *testing.T) {
		assert.Equal(t, agentAppointmentsPath, update("perdu", agent))
	})

	t.Run("records the outcome", func(t *testing.T) {
		assert.Equal(t, agentAppointmentsPath+"?date="+bookingMonday, update(models.AppointmentStatusCompleted, agent))
		reloaded, err := services.GetAppointmentByToken(conn, appointment.Token)
		require.NoError(t, err)
		assert.Equal(t, models.AppointmentStatusCompleted, reloaded.Status)
	})

	t.Run("day list", func(t *testing.T) {
		c, rec := getContext(conn, agentAppointmentsPath+"?date="+bookingMonday, agent)
		require.NoError(t, AgentAppointmentsHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Nkoulou")
	})
}

func TestAgentBlockDateHandler(t *testing.T) {
	conn := setupTenantDB(t)
	apptType := setupBookingType(t, conn)
	agent := createUser(t, conn, models.RoleCommunicationAgent)
	citizen := createUser(t, conn, models.RoleCitizen)

	block := func(form url.Values, user *models.User) string {
		c, rec := postForm(conn, "/services/agent/rendez-vous/fermetures/", form, user)
		require.NoError(t, AgentBlockDateHandler(c))
		return rec.Header().Get("Location")
	}

	t.Run("citizens are refused", func(t *testing.T) {
		assert.Equal(t, "/", block(url.Values{"date": {bookingMonday}}, citizen))
	})

	t.Run("bad date goes back to the desk", func(t *testing.T) {
		assert.Equal(t, agentAppointmentsPath, block(url.Values{"date": {"lundi"}}, agent))
	})

	t.Run("closed day refuses bookings", func(t *testing.T) {
		location := block(url.Values{"date": {bookingMonday}, "motif": {"Fête de l'unité"}}, agent)
		assert.Equal(t, agentAppointmentsPath+"?date="+bookingMonday, location)

		c, rec := postForm(conn, "/services/rendez-vous/", bookingForm(apptType.ID), nil)
		require.NoError(t, BookingPostHandler(c))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "ne reçoit pas")
	})

	t.Run("reopening frees the day", func(t *testing.T) {
		closures, err := services.ListUpcomingBlockedDates(conn, bookingMonday)
		require.NoError(t, err)
		require.Len(t, closures, 1)

		c, rec := postForm(conn, "/services/agent/rendez-vous/fermetures/"+closures[0].ID+"/supprimer/", url.Values{}, agent)
		c.SetParamNames("id")
		c.SetParamValues(closures[0].ID)
		require.NoError(t, AgentUnblockDateHandler(c))
		assert.Equal(t, agentAppointmentsPath, rec.Header().Get("Location"))

		c, rec = postForm(conn, "/services/rendez-vous/", bookingForm(apptType.ID), nil)
		require.NoError(t, BookingPostHandler(c))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})
}
