package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"e_mairie_go/logger"
	"e_mairie_go/middleware"
	"e_mairie_go/models"
	"e_mairie_go/services"
	"e_mairie_go/templates/pages"

	"github.com/labstack/echo/v4"
)

const agentAppointmentsPath = "/services/agent/rendez-vous/"

// slotsResponse is the body of the slot availability API
type slotsResponse struct {
	Slots []services.SlotAvailability `json:"creneaux"`
}

// AvailableSlotsHandler returns the open slots of a type on a day. Missing or malformed
// parameters give an empty list rather than an error.
func AvailableSlotsHandler(c echo.Context) error {
	empty := slotsResponse{Slots: []services.SlotAvailability{}}

	typeID := strings.TrimSpace(c.QueryParam("type_rdv"))
	date, err := services.ParseAppointmentDate(c.QueryParam("date"))
	if typeID == "" || err != nil {
		return c.JSON(http.StatusOK, empty)
	}

	slots, err := services.ComputeAvailableSlots(middleware.GetTenantDB(c), typeID, date)
	if err != nil {
		logger.L().Warn("slot availability lookup failed", "type_rdv", typeID, "error", err)
		return c.JSON(http.StatusOK, empty)
	}
	return c.JSON(http.StatusOK, slotsResponse{Slots: slots})
}

// AppointmentTypesHandler lists the active appointment types that have bookable slots
func AppointmentTypesHandler(c echo.Context) error {
	types, err := services.ListAppointmentTypesWithSlots(middleware.GetTenantDB(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load appointment types")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"types_rdv": types})
}

// BookingHandler renders the booking form
func BookingHandler(c echo.Context) error {
	types, err := services.ListAppointmentTypesWithSlots(middleware.GetTenantDB(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load appointment types")
	}
	values := requesterValues(middleware.GetCurrentUser(c))
	values["type_rdv"] = c.QueryParam("type_rdv")
	data := pages.BookingData{Form: pages.Form{Values: values}, AppointmentTypes: types, Closures: upcomingClosures(c)}
	return renderPage(c, http.StatusOK, pages.Booking, tr(c, "page.booking"), data)
}

// BookingPostHandler books a slot and sends the browser to the confirmation page
func BookingPostHandler(c echo.Context) error {
	conn := middleware.GetTenantDB(c)

	rerender := func(status int, problems []string) error {
		types, err := services.ListAppointmentTypesWithSlots(conn)
		if err != nil {
			logger.L().Error("failed to list appointment types", "error", err)
		}
		data := pages.BookingData{
			Form:             pages.Form{Values: submittedValues(c), Problems: problems},
			AppointmentTypes: types,
			Closures:         upcomingClosures(c),
		}
		return renderPage(c, status, pages.Booking, tr(c, "page.booking"), data)
	}

	if !captchaPassed(c) {
		return rerender(http.StatusUnprocessableEntity, []string{tr(c, "flash.captcha_failed")})
	}

	appointment, err := services.BookAppointment(conn, services.BookingInput{
		AppointmentTypeID: c.FormValue("type_rdv"),
		Date:              c.FormValue("date"),
		Time:              c.FormValue("heure"),
		CitizenID:         currentUserID(c),
		LastName:          c.FormValue("nom"),
		FirstName:         c.FormValue("prenom"),
		Phone:             c.FormValue("telephone"),
		Email:             c.FormValue("email"),
		Reason:            c.FormValue("motif"),
	})
	if err != nil {
		switch {
		case services.ValidationProblems(err) != nil:
			return rerender(http.StatusUnprocessableEntity, services.ValidationProblems(err))
		case errors.Is(err, services.ErrSlotFull):
			return rerender(http.StatusConflict, []string{tr(c, "flash.slot_full")})
		case errors.Is(err, services.ErrSlotNotFound):
			return rerender(http.StatusUnprocessableEntity, []string{tr(c, "flash.slot_not_found")})
		case errors.Is(err, services.ErrDateInPast):
			return rerender(http.StatusUnprocessableEntity, []string{tr(c, "flash.date_in_past")})
		case errors.Is(err, services.ErrDateClosed):
			return rerender(http.StatusUnprocessableEntity, []string{tr(c, "flash.date_closed")})
		case errors.Is(err, services.ErrAppointmentTypeNotFound):
			return rerender(http.StatusUnprocessableEntity, []string{tr(c, "flash.appointment_type_not_found")})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to book appointment")
	}

	notifier(c).AppointmentBooked(appointment)

	return flashRedirect(c, middleware.FlashSuccess, tr(c, "flash.appointment_booked"),
		"/services/rendez-vous/confirmation/"+appointment.Token+"/")
}

// AppointmentConfirmationHandler shows an appointment from its public token
func AppointmentConfirmationHandler(c echo.Context) error {
	appointment, err := services.GetAppointmentByToken(middleware.GetTenantDB(c), c.Param("token"))
	if err != nil && !errors.Is(err, services.ErrAppointmentNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load appointment")
	}
	return renderPage(c, http.StatusOK, pages.Appointment, tr(c, "page.appointment_confirmation"), pages.AppointmentData{Appointment: appointment})
}

// CancelAppointmentHandler lets the holder of the token cancel a confirmed appointment
func CancelAppointmentHandler(c echo.Context) error {
	token := c.Param("token")
	to := "/services/rendez-vous/confirmation/" + token + "/"

	appointment, err := services.CancelAppointmentByToken(middleware.GetTenantDB(c), token)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAppointmentNotFound):
			return flashRedirect(c, middleware.FlashError, tr(c, "flash.appointment_not_found"), "/services/rendez-vous/")
		case errors.Is(err, services.ErrAppointmentNotCancellable):
			return flashRedirect(c, middleware.FlashError, tr(c, "flash.appointment_not_cancellable"), to)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to cancel appointment")
	}

	notifier(c).AppointmentCancelled(appointment)
	return flashRedirect(c, middleware.FlashSuccess, tr(c, "flash.appointment_cancelled"), to)
}

// MyAppointmentsHandler lists the appointments booked from the signed-in account
func MyAppointmentsHandler(c echo.Context) error {
	appointments, err := services.ListAppointmentsByCitizen(middleware.GetTenantDB(c), middleware.GetCurrentUser(c).ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load appointments")
	}
	return renderPage(c, http.StatusOK, pages.MyAppointments, tr(c, "page.my_appointments"), pages.MyAppointmentsData{Appointments: appointments})
}

// AgentAppointmentsHandler lists the appointments of a day, today by default
func AgentAppointmentsHandler(c echo.Context) error {
	day := time.Now().Format(models.DateLayout)
	if raw := c.QueryParam("date"); raw != "" {
		if _, err := services.ParseAppointmentDate(raw); err == nil {
			day = raw
		}
	}

	conn := middleware.GetTenantDB(c)
	appointments, err := services.ListAppointmentsForDate(conn, day)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load appointments")
	}
	types, err := services.ListAppointmentTypesWithSlots(conn)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load appointment types")
	}
	data := pages.AgentAppointmentsData{
		Date:             day,
		Appointments:     appointments,
		Closures:         upcomingClosures(c),
		AppointmentTypes: types,
	}
	return renderPage(c, http.StatusOK, pages.AgentAppointments, tr(c, "page.agent_appointments", map[string]interface{}{"date": day}), data)
}

// AgentAppointmentStatusHandler records the outcome of a confirmed appointment
func AgentAppointmentStatusHandler(c echo.Context) error {
	appointment, err := services.UpdateAppointmentStatus(middleware.GetTenantDB(c), c.Param("id"),
		c.FormValue("statut"), c.FormValue("notes"), middleware.GetCurrentUser(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotAuthorized):
			return flashRedirect(c, middleware.FlashError, tr(c, "flash.access_denied"), "/")
		case errors.Is(err, services.ErrAppointmentNotFound):
			return flashRedirect(c, middleware.FlashError, tr(c, "flash.appointment_not_found"), agentAppointmentsPath)
		case errors.Is(err, services.ErrInvalidAppointmentStatus):
			return flashRedirect(c, middleware.FlashError, tr(c, "flash.invalid_status"), agentAppointmentsPath)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update appointment")
	}

	if appointment.Status == models.AppointmentStatusCancelled {
		notifier(c).AppointmentCancelled(appointment)
	}
	return flashRedirect(c, middleware.FlashSuccess, tr(c, "flash.appointment_updated"),
		agentAppointmentsPath+"?date="+appointment.Date)
}

// AgentBlockDateHandler closes a day for booking, for one appointment type or all of them
func AgentBlockDateHandler(c echo.Context) error {
	var typeID *string
	if raw := c.FormValue("type_rdv"); raw != "" {
		typeID = &raw
	}

	blocked, err := services.BlockDate(middleware.GetTenantDB(c), c.FormValue("date"), typeID,
		c.FormValue("motif"), middleware.GetCurrentUser(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotAuthorized):
			return flashRedirect(c, middleware.FlashError, tr(c, "flash.access_denied"), "/")
		case services.ValidationProblems(err) != nil:
			return flashRedirect(c, middleware.FlashError, strings.Join(services.ValidationProblems(err), " "), agentAppointmentsPath)
		case errors.Is(err, services.ErrAppointmentTypeNotFound):
			return flashRedirect(c, middleware.FlashError, tr(c, "flash.appointment_type_not_found"), agentAppointmentsPath)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to close date")
	}

	return flashRedirect(c, middleware.FlashSuccess, tr(c, "flash.date_blocked"),
		agentAppointmentsPath+"?date="+blocked.Date)
}

// AgentUnblockDateHandler reopens a closed day
func AgentUnblockDateHandler(c echo.Context) error {
	err := services.UnblockDate(middleware.GetTenantDB(c), c.Param("id"), middleware.GetCurrentUser(c))
	if errors.Is(err, services.ErrNotAuthorized) {
		return flashRedirect(c, middleware.FlashError, tr(c, "flash.access_denied"), "/")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to reopen date")
	}
	return flashRedirect(c, middleware.FlashSuccess, tr(c, "flash.date_unblocked"), agentAppointmentsPath)
}

func upcomingClosures(c echo.Context) []models.BlockedDate {
	closures, err := services.ListUpcomingBlockedDates(middleware.GetTenantDB(c), time.Now().Format(models.DateLayout))
	if err != nil {
		logger.L().Error("failed to list closures", "error", err)
	}
	return closures
}
