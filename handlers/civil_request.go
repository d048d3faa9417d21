package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"e_mairie_go/logger"
	"e_mairie_go/middleware"
	"e_mairie_go/models"
	"e_mairie_go/services"
	"e_mairie_go/services/jobs"
	"e_mairie_go/templates/pages"

	"github.com/labstack/echo/v4"
)

func civilFormTitle(c echo.Context, variant models.RequestVariant) string {
	return tr(c, "page.civil_form", map[string]interface{}{"variant": variant.Label()})
}

// CivilRequestFormHandler renders the request form of one variant
func CivilRequestFormHandler(variant models.RequestVariant) echo.HandlerFunc {
	return func(c echo.Context) error {
		values := requesterValues(middleware.GetCurrentUser(c))
		data := pages.CivilFormData{Form: pages.Form{Values: values}, Variant: variant}
		return renderPage(c, http.StatusOK, pages.CivilForm, civilFormTitle(c, variant), data)
	}
}

// CivilRequestSubmitHandler stores a citizen request and sends the browser to its tracking page
func CivilRequestSubmitHandler(variant models.RequestVariant) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn := middleware.GetTenantDB(c)
		mairie := middleware.GetMairie(c)

		rerender := func(problems []string) error {
			data := pages.CivilFormData{Form: pages.Form{Values: submittedValues(c), Problems: problems}, Variant: variant}
			return renderPage(c, http.StatusUnprocessableEntity, pages.CivilForm, civilFormTitle(c, variant), data)
		}

		if !captchaPassed(c) {
			return rerender([]string{tr(c, "flash.captcha_failed")})
		}

		details, problems := detailsFromForm(c, variant)
		file, _ := c.FormFile("piece_identite")
		if file != nil {
			if err := services.ValidateIdentityDocument(file); err != nil {
				problems = append(problems, err.Error())
			}
		}
		if len(problems) > 0 {
			return rerender(problems)
		}

		request, err := services.CreateCivilRequest(conn, services.CivilRequestInput{
			RequesterID: currentUserID(c),
			LastName:    c.FormValue("nom"),
			FirstName:   c.FormValue("prenom"),
			Phone:       c.FormValue("telephone"),
			Email:       c.FormValue("email"),
			Details:     details,
			IPAddress:   c.RealIP(),
		})
		if err != nil {
			if problems := services.ValidationProblems(err); problems != nil {
				return rerender(problems)
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save request")
		}

		if file != nil {
			if err := services.AttachIdentityDocument(c.Request().Context(), conn, mairie.SchemaName, request, file); err != nil {
				logger.L().Error("failed to store identity document", "reference", request.ReferenceNumber, "error", err)
				middleware.AddFlash(c, middleware.FlashError, tr(c, "flash.upload_failed"))
			}
		}

		notifier(c).RequestSubmitted(request)

		msg := tr(c, "flash.request_submitted", map[string]interface{}{"reference": request.ReferenceNumber})
		return flashRedirect(c, middleware.FlashSuccess, msg, "/etat-civil/suivi/"+request.TrackingToken+"/")
	}
}

// timeValue is a form date that may have been left empty
type timeValue struct {
	value time.Time
	set   bool
}

func (t timeValue) ptr() *time.Time {
	if !t.set {
		return nil
	}
	v := t.value
	return &v
}

// detailsFromForm reads the variant payload. Unparseable dates are reported here;
// missing fields are left for the payload's own validation.
func detailsFromForm(c echo.Context, variant models.RequestVariant) (models.RequestDetails, []string) {
	var problems []string
	date := func(field, label string) (tv timeValue) {
		raw := strings.TrimSpace(c.FormValue(field))
		if raw == "" {
			return
		}
		parsed, err := services.ParseDate(raw)
		if err != nil {
			problems = append(problems, label+" : date invalide")
			return
		}
		return timeValue{value: parsed, set: true}
	}
	kind := c.FormValue("type_acte")
	if kind == "" {
		kind = models.CertificateExtract
	}

	switch variant {
	case models.VariantBirth:
		d := &models.BirthDetails{
			CertificateKind:   kind,
			SubjectLastName:   c.FormValue("nom_concerne"),
			SubjectFirstNames: c.FormValue("prenoms_concerne"),
			BirthDate:         date("date_naissance", "Date de naissance").value,
			BirthPlace:        c.FormValue("lieu_naissance"),
			FatherLastName:    c.FormValue("nom_pere"),
			FatherFirstNames:  c.FormValue("prenoms_pere"),
			MotherLastName:    c.FormValue("nom_mere"),
			MotherFirstNames:  c.FormValue("prenoms_mere"),
			OriginalActNumber: c.FormValue("numero_acte"),
		}
		if raw := strings.TrimSpace(c.FormValue("annee_enregistrement")); raw != "" {
			year, err := strconv.Atoi(raw)
			if err != nil || year < 1800 {
				problems = append(problems, "Année d'enregistrement invalide")
			} else {
				d.RegistrationYear = &year
			}
		}
		return d, problems
	case models.VariantMarriage:
		return &models.MarriageDetails{
			CertificateKind:   kind,
			HusbandLastName:   c.FormValue("nom_epoux"),
			HusbandFirstNames: c.FormValue("prenoms_epoux"),
			HusbandBirthDate:  date("date_naissance_epoux", "Date de naissance de l'époux").value,
			WifeLastName:      c.FormValue("nom_epouse"),
			WifeFirstNames:    c.FormValue("prenoms_epouse"),
			WifeBirthDate:     date("date_naissance_epouse", "Date de naissance de l'épouse").value,
			WeddingDate:       date("date_mariage", "Date du mariage").value,
			WeddingPlace:      c.FormValue("lieu_mariage"),
			OriginalActNumber: c.FormValue("numero_acte"),
		}, problems
	case models.VariantDeath:
		return &models.DeathDetails{
			CertificateKind:         kind,
			DeceasedLastName:        c.FormValue("nom_defunt"),
			DeceasedFirstNames:      c.FormValue("prenoms_defunt"),
			DeceasedBirthDate:       date("date_naissance_defunt", "Date de naissance du défunt").value,
			DeathDate:               date("date_deces", "Date du décès").value,
			DeathPlace:              c.FormValue("lieu_deces"),
			RelationshipToRequester: c.FormValue("lien_parente"),
			OriginalActNumber:       c.FormValue("numero_acte"),
		}, problems
	default:
		d := &models.FamilyBookletDetails{
			Reason:           c.FormValue("motif"),
			HeadLastName:     c.FormValue("nom_chef"),
			HeadFirstNames:   c.FormValue("prenoms_chef"),
			HeadBirthDate:    date("date_naissance_chef", "Date de naissance du chef de famille").value,
			SpouseLastName:   c.FormValue("nom_conjoint"),
			SpouseFirstNames: c.FormValue("prenoms_conjoint"),
			SpouseBirthDate:  date("date_naissance_conjoint", "Date de naissance du conjoint").ptr(),
			WeddingDate:      date("date_mariage", "Date du mariage").ptr(),
			WeddingPlace:     c.FormValue("lieu_mariage"),
		}
		if raw := strings.TrimSpace(c.FormValue("nombre_enfants")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				problems = append(problems, "Nombre d'enfants invalide")
			}
			d.ChildrenCount = n
		}
		return d, problems
	}
}

// TrackingHandler shows a request by its tracking token. An unknown token renders
// the not-found state with a 200.
func TrackingHandler(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	data := pages.TrackingData{Token: token}
	if token != "" {
		request, err := services.FindCivilRequestByToken(middleware.GetTenantDB(c), token)
		if err != nil && !errors.Is(err, services.ErrRequestNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load request")
		}
		data.Request = request
	}
	return renderPage(c, http.StatusOK, pages.Tracking, tr(c, "page.tracking"), data)
}

// TrackingLookupHandler turns the tracking form into a tracking page URL
func TrackingLookupHandler(c echo.Context) error {
	token := strings.TrimSpace(c.FormValue("token"))
	if token == "" || strings.ContainsAny(token, "/?#") {
		return c.Redirect(http.StatusSeeOther, "/etat-civil/suivi/")
	}
	return c.Redirect(http.StatusSeeOther, "/etat-civil/suivi/"+token+"/")
}

// ReceiptHandler renders the submission receipt of a request as PDF
func ReceiptHandler(c echo.Context) error {
	request, err := services.FindCivilRequestByToken(middleware.GetTenantDB(c), c.Param("token"))
	if err != nil {
		if errors.Is(err, services.ErrRequestNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, tr(c, "page.tracking_not_found"))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load request")
	}

	mairie := middleware.GetMairie(c)
	pdf, err := services.GenerateReceiptPDF(c.Request().Context(), mairie, request, jobs.MairieBaseURL(mairie, appConfig(c)), services.DefaultPDFOptions())
	if err != nil {
		logger.L().Error("failed to generate receipt", "reference", request.ReferenceNumber, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Récépissé momentanément indisponible")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="`+request.ReferenceNumber+`.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// MyRequestsHandler lists the requests filed from the signed-in account
func MyRequestsHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	requests, err := services.ListCivilRequestsByRequester(middleware.GetTenantDB(c), user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load requests")
	}
	return renderPage(c, http.StatusOK, pages.MyRequests, tr(c, "page.my_requests"), pages.MyRequestsData{Requests: requests})
}
