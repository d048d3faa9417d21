package services

import (
	"fmt"
	"testing"
	"time"

	"e_mairie_go/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func birthInput() CivilRequestInput {
	return CivilRequestInput{
		LastName:  "Essomba",
		FirstName: "Claire",
		Phone:     "677112233",
		Email:     "Claire.Essomba@Example.cm",
		Details: &models.BirthDetails{
			CertificateKind:   models.CertificateFullCopy,
			SubjectLastName:   "Essomba",
			SubjectFirstNames: "Jean <script>alert(1)</script>",
			BirthDate:         time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
			BirthPlace:        "Yaoundé",
			FatherLastName:    "Essomba",
			FatherFirstNames:  "Pierre",
			MotherLastName:    "Ngo Bayiha",
			MotherFirstNames:  "Rose",
		},
	}
}

func TestCreateCivilRequest(t *testing.T) {
	conn := setupTenantDB(t)
	year := time.Now().Year()

	t.Run("assigns reference, token and pending status", func(t *testing.T) {
		r, err := CreateCivilRequest(conn, birthInput())
		require.NoError(t, err)

		assert.Equal(t, fmt.Sprintf("NAIS-%d-00001", year), r.ReferenceNumber)
		assert.Equal(t, models.VariantBirth, r.Variant)
		assert.Equal(t, models.RequestStatusPending, r.Status)
		_, err = uuid.Parse(r.TrackingToken)
		assert.NoError(t, err)
		assert.Equal(t, "claire.essomba@example.cm", r.RequesterEmail)
		assert.NotContains(t, r.Birth.SubjectFirstNames, "<script>")
		assert.Nil(t, r.HandlingAgentID)
		assert.Nil(t, r.ProcessedAt)
		assert.Nil(t, r.DeliveredAt)
	})

	t.Run("sequence grows per variant", func(t *testing.T) {
		second, err := CreateCivilRequest(conn, birthInput())
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("NAIS-%d-00002", year), second.ReferenceNumber)

		death, err := CreateCivilRequest(conn, CivilRequestInput{
			LastName: "Fouda", FirstName: "Marc", Phone: "699887766",
			Details: &models.DeathDetails{
				CertificateKind:         models.CertificateExtract,
				DeceasedLastName:        "Fouda",
				DeceasedFirstNames:      "Albert",
				DeceasedBirthDate:       time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
				DeathDate:               time.Date(2024, 8, 3, 0, 0, 0, 0, time.UTC),
				DeathPlace:              "Douala",
				RelationshipToRequester: "Fils",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("DEC-%d-00001", year), death.ReferenceNumber)
	})

	t.Run("invalid payload stores nothing", func(t *testing.T) {
		var before int64
		conn.Model(&models.CivilRequest{}).Count(&before)

		input := birthInput()
		input.Phone = ""
		input.Details.(*models.BirthDetails).BirthDate = time.Now().AddDate(1, 0, 0)
		_, err := CreateCivilRequest(conn, input)
		problems := ValidationProblems(err)
		assert.Contains(t, problems, "Le téléphone du demandeur est requis")
		assert.Contains(t, problems, "La date de naissance ne peut pas être dans le futur")

		var after int64
		conn.Model(&models.CivilRequest{}).Count(&after)
		assert.Equal(t, before, after)
	})

	t.Run("multilingual extract is birth only", func(t *testing.T) {
		_, err := CreateCivilRequest(conn, CivilRequestInput{
			LastName: "Abena", FirstName: "Luc", Phone: "650000000",
			Details: &models.MarriageDetails{
				CertificateKind:   models.CertificateMultilingualExtract,
				HusbandLastName:   "Abena",
				HusbandFirstNames: "Luc",
				HusbandBirthDate:  time.Date(1985, 2, 2, 0, 0, 0, 0, time.UTC),
				WifeLastName:      "Mvondo",
				WifeFirstNames:    "Sylvie",
				WifeBirthDate:     time.Date(1988, 3, 3, 0, 0, 0, 0, time.UTC),
				WeddingDate:       time.Date(2015, 6, 20, 0, 0, 0, 0, time.UTC),
				WeddingPlace:      "Yaoundé",
			},
		})
		assert.Contains(t, ValidationProblems(err), "Type d'acte invalide")
	})

	t.Run("missing payload", func(t *testing.T) {
		_, err := CreateCivilRequest(conn, CivilRequestInput{LastName: "A", FirstName: "B", Phone: "1"})
		assert.ErrorIs(t, err, ErrUnknownVariant)
	})
}

func TestCivilRequestIdentifiersAreImmutable(t *testing.T) {
	conn := setupTenantDB(t)
	r, err := CreateCivilRequest(conn, birthInput())
	require.NoError(t, err)

	err = conn.Model(r).Update("reference_number", "NAIS-1999-00001").Error
	assert.ErrorIs(t, err, models.ErrImmutableField)
	err = conn.Model(r).Update("tracking_token", uuid.New().String()).Error
	assert.ErrorIs(t, err, models.ErrImmutableField)

	reloaded, err := FindCivilRequestByToken(conn, r.TrackingToken)
	require.NoError(t, err)
	assert.Equal(t, r.ReferenceNumber, reloaded.ReferenceNumber)
}

func TestFindCivilRequestByToken(t *testing.T) {
	conn := setupTenantDB(t)
	requester := func(details models.RequestDetails) CivilRequestInput {
		return CivilRequestInput{LastName: "Abena", FirstName: "Luc", Phone: "650000000", Details: details}
	}
	inputs := []CivilRequestInput{
		birthInput(),
		requester(&models.MarriageDetails{
			CertificateKind:   models.CertificateFullCopy,
			HusbandLastName:   "Abena",
			HusbandFirstNames: "Luc",
			HusbandBirthDate:  time.Date(1985, 2, 2, 0, 0, 0, 0, time.UTC),
			WifeLastName:      "Mvondo",
			WifeFirstNames:    "Sylvie",
			WifeBirthDate:     time.Date(1988, 3, 3, 0, 0, 0, 0, time.UTC),
			WeddingDate:       time.Date(2015, 6, 20, 0, 0, 0, 0, time.UTC),
			WeddingPlace:      "Yaoundé",
		}),
		requester(&models.DeathDetails{
			CertificateKind:         models.CertificateExtract,
			DeceasedLastName:        "Fouda",
			DeceasedFirstNames:      "Albert",
			DeceasedBirthDate:       time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
			DeathDate:               time.Date(2024, 8, 3, 0, 0, 0, 0, time.UTC),
			DeathPlace:              "Douala",
			RelationshipToRequester: "Fils",
		}),
		requester(&models.FamilyBookletDetails{
			Reason:         models.BookletFirstRequest,
			HeadLastName:   "Abena",
			HeadFirstNames: "Luc",
			HeadBirthDate:  time.Date(1985, 2, 2, 0, 0, 0, 0, time.UTC),
			ChildrenCount:  2,
		}),
	}

	created := make([]*models.CivilRequest, 0, len(inputs))
	for _, input := range inputs {
		r, err := CreateCivilRequest(conn, input)
		require.NoError(t, err)
		created = append(created, r)
	}

	for _, r := range created {
		r := r
		t.Run(string(r.Variant), func(t *testing.T) {
			found, err := FindCivilRequestByToken(conn, r.TrackingToken)
			require.NoError(t, err)
			assert.Equal(t, r.ID, found.ID)
			assert.Equal(t, r.ReferenceNumber, found.ReferenceNumber)
			assert.Equal(t, r.Variant, found.Variant)
			require.NotNil(t, found.Details())
			assert.Equal(t, r.Variant, found.Details().Variant())

			payloads := map[models.RequestVariant]bool{
				models.VariantBirth:         found.Birth != nil,
				models.VariantMarriage:      found.Marriage != nil,
				models.VariantDeath:         found.Death != nil,
				models.VariantFamilyBooklet: found.FamilyBooklet != nil,
			}
			for variant, present := range payloads {
				assert.Equal(t, variant == r.Variant, present, "payload %s", variant)
			}
		})
	}

	_, err := FindCivilRequestByToken(conn, uuid.New().String())
	assert.ErrorIs(t, err, ErrRequestNotFound)
	_, err = FindCivilRequestByToken(conn, "pas-un-jeton")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestTransitionCivilRequest(t *testing.T) {
	conn := setupTenantDB(t)
	agent := createTestAgent(t, conn, models.RoleCivilRegistryAgent)
	citizen := createTestAgent(t, conn, models.RoleCitizen)
	audit := AuditContextForUser(agent, "127.0.0.1", "test")

	t.Run("full lifecycle", func(t *testing.T) {
		r, err := CreateCivilRequest(conn, birthInput())
		require.NoError(t, err)

		r, err = TransitionCivilRequest(conn, r.Variant, r.ID, ActionProcess, agent, "", audit)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusProcessing, r.Status)
		require.NotNil(t, r.HandlingAgentID)
		assert.Equal(t, agent.ID, *r.HandlingAgentID)
		assert.Nil(t, r.ProcessedAt)

		r, err = TransitionCivilRequest(conn, r.Variant, r.ID, ActionValidate, agent, "Dossier complet", audit)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusValidated, r.Status)
		assert.Equal(t, "Dossier complet", r.AgentComment)
		assert.NotNil(t, r.ProcessedAt)

		r, err = TransitionCivilRequest(conn, r.Variant, r.ID, ActionReady, agent, "", audit)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusReadyForPickup, r.Status)

		r, err = TransitionCivilRequest(conn, r.Variant, r.ID, ActionDelivered, agent, "", audit)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusDelivered, r.Status)
		assert.NotNil(t, r.DeliveredAt)

		history, err := GetResourceAuditHistory(conn, "CivilRequest", r.ID)
		require.NoError(t, err)
		assert.Len(t, history, 4)
	})

	t.Run("invalid transition mutates nothing", func(t *testing.T) {
		r, err := CreateCivilRequest(conn, birthInput())
		require.NoError(t, err)

		_, err = TransitionCivilRequest(conn, r.Variant, r.ID, ActionDelivered, agent, "", audit)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		reloaded, err := GetCivilRequest(conn, r.Variant, r.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusPending, reloaded.Status)
		assert.Nil(t, reloaded.HandlingAgentID)
	})

	t.Run("reject needs a reason and is terminal", func(t *testing.T) {
		r, err := CreateCivilRequest(conn, birthInput())
		require.NoError(t, err)

		_, err = TransitionCivilRequest(conn, r.Variant, r.ID, ActionReject, agent, "  ", audit)
		assert.Contains(t, ValidationProblems(err), "Le motif du rejet est requis")
		unchanged, err := GetCivilRequest(conn, r.Variant, r.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusPending, unchanged.Status)
		assert.Empty(t, unchanged.RejectionReason)

		r, err = TransitionCivilRequest(conn, r.Variant, r.ID, ActionReject, agent, "Acte introuvable", audit)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusRejected, r.Status)
		assert.Equal(t, "Acte introuvable", r.RejectionReason)
		assert.NotNil(t, r.ProcessedAt)

		_, err = TransitionCivilRequest(conn, r.Variant, r.ID, ActionValidate, agent, "", audit)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("citizens cannot act", func(t *testing.T) {
		r, err := CreateCivilRequest(conn, birthInput())
		require.NoError(t, err)
		_, err = TransitionCivilRequest(conn, r.Variant, r.ID, ActionValidate, citizen, "", audit)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("wrong variant or unknown action", func(t *testing.T) {
		r, err := CreateCivilRequest(conn, birthInput())
		require.NoError(t, err)
		_, err = TransitionCivilRequest(conn, models.VariantDeath, r.ID, ActionValidate, agent, "", audit)
		assert.ErrorIs(t, err, ErrRequestNotFound)
		_, err = TransitionCivilRequest(conn, r.Variant, r.ID, RequestAction("archive"), agent, "", audit)
		assert.ErrorIs(t, err, ErrInvalidAction)
	})
}

func TestListCivilRequests(t *testing.T) {
	conn := setupTenantDB(t)
	for i := 0; i < 3; i++ {
		_, err := CreateCivilRequest(conn, birthInput())
		require.NoError(t, err)
	}
	other := birthInput()
	other.LastName = "Tchoupo"
	_, err := CreateCivilRequest(conn, other)
	require.NoError(t, err)

	all, err := ListCivilRequests(conn, CivilRequestFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	found, err := ListCivilRequests(conn, CivilRequestFilter{Search: "tchou"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Tchoupo", found[0].RequesterLastName)

	recent, err := ListRecentCivilRequests(conn, 2, "")
	require.NoError(t, err)
	assert.Len(t, recent[models.VariantBirth], 2)
	assert.Empty(t, recent[models.VariantMarriage])

	counts, err := CountCivilRequestsByStatus(conn)
	require.NoError(t, err)
	assert.Equal(t, int64(4), counts[models.RequestStatusPending])
}
