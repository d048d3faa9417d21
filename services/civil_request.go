package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"e_mairie_go/logger"
	"e_mairie_go/metrics"
	"e_mairie_go/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotAuthorized is returned when an account lacks the capability for an operation
var ErrNotAuthorized = errors.New("not authorized")

// CivilRequestInput holds a citizen submission
type CivilRequestInput struct {
	RequesterID *string
	LastName    string
	FirstName   string
	Phone       string
	Email       string
	Details     models.RequestDetails
	IPAddress   string
}

// CivilRequestFilter narrows the agent list
type CivilRequestFilter struct {
	Variant models.RequestVariant
	Status  string
	Search  string // reference number or requester name
	Limit   int
}

// CreateCivilRequest validates and stores a request. The reference number is reserved in the
// same transaction as the insert; the status starts at pending.
func CreateCivilRequest(db *gorm.DB, input CivilRequestInput) (*models.CivilRequest, error) {
	if input.Details == nil || !input.Details.Variant().IsValid() {
		return nil, ErrUnknownVariant
	}

	sanitizeDetails(input.Details)
	request := &models.CivilRequest{
		RequesterID:        input.RequesterID,
		RequesterLastName:  SanitizeText(input.LastName),
		RequesterFirstName: SanitizeText(input.FirstName),
		RequesterPhone:     SanitizeText(input.Phone),
		RequesterEmail:     strings.ToLower(strings.TrimSpace(input.Email)),
		Status:             models.RequestStatusPending,
		IPAddress:          input.IPAddress,
	}
	request.SetDetails(input.Details)

	if problems := validateCivilRequest(request); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		reference, err := NextReferenceNumber(tx, request.Variant, now.Year())
		if err != nil {
			return err
		}
		request.ReferenceNumber = reference
		request.CreatedAt = now
		if err := tx.Create(request).Error; err != nil {
			return fmt.Errorf("failed to create civil request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CivilRequestsSubmitted.WithLabelValues(string(request.Variant)).Inc()
	logger.L().Info("Civil request submitted", "reference", request.ReferenceNumber, "variant", request.Variant)
	return request, nil
}

func validateCivilRequest(r *models.CivilRequest) []string {
	var problems []string
	if r.RequesterLastName == "" || r.RequesterFirstName == "" {
		problems = append(problems, "Le nom et le prénom du demandeur sont requis")
	}
	if r.RequesterPhone == "" {
		problems = append(problems, "Le téléphone du demandeur est requis")
	}
	if r.RequesterEmail != "" && !IsValidEmail(r.RequesterEmail) {
		problems = append(problems, "Adresse e-mail invalide")
	}
	if d := r.Details(); d != nil {
		problems = append(problems, d.Problems()...)
	}
	return problems
}

func sanitizeDetails(d models.RequestDetails) {
	switch v := d.(type) {
	case *models.BirthDetails:
		for _, f := range []*string{&v.SubjectLastName, &v.SubjectFirstNames, &v.BirthPlace, &v.FatherLastName,
			&v.FatherFirstNames, &v.MotherLastName, &v.MotherFirstNames, &v.OriginalActNumber} {
			*f = SanitizeText(*f)
		}
	case *models.MarriageDetails:
		for _, f := range []*string{&v.HusbandLastName, &v.HusbandFirstNames, &v.WifeLastName, &v.WifeFirstNames,
			&v.WeddingPlace, &v.OriginalActNumber} {
			*f = SanitizeText(*f)
		}
	case *models.DeathDetails:
		for _, f := range []*string{&v.DeceasedLastName, &v.DeceasedFirstNames, &v.DeathPlace,
			&v.RelationshipToRequester, &v.OriginalActNumber} {
			*f = SanitizeText(*f)
		}
	case *models.FamilyBookletDetails:
		for _, f := range []*string{&v.HeadLastName, &v.HeadFirstNames, &v.SpouseLastName, &v.SpouseFirstNames, &v.WeddingPlace} {
			*f = SanitizeText(*f)
		}
	}
}

// AttachIdentityDocument stores the requester's identity document and links it to the request
func AttachIdentityDocument(ctx context.Context, db *gorm.DB, schema string, request *models.CivilRequest, file *multipart.FileHeader) error {
	if Storage == nil {
		return errors.New("storage not initialized")
	}
	if err := ValidateIdentityDocument(file); err != nil {
		return err
	}

	key := IdentityDocumentKey(schema, string(request.Variant), file.Filename)
	result, err := Storage.Upload(ctx, file, key)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"id_document_key":  result.Key,
		"id_document_name": SanitizeText(file.Filename),
		"id_document_size": result.FileSize,
	}
	if err := db.Model(request).Updates(updates).Error; err != nil {
		_ = Storage.Delete(ctx, result.Key)
		return fmt.Errorf("failed to link identity document: %w", err)
	}
	return nil
}

// FindCivilRequestByToken looks a request up by its tracking token in one indexed query
func FindCivilRequestByToken(db *gorm.DB, token string) (*models.CivilRequest, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrRequestNotFound
	}

	var request models.CivilRequest
	err := preloadCivilRequest(db).Where("tracking_token = ?", token).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to look up tracking token: %w", err)
	}
	return &request, nil
}

// GetCivilRequest loads a request of the given variant by id
func GetCivilRequest(db *gorm.DB, variant models.RequestVariant, id string) (*models.CivilRequest, error) {
	if !variant.IsValid() {
		return nil, ErrUnknownVariant
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRequestNotFound
	}

	var request models.CivilRequest
	err := preloadCivilRequest(db).Preload("HandlingAgent").
		Where("id = ? AND variant = ?", id, variant).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to load civil request: %w", err)
	}
	return &request, nil
}

// ListCivilRequests returns requests newest first
func ListCivilRequests(db *gorm.DB, filter CivilRequestFilter) ([]models.CivilRequest, error) {
	query := preloadCivilRequest(db).Model(&models.CivilRequest{})
	if filter.Variant != "" {
		query = query.Where("variant = ?", filter.Variant)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		query = query.Where(
			"LOWER(reference_number) LIKE ? OR LOWER(requester_last_name) LIKE ? OR LOWER(requester_first_name) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var requests []models.CivilRequest
	if err := query.Order("created_at DESC").Limit(limit).Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list civil requests: %w", err)
	}
	return requests, nil
}

// ListRecentCivilRequests returns, for each variant, its latest requests
func ListRecentCivilRequests(db *gorm.DB, perVariant int, status string) (map[models.RequestVariant][]models.CivilRequest, error) {
	recent := make(map[models.RequestVariant][]models.CivilRequest, len(models.AllVariants))
	for _, variant := range models.AllVariants {
		requests, err := ListCivilRequests(db, CivilRequestFilter{Variant: variant, Status: status, Limit: perVariant})
		if err != nil {
			return nil, err
		}
		recent[variant] = requests
	}
	return recent, nil
}

// ListCivilRequestsByRequester returns the requests linked to a citizen account
func ListCivilRequestsByRequester(db *gorm.DB, userID string) ([]models.CivilRequest, error) {
	var requests []models.CivilRequest
	err := preloadCivilRequest(db).Where("requester_id = ?", userID).Order("created_at DESC").Find(&requests).Error
	return requests, err
}

// CountCivilRequestsByStatus returns the number of requests in each status
func CountCivilRequestsByStatus(db *gorm.DB) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	if err := db.Model(&models.CivilRequest{}).Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count civil requests: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

func preloadCivilRequest(db *gorm.DB) *gorm.DB {
	return db.Preload("Birth").Preload("Marriage").Preload("Death").Preload("FamilyBooklet")
}

// TransitionCivilRequest applies an agent action. The update only matches the status the
// decision was made on, so two agents acting at once cannot both move the same request.
func TransitionCivilRequest(db *gorm.DB, variant models.RequestVariant, id string, action RequestAction, agent *models.User, note string, audit AuditContext) (*models.CivilRequest, error) {
	if agent == nil || !agent.CanManageCivilRegistry() {
		return nil, ErrNotAuthorized
	}
	if _, ok := requestTransitions[action]; !ok {
		return nil, ErrInvalidAction
	}

	request, err := GetCivilRequest(db, variant, id)
	if err != nil {
		return nil, err
	}

	next, ok := NextRequestStatus(request.Status, action)
	if !ok {
		metrics.CivilRequestTransitions.WithLabelValues(string(action), metrics.OutcomeRejected).Inc()
		return nil, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, request.Status)
	}

	note = SanitizeMultiline(note)
	if action == ActionReject && note == "" {
		return nil, &ValidationError{Problems: []string{"Le motif du rejet est requis"}}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":            next,
		"handling_agent_id": agent.ID,
	}
	switch action {
	case ActionValidate:
		updates["agent_comment"] = note
		updates["processed_at"] = now
	case ActionReject:
		updates["rejection_reason"] = note
		updates["processed_at"] = now
	case ActionDelivered:
		updates["delivered_at"] = now
		if note != "" {
			updates["agent_comment"] = note
		}
	default:
		if note != "" {
			updates["agent_comment"] = note
		}
	}

	previous := request.Status
	err = db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.CivilRequest{}).
			Where("id = ? AND status = ?", request.ID, previous).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update civil request: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
		}
		return RecordAudit(tx, audit, AuditEntry{
			Action:       models.AuditActionTransition,
			ResourceType: models.AuditResourceCivilRequest,
			ResourceID:   request.ID,
			ResourceName: request.ReferenceNumber,
			Description:  fmt.Sprintf("%s: %s -> %s", action, previous, next),
			OldValues:    map[string]string{"status": previous},
			NewValues:    map[string]string{"status": next, "note": note},
		})
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			metrics.CivilRequestTransitions.WithLabelValues(string(action), metrics.OutcomeRejected).Inc()
		}
		return nil, err
	}

	metrics.CivilRequestTransitions.WithLabelValues(string(action), metrics.OutcomeApplied).Inc()
	logger.L().Info("Civil request transitioned",
		"reference", request.ReferenceNumber, "action", action, "from", previous, "to", next, "agent", agent.ID)

	return GetCivilRequest(db, variant, id)
}
