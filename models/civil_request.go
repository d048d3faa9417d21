package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestVariant identifies the kind of civil-registry document requested
type RequestVariant string

const (
	VariantBirth         RequestVariant = "naissance"
	VariantMarriage      RequestVariant = "mariage"
	VariantDeath         RequestVariant = "deces"
	VariantFamilyBooklet RequestVariant = "livret"
)

// AllVariants lists the variants in their fixed lookup and display order
var AllVariants = []RequestVariant{VariantBirth, VariantMarriage, VariantDeath, VariantFamilyBooklet}

// Request status constants
const (
	RequestStatusPending        = "pending"
	RequestStatusProcessing     = "processing"
	RequestStatusValidated      = "validated"
	RequestStatusRejected       = "rejected"
	RequestStatusReadyForPickup = "ready_for_pickup"
	RequestStatusDelivered      = "delivered"
)

// AllRequestStatuses lists the statuses in workflow order
var AllRequestStatuses = []string{
	RequestStatusPending, RequestStatusProcessing, RequestStatusValidated,
	RequestStatusReadyForPickup, RequestStatusDelivered, RequestStatusRejected,
}

// Certificate kinds (type d'acte)
const (
	CertificateFullCopy            = "copie_integrale"
	CertificateExtract             = "extrait"
	CertificateMultilingualExtract = "extrait_plurilingue"
)

// Family booklet request reasons
const (
	BookletFirstRequest = "premiere_demande"
	BookletDuplicate    = "duplicata"
	BookletUpdate       = "mise_a_jour"
)

// ErrImmutableField is returned when an update tries to touch an identifier assigned at creation
var ErrImmutableField = errors.New("reference number, tracking token and variant are immutable")

// ParseVariant accepts the variant tag or its public URL segment ("livret-famille")
func ParseVariant(s string) (RequestVariant, bool) {
	switch strings.ToLower(strings.Trim(s, "/ ")) {
	case "naissance":
		return VariantBirth, true
	case "mariage":
		return VariantMarriage, true
	case "deces":
		return VariantDeath, true
	case "livret", "livret-famille":
		return VariantFamilyBooklet, true
	}
	return "", false
}

// Prefix returns the reference-number prefix of the variant
func (v RequestVariant) Prefix() string {
	switch v {
	case VariantBirth:
		return "NAIS"
	case VariantMarriage:
		return "MAR"
	case VariantDeath:
		return "DEC"
	case VariantFamilyBooklet:
		return "LIV"
	}
	return ""
}

// Label returns the human readable name of the variant
func (v RequestVariant) Label() string {
	switch v {
	case VariantBirth:
		return "Acte de naissance"
	case VariantMarriage:
		return "Acte de mariage"
	case VariantDeath:
		return "Acte de décès"
	case VariantFamilyBooklet:
		return "Livret de famille"
	}
	return ""
}

// PathSegment returns the public URL segment of the variant form
func (v RequestVariant) PathSegment() string {
	if v == VariantFamilyBooklet {
		return "livret-famille"
	}
	return string(v)
}

// IsValid checks if the variant is one of the four known variants
func (v RequestVariant) IsValid() bool {
	return v.Prefix() != ""
}

// RequestDetails is the variant-specific payload of a CivilRequest
type RequestDetails interface {
	Variant() RequestVariant
	// Subject names the person the document is about
	Subject() string
	// Problems lists validation failures, empty when the payload is complete
	Problems() []string
}

// CivilRequest is a citizen request for a civil-registry document.
// Exactly one of the detail payloads is set, matching Variant.
type CivilRequest struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"` // date de demande
	UpdatedAt time.Time `json:"updated_at"`

	ReferenceNumber string         `gorm:"size:50;uniqueIndex;not null" json:"reference_number"`
	TrackingToken   string         `gorm:"type:uuid;uniqueIndex;not null" json:"tracking_token"`
	Variant         RequestVariant `gorm:"size:20;not null;index" json:"variant"`
	Status          string         `gorm:"size:20;not null;default:pending;index" json:"status"`

	// Requester
	RequesterID        *string `gorm:"type:uuid;index" json:"requester_id,omitempty"`
	Requester          *User   `gorm:"foreignKey:RequesterID" json:"-"`
	RequesterLastName  string  `gorm:"size:100;not null" json:"requester_last_name"`
	RequesterFirstName string  `gorm:"size:100;not null" json:"requester_first_name"`
	RequesterPhone     string  `gorm:"size:20;not null" json:"requester_phone"`
	RequesterEmail     string  `gorm:"size:255" json:"requester_email,omitempty"`

	// Processing, populated only once an agent acts
	HandlingAgentID *string    `gorm:"type:uuid" json:"handling_agent_id,omitempty"`
	HandlingAgent   *User      `gorm:"foreignKey:HandlingAgentID" json:"-"`
	AgentComment    string     `gorm:"type:text" json:"agent_comment,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`

	// Identity document (pièce d'identité)
	IDDocumentKey  string `json:"-"`
	IDDocumentName string `json:"id_document_name,omitempty"`
	IDDocumentSize int64  `json:"id_document_size,omitempty"`

	IPAddress string `gorm:"size:45" json:"-"`

	Birth         *BirthDetails         `gorm:"foreignKey:CivilRequestID;constraint:OnDelete:CASCADE" json:"birth,omitempty"`
	Marriage      *MarriageDetails      `gorm:"foreignKey:CivilRequestID;constraint:OnDelete:CASCADE" json:"marriage,omitempty"`
	Death         *DeathDetails         `gorm:"foreignKey:CivilRequestID;constraint:OnDelete:CASCADE" json:"death,omitempty"`
	FamilyBooklet *FamilyBookletDetails `gorm:"foreignKey:CivilRequestID;constraint:OnDelete:CASCADE" json:"family_booklet,omitempty"`
}

// BeforeCreate hook to generate UUID and tracking token
func (r *CivilRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.TrackingToken == "" {
		r.TrackingToken = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = RequestStatusPending
	}
	return nil
}

// BeforeUpdate rejects changes to identifiers assigned at creation
func (r *CivilRequest) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("ReferenceNumber", "TrackingToken", "Variant") {
		return ErrImmutableField
	}
	return nil
}

// TableName specifies the table name for CivilRequest model
func (CivilRequest) TableName() string {
	return "civil_requests"
}

// Details returns the payload matching the request variant, or nil
func (r *CivilRequest) Details() RequestDetails {
	switch r.Variant {
	case VariantBirth:
		if r.Birth != nil {
			return r.Birth
		}
	case VariantMarriage:
		if r.Marriage != nil {
			return r.Marriage
		}
	case VariantDeath:
		if r.Death != nil {
			return r.Death
		}
	case VariantFamilyBooklet:
		if r.FamilyBooklet != nil {
			return r.FamilyBooklet
		}
	}
	return nil
}

// SetDetails stores the payload and sets the variant accordingly, clearing any other payload
func (r *CivilRequest) SetDetails(d RequestDetails) {
	r.Birth, r.Marriage, r.Death, r.FamilyBooklet = nil, nil, nil, nil
	switch v := d.(type) {
	case *BirthDetails:
		r.Birth = v
	case *MarriageDetails:
		r.Marriage = v
	case *DeathDetails:
		r.Death = v
	case *FamilyBookletDetails:
		r.FamilyBooklet = v
	default:
		return
	}
	r.Variant = d.Variant()
}

// RequesterName returns "First Last" of the requester
func (r *CivilRequest) RequesterName() string {
	return strings.TrimSpace(r.RequesterFirstName + " " + r.RequesterLastName)
}

// IsTerminal reports whether no further transition is possible
func (r *CivilRequest) IsTerminal() bool {
	return IsTerminalRequestStatus(r.Status)
}

// IsTerminalRequestStatus reports rejected and delivered
func IsTerminalRequestStatus(status string) bool {
	return status == RequestStatusRejected || status == RequestStatusDelivered
}

// IsValidRequestStatus checks if the status is valid
func IsValidRequestStatus(status string) bool {
	switch status {
	case RequestStatusPending, RequestStatusProcessing, RequestStatusValidated,
		RequestStatusRejected, RequestStatusReadyForPickup, RequestStatusDelivered:
		return true
	}
	return false
}

// RequestStatusLabel returns the French label shown to citizens
func RequestStatusLabel(status string) string {
	switch status {
	case RequestStatusPending:
		return "En attente de traitement"
	case RequestStatusProcessing:
		return "En cours de traitement"
	case RequestStatusValidated:
		return "Validé"
	case RequestStatusRejected:
		return "Rejeté"
	case RequestStatusReadyForPickup:
		return "Prêt pour retrait"
	case RequestStatusDelivered:
		return "Délivré"
	}
	return status
}

// BirthDetails is the payload of a birth certificate request
type BirthDetails struct {
	ID             string `gorm:"type:uuid;primarykey" json:"-"`
	CivilRequestID string `gorm:"type:uuid;uniqueIndex;not null" json:"-"`

	CertificateKind   string    `gorm:"size:30;not null;default:extrait" json:"certificate_kind"`
	SubjectLastName   string    `gorm:"size:100;not null" json:"subject_last_name"`
	SubjectFirstNames string    `gorm:"size:100;not null" json:"subject_first_names"`
	BirthDate         time.Time `gorm:"type:date;not null" json:"birth_date"`
	BirthPlace        string    `gorm:"size:200;not null" json:"birth_place"`
	FatherLastName    string    `gorm:"size:100" json:"father_last_name"`
	FatherFirstNames  string    `gorm:"size:100" json:"father_first_names"`
	MotherLastName    string    `gorm:"size:100" json:"mother_last_name"`
	MotherFirstNames  string    `gorm:"size:100" json:"mother_first_names"`
	OriginalActNumber string    `gorm:"size:50" json:"original_act_number,omitempty"`
	RegistrationYear  *int      `json:"registration_year,omitempty"`
}

func (d *BirthDetails) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

func (BirthDetails) TableName() string { return "civil_request_birth_details" }

func (d *BirthDetails) Variant() RequestVariant { return VariantBirth }

func (d *BirthDetails) Subject() string {
	return strings.TrimSpace(d.SubjectFirstNames + " " + d.SubjectLastName)
}

func (d *BirthDetails) Problems() []string {
	var problems []string
	if !isValidCertificateKind(d.CertificateKind, true) {
		problems = append(problems, "Type d'acte invalide")
	}
	problems = requireText(problems, d.SubjectLastName, "Le nom de la personne concernée est requis")
	problems = requireText(problems, d.SubjectFirstNames, "Le prénom de la personne concernée est requis")
	problems = requirePastDate(problems, d.BirthDate, "La date de naissance est requise", "La date de naissance ne peut pas être dans le futur")
	problems = requireText(problems, d.BirthPlace, "Le lieu de naissance est requis")
	problems = requireText(problems, d.FatherLastName, "Le nom du père est requis")
	problems = requireText(problems, d.FatherFirstNames, "Le prénom du père est requis")
	problems = requireText(problems, d.MotherLastName, "Le nom de la mère est requis")
	problems = requireText(problems, d.MotherFirstNames, "Le prénom de la mère est requis")
	if d.RegistrationYear != nil && (*d.RegistrationYear < 1900 || *d.RegistrationYear > time.Now().Year()) {
		problems = append(problems, "L'année d'enregistrement est invalide")
	}
	return problems
}

// MarriageDetails is the payload of a marriage certificate request
type MarriageDetails struct {
	ID             string `gorm:"type:uuid;primarykey" json:"-"`
	CivilRequestID string `gorm:"type:uuid;uniqueIndex;not null" json:"-"`

	CertificateKind   string    `gorm:"size:30;not null;default:extrait" json:"certificate_kind"`
	HusbandLastName   string    `gorm:"size:100;not null" json:"husband_last_name"`
	HusbandFirstNames string    `gorm:"size:100;not null" json:"husband_first_names"`
	HusbandBirthDate  time.Time `gorm:"type:date;not null" json:"husband_birth_date"`
	WifeLastName      string    `gorm:"size:100;not null" json:"wife_last_name"`
	WifeFirstNames    string    `gorm:"size:100;not null" json:"wife_first_names"`
	WifeBirthDate     time.Time `gorm:"type:date;not null" json:"wife_birth_date"`
	WeddingDate       time.Time `gorm:"type:date;not null" json:"wedding_date"`
	WeddingPlace      string    `gorm:"size:200;not null" json:"wedding_place"`
	OriginalActNumber string    `gorm:"size:50" json:"original_act_number,omitempty"`
}

func (d *MarriageDetails) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

func (MarriageDetails) TableName() string { return "civil_request_marriage_details" }

func (d *MarriageDetails) Variant() RequestVariant { return VariantMarriage }

func (d *MarriageDetails) Subject() string {
	return strings.TrimSpace(d.HusbandFirstNames+" "+d.HusbandLastName) + " & " +
		strings.TrimSpace(d.WifeFirstNames+" "+d.WifeLastName)
}

func (d *MarriageDetails) Problems() []string {
	var problems []string
	if !isValidCertificateKind(d.CertificateKind, false) {
		problems = append(problems, "Type d'acte invalide")
	}
	problems = requireText(problems, d.HusbandLastName, "Le nom de l'époux est requis")
	problems = requireText(problems, d.HusbandFirstNames, "Le prénom de l'époux est requis")
	problems = requirePastDate(problems, d.HusbandBirthDate, "La date de naissance de l'époux est requise", "La date de naissance de l'époux ne peut pas être dans le futur")
	problems = requireText(problems, d.WifeLastName, "Le nom de l'épouse est requis")
	problems = requireText(problems, d.WifeFirstNames, "Le prénom de l'épouse est requis")
	problems = requirePastDate(problems, d.WifeBirthDate, "La date de naissance de l'épouse est requise", "La date de naissance de l'épouse ne peut pas être dans le futur")
	problems = requirePastDate(problems, d.WeddingDate, "La date du mariage est requise", "La date du mariage ne peut pas être dans le futur")
	problems = requireText(problems, d.WeddingPlace, "Le lieu du mariage est requis")
	return problems
}

// DeathDetails is the payload of a death certificate request
type DeathDetails struct {
	ID             string `gorm:"type:uuid;primarykey" json:"-"`
	CivilRequestID string `gorm:"type:uuid;uniqueIndex;not null" json:"-"`

	CertificateKind         string    `gorm:"size:30;not null;default:extrait" json:"certificate_kind"`
	DeceasedLastName        string    `gorm:"size:100;not null" json:"deceased_last_name"`
	DeceasedFirstNames      string    `gorm:"size:100;not null" json:"deceased_first_names"`
	DeceasedBirthDate       time.Time `gorm:"type:date;not null" json:"deceased_birth_date"`
	DeathDate               time.Time `gorm:"type:date;not null" json:"death_date"`
	DeathPlace              string    `gorm:"size:200;not null" json:"death_place"`
	RelationshipToRequester string    `gorm:"size:100;not null" json:"relationship_to_requester"`
	OriginalActNumber       string    `gorm:"size:50" json:"original_act_number,omitempty"`
}

func (d *DeathDetails) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

func (DeathDetails) TableName() string { return "civil_request_death_details" }

func (d *DeathDetails) Variant() RequestVariant { return VariantDeath }

func (d *DeathDetails) Subject() string {
	return strings.TrimSpace(d.DeceasedFirstNames + " " + d.DeceasedLastName)
}

func (d *DeathDetails) Problems() []string {
	var problems []string
	if !isValidCertificateKind(d.CertificateKind, false) {
		problems = append(problems, "Type d'acte invalide")
	}
	problems = requireText(problems, d.DeceasedLastName, "Le nom du défunt est requis")
	problems = requireText(problems, d.DeceasedFirstNames, "Le prénom du défunt est requis")
	problems = requirePastDate(problems, d.DeceasedBirthDate, "La date de naissance du défunt est requise", "La date de naissance du défunt ne peut pas être dans le futur")
	problems = requirePastDate(problems, d.DeathDate, "La date du décès est requise", "La date du décès ne peut pas être dans le futur")
	if !d.DeathDate.IsZero() && !d.DeceasedBirthDate.IsZero() && d.DeathDate.Before(d.DeceasedBirthDate) {
		problems = append(problems, "La date du décès précède la date de naissance")
	}
	problems = requireText(problems, d.DeathPlace, "Le lieu du décès est requis")
	problems = requireText(problems, d.RelationshipToRequester, "Le lien avec le défunt est requis")
	return problems
}

// FamilyBookletDetails is the payload of a family booklet request
type FamilyBookletDetails struct {
	ID             string `gorm:"type:uuid;primarykey" json:"-"`
	CivilRequestID string `gorm:"type:uuid;uniqueIndex;not null" json:"-"`

	Reason           string     `gorm:"size:20;not null;default:premiere_demande" json:"reason"`
	HeadLastName     string     `gorm:"size:100;not null" json:"head_last_name"`
	HeadFirstNames   string     `gorm:"size:100;not null" json:"head_first_names"`
	HeadBirthDate    time.Time  `gorm:"type:date;not null" json:"head_birth_date"`
	SpouseLastName   string     `gorm:"size:100" json:"spouse_last_name,omitempty"`
	SpouseFirstNames string     `gorm:"size:100" json:"spouse_first_names,omitempty"`
	SpouseBirthDate  *time.Time `gorm:"type:date" json:"spouse_birth_date,omitempty"`
	WeddingDate      *time.Time `gorm:"type:date" json:"wedding_date,omitempty"`
	WeddingPlace     string     `gorm:"size:200" json:"wedding_place,omitempty"`
	ChildrenCount    int        `gorm:"not null;default:0" json:"children_count"`
}

func (d *FamilyBookletDetails) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

func (FamilyBookletDetails) TableName() string { return "civil_request_family_booklet_details" }

func (d *FamilyBookletDetails) Variant() RequestVariant { return VariantFamilyBooklet }

func (d *FamilyBookletDetails) Subject() string {
	return strings.TrimSpace(d.HeadFirstNames + " " + d.HeadLastName)
}

func (d *FamilyBookletDetails) Problems() []string {
	var problems []string
	switch d.Reason {
	case BookletFirstRequest, BookletDuplicate, BookletUpdate:
	default:
		problems = append(problems, "Motif de la demande invalide")
	}
	problems = requireText(problems, d.HeadLastName, "Le nom du chef de famille est requis")
	problems = requireText(problems, d.HeadFirstNames, "Le prénom du chef de famille est requis")
	problems = requirePastDate(problems, d.HeadBirthDate, "La date de naissance du chef de famille est requise", "La date de naissance du chef de famille ne peut pas être dans le futur")
	if d.SpouseBirthDate != nil && d.SpouseBirthDate.After(time.Now()) {
		problems = append(problems, "La date de naissance du conjoint ne peut pas être dans le futur")
	}
	if d.WeddingDate != nil && d.WeddingDate.After(time.Now()) {
		problems = append(problems, "La date du mariage ne peut pas être dans le futur")
	}
	if d.ChildrenCount < 0 {
		problems = append(problems, "Le nombre d'enfants ne peut pas être négatif")
	}
	return problems
}

func isValidCertificateKind(kind string, allowMultilingual bool) bool {
	switch kind {
	case CertificateFullCopy, CertificateExtract:
		return true
	case CertificateMultilingualExtract:
		return allowMultilingual
	}
	return false
}

func requireText(problems []string, value, message string) []string {
	if strings.TrimSpace(value) == "" {
		return append(problems, message)
	}
	return problems
}

func requirePastDate(problems []string, value time.Time, missing, future string) []string {
	if value.IsZero() {
		return append(problems, missing)
	}
	if value.After(time.Now()) {
		return append(problems, future)
	}
	return problems
}
