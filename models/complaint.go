package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Complaint status constants
const (
	ComplaintStatusSubmitted  = "submitted"
	ComplaintStatusInProgress = "in_progress"
	ComplaintStatusResolved   = "resolved"
	ComplaintStatusClosed     = "closed"
)

// AllComplaintStatuses lists the statuses in the order they are reached
var AllComplaintStatuses = []string{ComplaintStatusSubmitted, ComplaintStatusInProgress, ComplaintStatusResolved, ComplaintStatusClosed}

// Complaint priority levels
const (
	ComplaintPriorityLow    = "low"
	ComplaintPriorityNormal = "normal"
	ComplaintPriorityHigh   = "high"
	ComplaintPriorityUrgent = "urgent"
)

// AllComplaintPriorities lists the priorities from lowest to highest
var AllComplaintPriorities = []string{ComplaintPriorityLow, ComplaintPriorityNormal, ComplaintPriorityHigh, ComplaintPriorityUrgent}

// ComplaintCategory groups complaints ("Voirie", "Éclairage public", "Salubrité")
type ComplaintCategory struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Name        string `gorm:"size:100;not null;uniqueIndex" json:"nom"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Icon        string `gorm:"size:50" json:"icone,omitempty"`
	IsActive    bool   `gorm:"not null;default:true" json:"actif"`
}

func (c *ComplaintCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

func (ComplaintCategory) TableName() string {
	return "complaint_categories"
}

// DefaultComplaintCategories are created for every newly registered mairie
var DefaultComplaintCategories = []ComplaintCategory{
	{Name: "Voirie", Description: "Routes, nids-de-poule, trottoirs", Icon: "road"},
	{Name: "Éclairage public", Description: "Lampadaires en panne", Icon: "lightbulb"},
	{Name: "Salubrité", Description: "Ordures, caniveaux bouchés", Icon: "trash"},
	{Name: "Eau et assainissement", Description: "Fuites, points d'eau", Icon: "droplet"},
	{Name: "Autre", Description: "Toute autre réclamation", Icon: "message"},
}

// Complaint is a citizen report about a municipal issue
type Complaint struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TrackingToken string `gorm:"type:uuid;uniqueIndex;not null" json:"tracking_token"`

	CategoryID string            `gorm:"type:uuid;not null;index" json:"categorie_id"`
	Category   ComplaintCategory `gorm:"foreignKey:CategoryID" json:"categorie,omitempty"`

	// Author account, optional
	AuthorID *string `gorm:"type:uuid;index" json:"auteur_id,omitempty"`
	Author   *User   `gorm:"foreignKey:AuthorID" json:"-"`

	LastName  string `gorm:"size:100;not null" json:"nom"`
	FirstName string `gorm:"size:100;not null" json:"prenom"`
	Phone     string `gorm:"size:20;not null" json:"telephone"`
	Email     string `gorm:"size:255" json:"email,omitempty"`

	Title       string `gorm:"size:200;not null" json:"titre"`
	Description string `gorm:"type:text;not null" json:"description"`
	Location    string `gorm:"size:300" json:"localisation,omitempty"`
	PhotoKey    string `json:"-"`
	PhotoName   string `json:"photo_nom,omitempty"`

	Status   string `gorm:"size:20;not null;default:submitted;index" json:"statut"`
	Priority string `gorm:"size:10;not null;default:normal;index" json:"priorite"`

	HandlingAgentID *string    `gorm:"type:uuid" json:"agent_id,omitempty"`
	HandlingAgent   *User      `gorm:"foreignKey:HandlingAgentID" json:"-"`
	Response        string     `gorm:"type:text" json:"reponse,omitempty"`
	ProcessedAt     *time.Time `json:"date_traitement,omitempty"`
}

// BeforeCreate hook to generate UUID and tracking token
func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.TrackingToken == "" {
		c.TrackingToken = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = ComplaintStatusSubmitted
	}
	if c.Priority == "" {
		c.Priority = ComplaintPriorityNormal
	}
	return nil
}

// TableName specifies the table name for Complaint model
func (Complaint) TableName() string {
	return "complaints"
}

// IsValidComplaintStatus checks if the status is valid
func IsValidComplaintStatus(status string) bool {
	return complaintStatusRank(status) >= 0
}

// IsValidComplaintPriority checks if the priority is valid
func IsValidComplaintPriority(priority string) bool {
	switch priority {
	case ComplaintPriorityLow, ComplaintPriorityNormal, ComplaintPriorityHigh, ComplaintPriorityUrgent:
		return true
	}
	return false
}

// CanMoveComplaint reports whether a complaint may go from one status to another.
// Statuses only move forward; closed is reachable from any other status and is final.
func CanMoveComplaint(from, to string) bool {
	if from == ComplaintStatusClosed || !IsValidComplaintStatus(to) {
		return false
	}
	if to == ComplaintStatusClosed {
		return true
	}
	return complaintStatusRank(to) > complaintStatusRank(from)
}

func complaintStatusRank(status string) int {
	switch status {
	case ComplaintStatusSubmitted:
		return 0
	case ComplaintStatusInProgress:
		return 1
	case ComplaintStatusResolved:
		return 2
	case ComplaintStatusClosed:
		return 3
	}
	return -1
}

// ComplaintStatusLabel returns the French label of a status
func ComplaintStatusLabel(status string) string {
	switch status {
	case ComplaintStatusSubmitted:
		return "Soumise"
	case ComplaintStatusInProgress:
		return "En cours de traitement"
	case ComplaintStatusResolved:
		return "Résolue"
	case ComplaintStatusClosed:
		return "Clôturée"
	}
	return status
}
