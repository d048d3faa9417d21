package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleSuperAdmin         = "super_admin"
	RoleMairieAdmin        = "admin_mairie"
	RoleCivilRegistryAgent = "agent_etat_civil"
	RoleUrbanismAgent      = "agent_urbanisme"
	RoleCommunicationAgent = "agent_communication"
	RoleCitizen            = "citoyen"
)

// User is an account inside a mairie partition: staff members and registered citizens
type User struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	FirstName   string     `gorm:"size:100;not null" json:"first_name"`
	LastName    string     `gorm:"size:100;not null" json:"last_name"`
	Email       string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	Role        string     `gorm:"size:30;not null;default:citoyen;index" json:"role"`
	Phone       string     `gorm:"size:20" json:"phone"`
	Address     string     `gorm:"type:text" json:"address,omitempty"`
	IDCardNo    string     `gorm:"size:50" json:"id_card_no,omitempty"` // CNI
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return nil
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// FullName returns "First Last"
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsValidRole checks if the role is valid
func IsValidRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleMairieAdmin, RoleCivilRegistryAgent,
		RoleUrbanismAgent, RoleCommunicationAgent, RoleCitizen:
		return true
	}
	return false
}

// IsAdmin reports platform or mairie administrators
func (u *User) IsAdmin() bool {
	return u.Role == RoleSuperAdmin || u.Role == RoleMairieAdmin
}

// IsAgent reports staff agents (not administrators)
func (u *User) IsAgent() bool {
	return u.Role == RoleCivilRegistryAgent || u.Role == RoleUrbanismAgent || u.Role == RoleCommunicationAgent
}

// CanManageCivilRegistry reports whether the user may process civil-registry requests
func (u *User) CanManageCivilRegistry() bool {
	return u.IsAdmin() || u.Role == RoleCivilRegistryAgent
}

// CanManageServices reports whether the user may handle appointments and complaints
func (u *User) CanManageServices() bool {
	return u.IsAdmin() || u.IsAgent()
}
