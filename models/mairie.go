package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var schemaNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// Mairie is a municipality tenant. Its operational data lives in a dedicated
// partition named by SchemaName; the Mairie row itself lives in the shared registry.
type Mairie struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name       string `gorm:"size:200;not null" json:"name"`
	Code       string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	SchemaName string `gorm:"size:63;uniqueIndex;not null" json:"schema_name"`

	Region         string `gorm:"size:100" json:"region"`
	Department     string `gorm:"size:100" json:"department"`
	District       string `gorm:"size:100" json:"district"` // arrondissement
	Address        string `gorm:"type:text" json:"address"`
	Phone          string `gorm:"size:20" json:"phone"`
	Email          string `gorm:"size:255" json:"email"`
	PrimaryColor   string `gorm:"size:7;default:'#1E40AF'" json:"primary_color"`
	SecondaryColor string `gorm:"size:7;default:'#059669'" json:"secondary_color"`
	IsActive       bool   `gorm:"not null;default:true" json:"is_active"`

	Domains []Domaine `gorm:"foreignKey:MairieID" json:"domains,omitempty"`
}

// BeforeCreate hook to generate UUID and derive the schema name from the code
func (m *Mairie) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.SchemaName == "" {
		m.SchemaName = SchemaNameFromCode(m.Code)
	}
	return nil
}

// TableName specifies the table name for Mairie model
func (Mairie) TableName() string {
	return "mairies"
}

// SchemaNameFromCode turns a mairie code such as "Yaounde-2" into a partition name ("yaounde_2")
func SchemaNameFromCode(code string) string {
	name := strings.ToLower(strings.TrimSpace(code))
	name = regexp.MustCompile(`[^a-z0-9]+`).ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "m_" + name
	}
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

// IsValidSchemaName checks that a partition name is safe to use as a postgres schema or file name
func IsValidSchemaName(name string) bool {
	return schemaNamePattern.MatchString(name)
}

// Domaine maps a hostname to a mairie
type Domaine struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Domain    string `gorm:"size:253;uniqueIndex;not null" json:"domain"`
	MairieID  string `gorm:"type:uuid;index;not null" json:"mairie_id"`
	IsPrimary bool   `gorm:"not null;default:false" json:"is_primary"`

	Mairie Mairie `gorm:"foreignKey:MairieID" json:"-"`
}

// BeforeCreate hook to generate UUID and normalize the hostname
func (d *Domaine) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.Domain = NormalizeHost(d.Domain)
	return nil
}

// TableName specifies the table name for Domaine model
func (Domaine) TableName() string {
	return "domaines"
}

// NormalizeHost lowercases a host and strips any port
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if strings.HasPrefix(host, "[") {
		// IPv6 literal, keep the bracketed address only
		if end := strings.Index(host, "]"); end > 0 {
			return host[:end+1]
		}
		return host
	}
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return strings.TrimSuffix(host, ".")
}
