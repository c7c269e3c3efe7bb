package models

import (
	"time"
)

// Team groups profiles under a single owner.
type Team struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"size:1000" json:"description,omitempty"`

	// OwnerID is the user who created the team. A team has exactly one owner.
	OwnerID uint `gorm:"index;not null" json:"owner_id"`
	Owner   User `gorm:"foreignKey:OwnerID" json:"-"`

	Members []Profile `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

// GetUserID implements the Ownable interface; team ownership is the owner.
func (t *Team) GetUserID() uint {
	return t.OwnerID
}

// Profile is the public, searchable face of a user. A profile belongs to at
// most one team.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Email string `gorm:"size:255;not null" json:"email"`
	Name  string `gorm:"size:255" json:"name,omitempty"`

	TeamID *uint `gorm:"index" json:"team_id,omitempty"`
	Team   *Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
}

// GetUserID implements the Ownable interface.
func (p *Profile) GetUserID() uint {
	return p.UserID
}
