package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Opportunity struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	OrganizationID snowflake.ID `gorm:"not null;index" json:"organization_id"`
	Title          string       `gorm:"type:text;not null" json:"title"`
	Description    string       `gorm:"type:text" json:"description"`
	SkillsRequired string       `gorm:"type:text" json:"skills_required"`
	Location       string       `gorm:"type:text;index" json:"location"`
	StartDate      time.Time    `gorm:"not null;index" json:"start_date"`
	EndDate        *time.Time   `json:"end_date,omitempty"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null" json:"updated_at"`
}

func (Opportunity) TableName() string { return "opportunities" }
