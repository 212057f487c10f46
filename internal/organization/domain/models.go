package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Organization struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"type:text;not null" json:"name"`
	Slug         string       `gorm:"type:text;not null;uniqueIndex" json:"slug"`
	Description  string       `gorm:"type:text" json:"description"`
	ContactEmail string       `gorm:"type:text" json:"contact_email"`
	Location     string       `gorm:"type:text" json:"location"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updated_at"`
}

func (Organization) TableName() string { return "organizations" }
