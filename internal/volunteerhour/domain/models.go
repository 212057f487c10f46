package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusUnverified Status = "unverified"
	StatusVerified   Status = "verified"
	StatusRejected   Status = "rejected"
)

// Terminal reports whether a record in status s is frozen.
func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusRejected
}

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// Status returns the record status a decision leads to.
func (d Decision) Status() Status {
	if d == DecisionApproved {
		return StatusVerified
	}
	return StatusRejected
}

// Hour is time a volunteer reports against an opportunity.
// Verified always equals Status == StatusVerified.
type Hour struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	VolunteerID   snowflake.ID  `gorm:"not null;index" json:"volunteer_id"`
	OpportunityID snowflake.ID  `gorm:"not null;index" json:"opportunity_id"`
	Hours         float64       `gorm:"not null" json:"hours"`
	Date          time.Time     `gorm:"not null;index" json:"date"`
	Description   string        `gorm:"type:text" json:"description"`
	Verified      bool          `gorm:"not null;default:false" json:"verified"`
	Status        Status        `gorm:"type:text;not null;index" json:"status"`
	VerifiedBy    *snowflake.ID `json:"verified_by,omitempty"`
	VerifiedAt    *time.Time    `json:"verified_at,omitempty"`
	CreatedAt     time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null" json:"updated_at"`
}

func (Hour) TableName() string { return "volunteer_hours" }
