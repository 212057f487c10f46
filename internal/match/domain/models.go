package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Settable reports whether s may be the target of a status update.
func (s Status) Settable() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Terminal reports whether a match in status s can no longer change.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Match is a volunteer's application to an opportunity.
type Match struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	VolunteerID   snowflake.ID `gorm:"not null;index;uniqueIndex:ux_matches_volunteer_opportunity,priority:1" json:"volunteer_id"`
	OpportunityID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_matches_volunteer_opportunity,priority:2" json:"opportunity_id"`
	Status        Status       `gorm:"type:text;not null;index" json:"status"`
	MatchedOn     time.Time    `gorm:"not null;index" json:"matched_on"`
	UpdatedAt     time.Time    `gorm:"not null" json:"updated_at"`
}

func (Match) TableName() string { return "matches" }
