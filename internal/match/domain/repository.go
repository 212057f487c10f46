package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListFilter narrows a match listing. Zero-valued fields are ignored.
type ListFilter struct {
	VolunteerID    snowflake.ID
	OrganizationID snowflake.ID
	OpportunityID  snowflake.ID
	Status         Status
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, match *Match) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Match, error)
	Exists(ctx context.Context, db *gorm.DB, volunteerID, opportunityID snowflake.ID) (bool, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Match, error)
	// Transition moves a pending match to status and reports whether a row changed.
	Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, at time.Time) (bool, error)
	OpportunityIDsForVolunteer(ctx context.Context, db *gorm.DB, volunteerID snowflake.ID) ([]snowflake.ID, error)
}
