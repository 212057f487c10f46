package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	VolunteerID    snowflake.ID
	OrganizationID snowflake.ID
	OpportunityID  snowflake.ID
	Status         Status
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, hour *Hour) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Hour, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Hour, error)
	// UpdateUnverified rewrites the editable fields of a record that is still unverified.
	UpdateUnverified(ctx context.Context, db *gorm.DB, hour *Hour) (bool, error)
	DeleteUnverified(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	// Decide records a verification decision on an unverified record.
	Decide(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, verifiedBy snowflake.ID, at time.Time) (bool, error)
}
