package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Profile struct {
	UserID       snowflake.ID                `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	FullName     string                      `gorm:"type:text" json:"full_name"`
	Bio          string                      `gorm:"type:text" json:"bio"`
	Phone        string                      `gorm:"type:text" json:"phone"`
	Location     string                      `gorm:"type:text" json:"location"`
	Skills       datatypes.JSONSlice[string] `gorm:"type:json" json:"skills"`
	Availability string                      `gorm:"type:text" json:"availability"`
	CreatedAt    time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time                   `gorm:"not null" json:"updated_at"`
}

func (Profile) TableName() string { return "volunteer_profiles" }

type UpdateProfileRequest struct {
	FullName     *string
	Bio          *string
	Phone        *string
	Location     *string
	Skills       []string
	Availability *string
}

// RecentHour is a compact view of a logged hour record.
type RecentHour struct {
	ID               snowflake.ID `json:"id"`
	OpportunityID    snowflake.ID `json:"opportunity_id"`
	OpportunityTitle string       `json:"opportunity_title"`
	Hours            float64      `json:"hours"`
	Date             time.Time    `json:"date"`
	Status           string       `json:"status"`
}

type Stats struct {
	VolunteerID          snowflake.ID `json:"volunteer_id"`
	TotalHours           float64      `json:"total_hours"`
	TotalLoggedHours     float64      `json:"total_logged_hours"`
	TotalApplications    int64        `json:"total_applications"`
	AcceptedApplications int64        `json:"accepted_applications"`
	CompletionRate       float64      `json:"completion_rate"`
	RecentActivity       []RecentHour `json:"recent_activity"`
}

type HourTotals struct {
	Verified float64
	Logged   float64
}

type MatchTotals struct {
	Total    int64
	Accepted int64
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, profile *Profile) error
	FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Profile, error)
	Update(ctx context.Context, db *gorm.DB, profile *Profile) error
	SumHours(ctx context.Context, db *gorm.DB, volunteerID snowflake.ID) (HourTotals, error)
	CountMatches(ctx context.Context, db *gorm.DB, volunteerID snowflake.ID) (MatchTotals, error)
	RecentHours(ctx context.Context, db *gorm.DB, volunteerID snowflake.ID, limit int) ([]RecentHour, error)
}

type Service interface {
	// ProvisionProfile creates the empty profile of a newly registered volunteer inside tx.
	ProvisionProfile(ctx context.Context, tx *gorm.DB, userID snowflake.ID, fullName string) (*Profile, error)
	GetProfile(ctx context.Context, caller authorization.Caller) (*Profile, error)
	UpdateProfile(ctx context.Context, caller authorization.Caller, req UpdateProfileRequest) (*Profile, error)
	Stats(ctx context.Context, caller authorization.Caller, volunteerID string) (*Stats, error)
	// Skills returns the skills on a volunteer's profile, empty when there is no profile.
	Skills(ctx context.Context, volunteerID snowflake.ID) ([]string, error)
}

var (
	ErrInvalidID       = errors.New("invalid_volunteer_id")
	ErrProfileNotFound = errors.New("volunteer_profile_not_found")
	ErrInvalidSkill    = errors.New("invalid_skill")
)
