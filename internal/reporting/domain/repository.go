package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type HoursFilter struct {
	OrganizationID snowflake.ID
	From           *time.Time
	To             *time.Time
}

type Repository interface {
	CountUsersByRole(ctx context.Context, db *gorm.DB) (map[string]int64, error)
	Totals(ctx context.Context, db *gorm.DB) (Totals, error)
	RecentUsers(ctx context.Context, db *gorm.DB, limit int) ([]RecentUser, error)
	// MatchStats counts matches, limited to one organization's opportunities when orgID is set.
	MatchStats(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (MatchStats, error)
	VerifiedHours(ctx context.Context, db *gorm.DB, filter HoursFilter) ([]HoursLine, error)
	OrganizationName(ctx context.Context, db *gorm.DB, id snowflake.ID) (string, error)
}
