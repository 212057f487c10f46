package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type UserCounts struct {
	Volunteers    int64 `json:"volunteers"`
	Organizations int64 `json:"organizations"`
	Admins        int64 `json:"admins"`
	Total         int64 `json:"total"`
}

type RecentUser struct {
	ID        snowflake.ID `json:"id"`
	Username  string       `json:"username"`
	Role      string       `json:"role"`
	CreatedAt time.Time    `json:"created_at"`
}

// Totals are whole-system counters read in a single query.
type Totals struct {
	Organizations      int64
	Opportunities      int64
	Matches            int64
	PendingMatches     int64
	HourRecords        int64
	UnverifiedHours    int64
	TotalVerifiedHours float64
}

type Dashboard struct {
	UserCounts          UserCounts   `json:"user_counts"`
	OrganizationCount   int64        `json:"organization_count"`
	OpportunityCount    int64        `json:"opportunity_count"`
	MatchCount          int64        `json:"match_count"`
	PendingMatchCount   int64        `json:"pending_match_count"`
	HourRecordCount     int64        `json:"hour_record_count"`
	UnverifiedHourCount int64        `json:"unverified_hour_count"`
	TotalVerifiedHours  float64      `json:"total_verified_hours"`
	RecentUsers         []RecentUser `json:"recent_users"`
}

type MatchStats struct {
	TotalMatches    int64   `json:"total_matches"`
	PendingMatches  int64   `json:"pending_matches"`
	AcceptedMatches int64   `json:"accepted_matches"`
	RejectedMatches int64   `json:"rejected_matches"`
	AcceptanceRate  float64 `json:"acceptance_rate"`
}

// HoursLine is verified time grouped by volunteer and opportunity.
type HoursLine struct {
	VolunteerID      snowflake.ID `json:"volunteer_id"`
	Volunteer        string       `json:"volunteer"`
	OpportunityID    snowflake.ID `json:"opportunity_id"`
	OpportunityTitle string       `json:"opportunity_title"`
	Entries          int64        `json:"entries"`
	Hours            float64      `json:"hours"`
}

type HoursReport struct {
	OrganizationID *snowflake.ID `json:"organization_id,omitempty"`
	Scope          string        `json:"scope"`
	From           *time.Time    `json:"from,omitempty"`
	To             *time.Time    `json:"to,omitempty"`
	Lines          []HoursLine   `json:"lines"`
	TotalHours     float64       `json:"total_hours"`
	GeneratedAt    time.Time     `json:"generated_at"`
}
